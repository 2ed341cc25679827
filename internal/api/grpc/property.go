package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/service"
)

const propertyServiceName = "rentchain.v1.PropertyService"

type PropertyHandler struct {
	propertySvc service.PropertyService
}

func NewPropertyHandler(propertySvc service.PropertyService) *PropertyHandler {
	return &PropertyHandler{propertySvc: propertySvc}
}

func (h *PropertyHandler) ServiceDesc() *grpc.ServiceDesc {
	return serviceDesc(propertyServiceName,
		method{"AddProperty", h.AddProperty},
		method{"UpdateProperty", h.UpdateProperty},
		method{"DeleteProperty", h.DeleteProperty},
		method{"ListProperty", h.ListProperty},
		method{"UnlistProperty", h.UnlistProperty},
		method{"UpdateDepositFee", h.UpdateDepositFee},
		method{"GetProperty", h.GetProperty},
		method{"ListMyProperties", h.ListMyProperties},
		method{"ListListedProperties", h.ListListedProperties},
	)
}

func (h *PropertyHandler) AddProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	fields := r.PropertyFields()
	if err := r.err(); err != nil {
		return nil, err
	}
	p, err := h.propertySvc.AddProperty(ctx, caller, fields)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"property": MapDomainPropertyToProto(p)})
}

func (h *PropertyHandler) UpdateProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	fields := r.PropertyFields()
	if err := r.err(); err != nil {
		return nil, err
	}
	p, err := h.propertySvc.UpdateProperty(ctx, caller, id, fields)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"property": MapDomainPropertyToProto(p)})
}

func (h *PropertyHandler) DeleteProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	if err := h.propertySvc.DeleteProperty(ctx, caller, id); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"success": true})
}

func (h *PropertyHandler) ListProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	depositFee := r.RequiredInt64("deposit_fee")
	if err := r.err(); err != nil {
		return nil, err
	}
	p, err := h.propertySvc.List(ctx, caller, id, depositFee)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"property": MapDomainPropertyToProto(p)})
}

func (h *PropertyHandler) UnlistProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	refunded, err := h.propertySvc.Unlist(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"refunded": refunded})
}

func (h *PropertyHandler) UpdateDepositFee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	depositFee := r.RequiredInt64("deposit_fee")
	if err := r.err(); err != nil {
		return nil, err
	}
	p, err := h.propertySvc.UpdateDepositFee(ctx, caller, id, depositFee)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"property": MapDomainPropertyToProto(p)})
}

func (h *PropertyHandler) GetProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	id := r.RequiredInt64("property_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	p, err := h.propertySvc.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"property": MapDomainPropertyToProto(p)})
}

func (h *PropertyHandler) ListMyProperties(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	filter := r.ListingFilter()
	if err := r.err(); err != nil {
		return nil, err
	}
	props, err := h.propertySvc.ListByLandlord(ctx, caller.AccountID, filter)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"properties": MapDomainPropertiesToProto(props)})
}

func (h *PropertyHandler) ListListedProperties(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	props, err := h.propertySvc.ListListed(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"properties": MapDomainPropertiesToProto(props)})
}
