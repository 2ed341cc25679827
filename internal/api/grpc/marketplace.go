package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/service"
)

const marketplaceServiceName = "rentchain.v1.MarketplaceService"

type MarketplaceHandler struct {
	marketplaceSvc service.MarketplaceService
}

func NewMarketplaceHandler(marketplaceSvc service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketplaceSvc: marketplaceSvc}
}

func (h *MarketplaceHandler) ServiceDesc() *grpc.ServiceDesc {
	return serviceDesc(marketplaceServiceName,
		method{"Apply", h.Apply},
		method{"AcceptApplication", h.AcceptApplication},
		method{"CancelOrReject", h.CancelOrReject},
		method{"MakePayment", h.MakePayment},
		method{"AcceptPayment", h.AcceptPayment},
		method{"MoveOut", h.MoveOut},
		method{"GetApplication", h.GetApplication},
		method{"ListApplicationsByProperty", h.ListApplicationsByProperty},
		method{"ListMyApplications", h.ListMyApplications},
		method{"GetCurrentApplication", h.GetCurrentApplication},
		method{"GetDepositAmount", h.GetDepositAmount},
	)
}

func (h *MarketplaceHandler) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	contact := domain.ContactInfo{
		Name:  r.RequiredString("contact_name"),
		Email: r.String("contact_email"),
		Phone: r.String("contact_phone"),
	}
	description := r.String("description")
	if err := r.err(); err != nil {
		return nil, err
	}
	app, err := h.marketplaceSvc.Apply(ctx, caller, propertyID, contact, description)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"application": MapDomainApplicationToProto(app)})
}

// applicationAction covers the operations addressed by a property and
// application id pair that return the updated application.
func (h *MarketplaceHandler) applicationAction(ctx context.Context, req *structpb.Struct,
	fn func(context.Context, domain.Caller, int64, int64) (*domain.Application, error)) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	applicationID := r.RequiredInt64("application_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	app, err := fn(ctx, caller, propertyID, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return toStruct(map[string]any{"success": true})
	}
	return toStruct(map[string]any{"application": MapDomainApplicationToProto(app)})
}

func (h *MarketplaceHandler) AcceptApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applicationAction(ctx, req, h.marketplaceSvc.AcceptApplication)
}

func (h *MarketplaceHandler) MakePayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applicationAction(ctx, req, h.marketplaceSvc.MakePayment)
}

func (h *MarketplaceHandler) AcceptPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applicationAction(ctx, req, h.marketplaceSvc.AcceptPayment)
}

func (h *MarketplaceHandler) CancelOrReject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applicationAction(ctx, req, func(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
		return nil, h.marketplaceSvc.CancelOrReject(ctx, caller, propertyID, applicationID)
	})
}

func (h *MarketplaceHandler) MoveOut(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return h.applicationAction(ctx, req, func(ctx context.Context, caller domain.Caller, propertyID, applicationID int64) (*domain.Application, error) {
		return nil, h.marketplaceSvc.MoveOut(ctx, caller, propertyID, applicationID)
	})
}

func (h *MarketplaceHandler) GetApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	applicationID := r.RequiredInt64("application_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	app, err := h.marketplaceSvc.GetApplication(ctx, caller, propertyID, applicationID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"application": MapDomainApplicationToProto(app)})
}

func (h *MarketplaceHandler) ListApplicationsByProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	pending, accepted, err := h.marketplaceSvc.ListApplicationsByProperty(ctx, caller, propertyID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{
		"accepted": MapDomainApplicationsToProto(accepted),
		"pending":  MapDomainApplicationsToProto(pending),
	})
}

func (h *MarketplaceHandler) ListMyApplications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := h.marketplaceSvc.ListApplicationsByTenant(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"applications": MapDomainApplicationsToProto(apps)})
}

func (h *MarketplaceHandler) GetCurrentApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	app, err := h.marketplaceSvc.CurrentApplication(ctx, caller.AccountID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return toStruct(map[string]any{"application": nil})
	}
	return toStruct(map[string]any{"application": MapDomainApplicationToProto(app)})
}

func (h *MarketplaceHandler) GetDepositAmount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	amount, err := h.marketplaceSvc.DepositAmount(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"deposit_amount": amount})
}
