package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/service"
)

const disputeServiceName = "rentchain.v1.DisputeService"

type DisputeHandler struct {
	disputeSvc service.DisputeService
}

func NewDisputeHandler(disputeSvc service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeSvc: disputeSvc}
}

func (h *DisputeHandler) ServiceDesc() *grpc.ServiceDesc {
	return serviceDesc(disputeServiceName,
		method{"CreateDispute", h.CreateDispute},
		method{"Vote", h.Vote},
		method{"ResolveDispute", h.ResolveDispute},
		method{"GetDispute", h.GetDispute},
		method{"ListMyDisputes", h.ListMyDisputes},
		method{"ListAllDisputes", h.ListAllDisputes},
		method{"GetVoterCount", h.GetVoterCount},
	)
}

func (h *DisputeHandler) CreateDispute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	propertyID := r.RequiredInt64("property_id")
	applicationID := r.RequiredInt64("application_id")
	typeIndex := r.RequiredInt64("dispute_type")
	reason := r.String("reason")
	if err := r.err(); err != nil {
		return nil, err
	}
	disputeType, err := domain.DisputeTypeFromIndex(int(typeIndex))
	if err != nil {
		return nil, err
	}
	d, err := h.disputeSvc.CreateDispute(ctx, caller, propertyID, applicationID, disputeType, reason)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"dispute": MapDomainDisputeToProto(d)})
}

// Vote takes the choice as its client index: 1 approve, 2 reject.
func (h *DisputeHandler) Vote(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	disputeID := r.RequiredInt64("dispute_id")
	choiceIndex := r.RequiredInt64("choice")
	if err := r.err(); err != nil {
		return nil, err
	}
	choice, err := domain.VoteChoiceFromIndex(int(choiceIndex))
	if err != nil {
		return nil, err
	}
	if err := h.disputeSvc.Vote(ctx, caller, disputeID, choice); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"success": true})
}

func (h *DisputeHandler) ResolveDispute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	disputeID := r.RequiredInt64("dispute_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	d, err := h.disputeSvc.Resolve(ctx, caller, disputeID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"dispute": MapDomainDisputeToProto(d)})
}

func (h *DisputeHandler) GetDispute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := GetCallerFromContext(ctx); err != nil {
		return nil, err
	}
	r := newRequest(req)
	disputeID := r.RequiredInt64("dispute_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	d, err := h.disputeSvc.GetDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"dispute": MapDomainDisputeToProto(d)})
}

// ListMyDisputes returns the disputes the caller filed as tenant, or those
// raised against the caller as landlord.
func (h *DisputeHandler) ListMyDisputes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var disputes []domain.Dispute
	if caller.Is(domain.RoleLandlord) {
		disputes, err = h.disputeSvc.ListByLandlord(ctx, caller.AccountID)
	} else {
		disputes, err = h.disputeSvc.ListByTenant(ctx, caller.AccountID)
	}
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"disputes": MapDomainDisputesToProto(disputes)})
}

func (h *DisputeHandler) ListAllDisputes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := GetCallerFromContext(ctx); err != nil {
		return nil, err
	}
	disputes, err := h.disputeSvc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"disputes": MapDomainDisputesToProto(disputes)})
}

func (h *DisputeHandler) GetVoterCount(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	disputeID := r.RequiredInt64("dispute_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	count, err := h.disputeSvc.VoterCount(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"voter_count": count})
}
