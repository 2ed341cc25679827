package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/service"
)

const ledgerServiceName = "rentchain.v1.LedgerService"

type LedgerHandler struct {
	ledgerSvc service.LedgerService
	escrowSvc service.EscrowService
}

func NewLedgerHandler(ledgerSvc service.LedgerService, escrowSvc service.EscrowService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, escrowSvc: escrowSvc}
}

func (h *LedgerHandler) ServiceDesc() *grpc.ServiceDesc {
	return serviceDesc(ledgerServiceName,
		method{"GetFees", h.GetFees},
		method{"Mint", h.Mint},
		method{"Redeem", h.Redeem},
		method{"Transfer", h.Transfer},
		method{"GetBalance", h.GetBalance},
		method{"GetTotalSupply", h.GetTotalSupply},
		method{"GetTransactions", h.GetTransactions},
		method{"GetEscrowPools", h.GetEscrowPools},
	)
}

func (h *LedgerHandler) GetFees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fees := h.escrowSvc.FeeSchedule()
	return toStruct(map[string]any{
		"protection_fee":          fees.ProtectionFee,
		"voter_reward":            fees.VoterReward,
		"vote_price":              fees.VotePrice,
		"minimum_votes":           fees.MinimumVotes,
		"dispute_window_seconds":  int64(fees.DisputeWindow.Seconds()),
		"credits_per_native_unit": fees.CreditsPerNativeUnit,
	})
}

func (h *LedgerHandler) Mint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	accountID := r.RequiredString("account_id")
	native := r.RequiredInt64("native_amount")
	if err := r.err(); err != nil {
		return nil, err
	}
	minted, err := h.ledgerSvc.Mint(ctx, caller, accountID, native)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"credits": minted})
}

func (h *LedgerHandler) Redeem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	credits := r.RequiredInt64("credits")
	if err := r.err(); err != nil {
		return nil, err
	}
	native, err := h.ledgerSvc.Redeem(ctx, caller, credits)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"native_amount": native})
}

func (h *LedgerHandler) Transfer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	to := r.RequiredString("to")
	amount := r.RequiredInt64("amount")
	if err := r.err(); err != nil {
		return nil, err
	}
	if err := h.ledgerSvc.Transfer(ctx, caller, to, amount); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"success": true})
}

// GetBalance defaults to the caller's own account.
func (h *LedgerHandler) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	accountID := r.String("account_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	if accountID == "" {
		accountID = caller.AccountID
	}
	balance, err := h.ledgerSvc.BalanceOf(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"account_id": accountID, "balance": balance})
}

func (h *LedgerHandler) GetTotalSupply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	supply, err := h.ledgerSvc.TotalSupply(ctx)
	if err != nil {
		return nil, err
	}
	escrowed, err := h.escrowSvc.TotalEscrowed(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"total_supply": supply, "total_escrowed": escrowed})
}

func (h *LedgerHandler) GetTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	page := r.Int32("page")
	pageSize := r.Int32("page_size")
	if err := r.err(); err != nil {
		return nil, err
	}
	txs, count, err := h.ledgerSvc.GetTransactions(ctx, caller.AccountID, page, pageSize)
	if err != nil {
		return nil, err
	}
	protoTxs := make([]any, len(txs))
	for i := range txs {
		protoTxs[i] = MapDomainTransactionToProto(&txs[i])
	}
	return toStruct(map[string]any{
		"transactions": protoTxs,
		"total_count":  count,
	})
}

func (h *LedgerHandler) GetEscrowPools(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	pools, err := h.escrowSvc.Pools(ctx)
	if err != nil {
		return nil, err
	}
	protoPools := make([]any, len(pools))
	for i := range pools {
		protoPools[i] = MapDomainPoolToProto(&pools[i])
	}
	return toStruct(map[string]any{"pools": protoPools})
}
