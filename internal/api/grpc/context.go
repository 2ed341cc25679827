package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"rentchain-backend/internal/api/grpc/interceptor"
	"rentchain-backend/internal/domain"
)

// GetCallerFromContext extracts the caller the auth interceptor placed in
// the gRPC metadata.
func GetCallerFromContext(ctx context.Context) (domain.Caller, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return domain.Caller{}, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	ids := md.Get(interceptor.MetadataAccountID)
	if len(ids) == 0 || ids[0] == "" {
		return domain.Caller{}, status.Errorf(codes.Unauthenticated, "account_id is not provided in metadata")
	}
	roles := md.Get(interceptor.MetadataRole)
	if len(roles) == 0 {
		return domain.Caller{}, status.Errorf(codes.Unauthenticated, "role is not provided in metadata")
	}
	role := domain.Role(roles[0])
	if !role.Valid() {
		return domain.Caller{}, status.Errorf(codes.Unauthenticated, "invalid role %q", roles[0])
	}

	return domain.Caller{AccountID: ids[0], Role: role}, nil
}
