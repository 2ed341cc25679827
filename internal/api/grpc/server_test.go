package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	api "rentchain-backend/internal/api/grpc"
	"rentchain-backend/internal/api/grpc/interceptor"
	"rentchain-backend/internal/domain"
	"rentchain-backend/internal/repository/memory"
	"rentchain-backend/internal/security"
	"rentchain-backend/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	conn   *grpc.ClientConn
	core   *service.Core
	tokens security.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	core := service.NewCore(memory.NewStore(), domain.DefaultFeeSchedule())
	tokens := security.NewTokenManager(testSecret, time.Hour)

	listener := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer(grpc.UnaryInterceptor(interceptor.NewAuthInterceptor(tokens).Unary()))
	api.Register(server,
		api.NewLedgerHandler(core.Ledger, core.Vault),
		api.NewPropertyHandler(core.Properties),
		api.NewMarketplaceHandler(core.Marketplace),
		api.NewDisputeHandler(core.Disputes),
		api.NewNotificationHandler(core.Notifications, core.Events),
	)
	go func() {
		_ = server.Serve(listener)
	}()
	t.Cleanup(func() {
		server.Stop()
		listener.Close()
	})

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &testServer{conn: conn, core: core, tokens: tokens}
}

func (s *testServer) call(t *testing.T, as *domain.Caller, method string, req map[string]any) (*structpb.Struct, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if as != nil {
		token, err := s.tokens.GenerateAccessToken(as.AccountID, as.Role)
		require.NoError(t, err)
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	err = s.conn.Invoke(ctx, method, in, out)
	return out, err
}

var (
	admin    = domain.Caller{AccountID: "admin", Role: domain.RoleAdmin}
	landlord = domain.Caller{AccountID: "landlord", Role: domain.RoleLandlord}
	tenant   = domain.Caller{AccountID: "tenant", Role: domain.RoleTenant}
)

func TestPublicEndpointWithoutToken(t *testing.T) {
	s := newTestServer(t)

	out, err := s.call(t, nil, "/rentchain.v1.LedgerService/GetFees", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(50), out.Fields["protection_fee"].GetNumberValue())
	assert.Equal(t, float64(4), out.Fields["minimum_votes"].GetNumberValue())
}

func TestProtectedEndpointRequiresToken(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(t, nil, "/rentchain.v1.LedgerService/GetBalance", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestSpoofedIdentityHeaderIsIgnored(t *testing.T) {
	s := newTestServer(t)
	_, err := s.core.Ledger.Mint(context.Background(), admin, "landlord", 1)
	require.NoError(t, err)

	ctx := metadata.AppendToOutgoingContext(context.Background(),
		interceptor.MetadataAccountID, "admin",
		interceptor.MetadataRole, string(domain.RoleAdmin))
	in, _ := structpb.NewStruct(map[string]any{"account_id": "tenant", "native_amount": 5})
	err = s.conn.Invoke(ctx, "/rentchain.v1.LedgerService/Mint", in, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	// A public endpoint never sees the forged caller either.
	out, err := s.call(t, nil, "/rentchain.v1.PropertyService/ListListedProperties", nil)
	require.NoError(t, err)
	assert.Empty(t, out.Fields["properties"].GetListValue().GetValues())
}

func TestPropertyAndApplicationFlow(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(t, &admin, "/rentchain.v1.LedgerService/Mint", map[string]any{"account_id": "landlord", "native_amount": 1})
	require.NoError(t, err)
	_, err = s.call(t, &admin, "/rentchain.v1.LedgerService/Mint", map[string]any{"account_id": "tenant", "native_amount": 1})
	require.NoError(t, err)

	out, err := s.call(t, &landlord, "/rentchain.v1.PropertyService/AddProperty", map[string]any{
		"location":        "12 Orchard Road",
		"postal_code":     "238801",
		"unit_number":     "#04-12",
		"property_type":   1,
		"tenant_capacity": 2,
		"rental_price":    10,
		"lease_months":    3,
	})
	require.NoError(t, err)
	property := out.Fields["property"].GetStructValue().Fields
	assert.Equal(t, float64(1), property["id"].GetNumberValue())
	assert.Equal(t, "CONDO", property["property_type_name"].GetStringValue())

	_, err = s.call(t, &landlord, "/rentchain.v1.PropertyService/ListProperty", map[string]any{"property_id": 1, "deposit_fee": 20})
	require.NoError(t, err)

	out, err = s.call(t, nil, "/rentchain.v1.MarketplaceService/GetDepositAmount", map[string]any{"property_id": 1})
	require.NoError(t, err)
	assert.Equal(t, float64(20), out.Fields["deposit_amount"].GetNumberValue())

	out, err = s.call(t, &tenant, "/rentchain.v1.MarketplaceService/Apply", map[string]any{
		"property_id":   1,
		"contact_name":  "Tan",
		"contact_email": "tan@example.com",
	})
	require.NoError(t, err)
	app := out.Fields["application"].GetStructValue().Fields
	assert.Equal(t, "PENDING", app["status"].GetStringValue())

	_, err = s.call(t, &tenant, "/rentchain.v1.MarketplaceService/Apply", map[string]any{
		"property_id":  1,
		"contact_name": "Tan",
	})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
	assert.Equal(t, domain.KindDuplicateApplication, api.KindFromStatus(err))

	out, err = s.call(t, &landlord, "/rentchain.v1.MarketplaceService/AcceptApplication", map[string]any{"property_id": 1, "application_id": 1})
	require.NoError(t, err)
	assert.Equal(t, "ONGOING", out.Fields["application"].GetStructValue().Fields["status"].GetStringValue())

	out, err = s.call(t, &tenant, "/rentchain.v1.LedgerService/GetBalance", nil)
	require.NoError(t, err)
	assert.Equal(t, "tenant", out.Fields["account_id"].GetStringValue())
	assert.Equal(t, float64(80), out.Fields["balance"].GetNumberValue())

	out, err = s.call(t, &tenant, "/rentchain.v1.NotificationService/GetNotifications", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Fields["notifications"].GetListValue().GetValues())
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  map[string]any
	}{
		{"missing id", map[string]any{}},
		{"fractional id", map[string]any{"property_id": 1.5}},
		{"string id", map[string]any{"property_id": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.call(t, nil, "/rentchain.v1.PropertyService/GetProperty", tt.req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	_, err := s.call(t, nil, "/rentchain.v1.PropertyService/GetProperty", map[string]any{"property_id": 7})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestDomainErrorsMapToCodes(t *testing.T) {
	s := newTestServer(t)

	_, err := s.call(t, &tenant, "/rentchain.v1.LedgerService/Mint", map[string]any{"account_id": "tenant", "native_amount": 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = s.call(t, &tenant, "/rentchain.v1.LedgerService/Transfer", map[string]any{"to": "landlord", "amount": 5})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Equal(t, domain.KindInsufficientBalance, api.KindFromStatus(err))

	_, err = s.call(t, &tenant, "/rentchain.v1.DisputeService/Vote", map[string]any{"dispute_id": 1, "choice": 9})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestApplicationsByProperty(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	other := domain.Caller{AccountID: "tenant2", Role: domain.RoleTenant}
	stranger := domain.Caller{AccountID: "stranger", Role: domain.RoleValidator}

	for _, c := range []domain.Caller{landlord, tenant, other} {
		_, err := s.core.Ledger.Mint(ctx, admin, c.AccountID, 1)
		require.NoError(t, err)
	}
	p, err := s.core.Properties.AddProperty(ctx, landlord, domain.PropertyFields{
		Location:       "12 Orchard Road",
		PostalCode:     "238801",
		UnitNumber:     "#04-12",
		PropertyType:   domain.PropertyTypeCondo,
		TenantCapacity: 2,
		RentalPrice:    10,
		LeaseMonths:    3,
	})
	require.NoError(t, err)
	_, err = s.core.Properties.List(ctx, landlord, p.ID, 20)
	require.NoError(t, err)
	for _, c := range []domain.Caller{tenant, other} {
		_, err = s.core.Marketplace.Apply(ctx, c, p.ID, domain.ContactInfo{Name: c.AccountID, Email: c.AccountID + "@example.com", Phone: "9123"}, "")
		require.NoError(t, err)
	}
	_, err = s.core.Marketplace.AcceptApplication(ctx, landlord, p.ID, 1)
	require.NoError(t, err)

	out, err := s.call(t, &landlord, "/rentchain.v1.MarketplaceService/ListApplicationsByProperty", map[string]any{"property_id": p.ID})
	require.NoError(t, err)
	accepted := out.Fields["accepted"].GetListValue().GetValues()
	pending := out.Fields["pending"].GetListValue().GetValues()
	require.Len(t, accepted, 1)
	require.Len(t, pending, 1)
	assert.Equal(t, float64(1), accepted[0].GetStructValue().Fields["id"].GetNumberValue())
	assert.Equal(t, "ONGOING", accepted[0].GetStructValue().Fields["status"].GetStringValue())
	assert.Equal(t, float64(2), pending[0].GetStructValue().Fields["id"].GetNumberValue())
	assert.Equal(t, "PENDING", pending[0].GetStructValue().Fields["status"].GetStringValue())

	_, err = s.call(t, &stranger, "/rentchain.v1.MarketplaceService/ListApplicationsByProperty", map[string]any{"property_id": p.ID})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = s.call(t, &stranger, "/rentchain.v1.MarketplaceService/GetApplication", map[string]any{"property_id": p.ID, "application_id": 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, domain.KindUnauthorized, api.KindFromStatus(err))

	_, err = s.call(t, &other, "/rentchain.v1.MarketplaceService/GetApplication", map[string]any{"property_id": p.ID, "application_id": 1})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	out, err = s.call(t, &tenant, "/rentchain.v1.MarketplaceService/GetApplication", map[string]any{"property_id": p.ID, "application_id": 1})
	require.NoError(t, err)
	assert.Equal(t, "tenant@example.com", out.Fields["application"].GetStructValue().Fields["contact_email"].GetStringValue())
}
