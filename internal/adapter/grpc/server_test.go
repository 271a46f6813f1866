package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
)

const testToken = "test-token-123"

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, userID uuid.UUID) (*domain.RunSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *mockRunner) Sweep(ctx context.Context, asOf time.Time) (*coordinator.SweepSummary, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coordinator.SweepSummary), args.Error(1)
}

// startServer serves the trigger service over an in-memory listener
func startServer(t *testing.T, runner Runner, now time.Time) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	server := NewServer(runner, nil)
	server.Now = func() time.Time { return now }

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(AuthInterceptor(testToken)))
	RegisterAutoTransferServiceServer(s, server)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func TestExecute(t *testing.T) {
	runner := new(mockRunner)
	client := startServer(t, runner, time.Now())

	userID, goalID, scheduleID := uuid.New(), uuid.New(), uuid.New()
	runner.On("Run", mock.Anything, userID).Return(&domain.RunSummary{
		UserID:   userID,
		Executed: 1,
		Results: []domain.TransferResult{
			{ScheduleID: &scheduleID, GoalID: goalID, Outcome: domain.OutcomeSuccess, Amount: decimal.RequireFromString("125.50")},
			{ScheduleID: &scheduleID, GoalID: goalID, Outcome: domain.OutcomeFailed, Amount: decimal.Zero, Reason: domain.ReasonInsufficientPool},
		},
		PoolAtStart:   decimal.NewFromInt(200),
		PoolRemaining: decimal.RequireFromString("74.5"),
		RanAt:         time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	req, err := structpb.NewStruct(map[string]any{"user_id": userID.String()})
	require.NoError(t, err)

	resp, err := client.Execute(authed(), req)

	require.NoError(t, err)
	fields := resp.AsMap()
	assert.Equal(t, float64(1), fields["executed"])
	assert.Equal(t, "74.5", fields["pool_remaining"])
	results := fields["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "125.5", results[0].(map[string]any)["amount"])
	assert.Equal(t, "insufficient pool", results[1].(map[string]any)["reason"])
	runner.AssertExpectations(t)
}

func TestExecute_Errors(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		ctx      context.Context
		fields   map[string]any
		runErr   error
		wantCode codes.Code
	}{
		{name: "Unauthenticated", ctx: context.Background(), fields: map[string]any{"user_id": userID.String()}, wantCode: codes.Unauthenticated},
		{name: "Missing user", ctx: authed(), fields: map[string]any{}, wantCode: codes.InvalidArgument},
		{name: "Malformed user", ctx: authed(), fields: map[string]any{"user_id": "abc"}, wantCode: codes.InvalidArgument},
		{name: "Run failure", ctx: authed(), fields: map[string]any{"user_id": userID.String()}, runErr: errors.New("connection refused"), wantCode: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			if tt.runErr != nil {
				runner.On("Run", mock.Anything, userID).Return(nil, tt.runErr)
			}
			client := startServer(t, runner, time.Now())

			req, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			_, err = client.Execute(tt.ctx, req)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, time.May, 2, 3, 0, 0, 0, time.UTC)
	asOf := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		fields   map[string]any
		wantAsOf time.Time
	}{
		{name: "Defaults to now", fields: map[string]any{}, wantAsOf: now},
		{name: "Explicit as_of", fields: map[string]any{"as_of": asOf.Format(time.RFC3339)}, wantAsOf: asOf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			runner.On("Sweep", mock.Anything, tt.wantAsOf).Return(&coordinator.SweepSummary{
				AsOf: tt.wantAsOf, Users: 3, Succeeded: 2, Failed: 1, Transfers: 5,
			}, nil)
			client := startServer(t, runner, now)

			req, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			resp, err := client.Sweep(authed(), req)

			require.NoError(t, err)
			fields := resp.AsMap()
			assert.Equal(t, float64(3), fields["users"])
			assert.Equal(t, float64(1), fields["failed"])
			assert.Equal(t, tt.wantAsOf.Format(time.RFC3339), fields["as_of"])
			runner.AssertExpectations(t)
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "Validation", err: errors.Wrap(domain.ErrInvalidAmount, "create"), want: codes.InvalidArgument},
		{name: "Not found", err: errors.Wrap(domain.ErrNotFound, "goal"), want: codes.NotFound},
		{name: "Cancelled", err: errors.Wrap(context.Canceled, "run"), want: codes.Canceled},
		{name: "Unknown", err: errors.New("boom"), want: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(mapError(tt.err)))
		})
	}
	assert.NoError(t, mapError(nil))
}
