package grpc

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
)

// Runner is the part of the coordinator the trigger service drives
type Runner interface {
	Run(ctx context.Context, userID uuid.UUID) (*domain.RunSummary, error)
	Sweep(ctx context.Context, asOf time.Time) (*coordinator.SweepSummary, error)
}

// Server implements AutoTransferServiceServer, letting schedulers and operators
// trigger runs without going through the REST API
type Server struct {
	Runner Runner
	Now    func() time.Time
	logger *zap.SugaredLogger
}

// NewServer creates a new gRPC server instance
func NewServer(runner Runner, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		Runner: runner,
		Now:    time.Now,
		logger: logger,
	}
}

// Execute handles the Execute RPC
func (s *Server) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw := req.GetFields()["user_id"].GetStringValue()
	if raw == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid user_id: %v", err)
	}

	summary, err := s.Runner.Run(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	results := make([]any, 0, len(summary.Results))
	for _, r := range summary.Results {
		result := map[string]any{
			"goal_id": r.GoalID.String(),
			"status":  string(r.Outcome),
			"amount":  r.Amount.String(),
		}
		if r.ScheduleID != nil {
			result["schedule_id"] = r.ScheduleID.String()
		}
		if r.Reason != "" {
			result["reason"] = r.Reason
		}
		results = append(results, result)
	}

	return structpb.NewStruct(map[string]any{
		"user_id":        userID.String(),
		"executed":       summary.Executed,
		"results":        results,
		"pool_at_start":  summary.PoolAtStart.String(),
		"pool_remaining": summary.PoolRemaining.String(),
		"ran_at":         summary.RanAt.Format(time.RFC3339),
	})
}

// Sweep handles the Sweep RPC
func (s *Server) Sweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	asOf := s.Now()
	if raw := req.GetFields()["as_of"].GetStringValue(); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid as_of: %v", err)
		}
		asOf = parsed
	}

	summary, err := s.Runner.Sweep(ctx, asOf)
	if err != nil {
		return nil, mapError(err)
	}

	return structpb.NewStruct(map[string]any{
		"as_of":     summary.AsOf.Format(time.RFC3339),
		"users":     summary.Users,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"transfers": summary.Transfers,
	})
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case domain.IsValidationError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
