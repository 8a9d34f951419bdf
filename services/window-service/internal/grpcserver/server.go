// Package grpcserver exposes the bounds check over gRPC. The service is
// declared by hand over google.protobuf.Struct so no generated code is needed.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/boundary"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/storage"
	"github.com/md-rashed-zaman/bookwindow/services/window-service/internal/window"
)

const ServiceName = "bookingwindow.v1.BookingWindowService"

// BookingWindowServer is the server API of ServiceName.
type BookingWindowServer interface {
	CheckBounds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type Checker interface {
	Check(ctx context.Context, eventTypeID string, t time.Time, bookerOffsetMinutes int) (boundary.CheckResult, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingWindowServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckBounds", Handler: checkBoundsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookingwindow/v1/booking_window.proto",
}

func checkBoundsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingWindowServer).CheckBounds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/CheckBounds",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BookingWindowServer).CheckBounds(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type server struct {
	checker Checker
	logger  *slog.Logger
}

func NewServer(checker Checker, logger *slog.Logger) BookingWindowServer {
	return &server{checker: checker, logger: logger}
}

// Register installs the booking window service and a health service that
// reports it as serving. The health server is returned so callers can flip
// it during shutdown.
func Register(s grpc.ServiceRegistrar, srv BookingWindowServer) *health.Server {
	s.RegisterService(&serviceDesc, srv)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

func (s *server) CheckBounds(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	eventTypeID := strings.TrimSpace(fields["event_type_id"].GetStringValue())
	if eventTypeID == "" {
		return nil, status.Error(codes.InvalidArgument, "event_type_id is required")
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(fields["time"].GetStringValue()))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "time must be RFC 3339")
	}
	rawOffset := fields["booker_utc_offset"].GetNumberValue()
	if rawOffset != math.Trunc(rawOffset) || math.Abs(rawOffset) > math.MaxInt32 {
		return nil, status.Error(codes.InvalidArgument, "booker_utc_offset must be whole minutes")
	}
	offset := int(rawOffset)

	res, err := s.checker.Check(ctx, eventTypeID, at, offset)
	if err != nil {
		return nil, s.toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"out_of_bounds":                res.OutOfBounds,
		"reason":                       res.Reason,
		"rolling_window_check_skipped": res.RollingWindowCheckSkipped,
	})
}

func (s *server) toStatus(err error) error {
	switch {
	case errors.Is(err, window.ErrBookingDateInPast):
		return status.Error(codes.FailedPrecondition, boundary.ReasonInPast)
	case errors.Is(err, boundary.ErrInvalidEventTypeID), errors.Is(err, boundary.ErrInvalidBookerOffset),
		errors.Is(err, window.ErrInvalidPeriodConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, "event type not found")
	default:
		s.logger.Error("check bounds failed", "err", err)
		return status.Error(codes.Internal, "internal error")
	}
}
