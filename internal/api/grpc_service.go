package api

import (
	"context"
	"errors"
	"fmt"
	"math"

	"cancelsaga/internal/config"
	"cancelsaga/internal/domain"
	"cancelsaga/internal/models"
	"cancelsaga/internal/service"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const serviceName = "cancelsaga.v1.CancellationService"

// CancellationServer is the gRPC surface of the cancellation flow. Messages
// are google.protobuf.Struct, so clients need no generated stubs:
//
//	CancelBooking   {booking_id: number, reason?: string} -> CancellationResult
//	GetCancellation {booking_id: number}                  -> CancellationResult
//
// The requester comes from the requester metadata header.
type CancellationServer interface {
	CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetCancellation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var cancellationServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CancellationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CancelBooking", Handler: cancelBookingHandler},
		{MethodName: "GetCancellation", Handler: getCancellationHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cancelsaga/v1/cancellation.proto",
}

func RegisterCancellationServer(s grpc.ServiceRegistrar, srv CancellationServer) {
	s.RegisterService(&cancellationServiceDesc, srv)
}

func cancelBookingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CancellationServer).CancelBooking(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCancelBooking}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CancellationServer).CancelBooking(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getCancellationHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CancellationServer).GetCancellation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetCancellation}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CancellationServer).GetCancellation(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type cancellationService struct {
	svc             domain.CancellationService
	guard           *CancelGuard
	requesterHeader string
	log             zerolog.Logger
}

func NewCancellationServer(cfg *config.APIConfig, svc domain.CancellationService, guard *CancelGuard, logger *zerolog.Logger) CancellationServer {
	s := &cancellationService{
		svc:             svc,
		guard:           guard,
		requesterHeader: headerName(cfg.RequesterHeader, requesterHeaderDefault),
		log:             zerolog.Nop(),
	}
	if logger != nil {
		s.log = logger.With().Str("component", "grpc").Logger()
	}
	return s
}

func (s *cancellationService) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bookingID, err := bookingIDField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	reason := req.GetFields()["reason"].GetStringValue()

	md, _ := metadata.FromIncomingContext(ctx)
	requesterID := first(md.Get(s.requesterHeader))

	if !s.guard.Allow(ctx, requesterID) {
		return nil, status.Error(codes.ResourceExhausted, "too many cancellation requests")
	}

	result, err := s.svc.CancelBooking(ctx, bookingID, requesterID, reason)
	if err != nil && !service.IsBusinessError(err) {
		s.log.Error().Err(err).Int64("booking_id", bookingID).Msg("cancel booking")
		return nil, status.Error(codes.Internal, service.UserMessage(err))
	}
	return resultStruct(result)
}

func (s *cancellationService) GetCancellation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	bookingID, err := bookingIDField(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.svc.GetCancellation(ctx, bookingID)
	if err != nil {
		if errors.Is(err, service.ErrOutcomeNotFound) {
			return nil, status.Error(codes.NotFound, "no cancellation recorded for booking")
		}
		s.log.Error().Err(err).Int64("booking_id", bookingID).Msg("get cancellation")
		return nil, status.Error(codes.Internal, "failed to load cancellation")
	}
	return resultStruct(result)
}

func bookingIDField(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["booking_id"]
	if !ok {
		return 0, errors.New("booking_id is required")
	}
	n := v.GetNumberValue()
	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid booking_id %v", n)
	}
	return int64(n), nil
}

// resultStruct goes through JSON so the gRPC and HTTP bodies share field names.
func resultStruct(result *models.CancellationResult) (*structpb.Struct, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode result")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "encode result")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode result")
	}
	return out, nil
}
