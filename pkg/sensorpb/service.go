// Package sensorpb defines the envsensor.v1.SensorService gRPC contract.
//
// Requests and responses are protobuf well-known types so the service can be
// served and called without generated message code:
//
//	GetState(Empty) -> Struct
//	SetEnabled(BoolValue) -> Struct
//	GetAverage(Empty) -> DoubleValue
//	InjectSample(DoubleValue) -> BoolValue
//	GetHistory(Struct{start_time, end_time}) -> Struct{readings, average_value, min_value, max_value}
package sensorpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "envsensor.v1.SensorService"

const (
	SensorService_GetState_FullMethodName     = "/" + ServiceName + "/GetState"
	SensorService_SetEnabled_FullMethodName   = "/" + ServiceName + "/SetEnabled"
	SensorService_GetAverage_FullMethodName   = "/" + ServiceName + "/GetAverage"
	SensorService_InjectSample_FullMethodName = "/" + ServiceName + "/InjectSample"
	SensorService_GetHistory_FullMethodName   = "/" + ServiceName + "/GetHistory"
)

// SensorServiceServer is the server API for SensorService
type SensorServiceServer interface {
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetEnabled(context.Context, *wrapperspb.BoolValue) (*structpb.Struct, error)
	GetAverage(context.Context, *emptypb.Empty) (*wrapperspb.DoubleValue, error)
	InjectSample(context.Context, *wrapperspb.DoubleValue) (*wrapperspb.BoolValue, error)
	GetHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterSensorServiceServer registers srv on s
func RegisterSensorServiceServer(s grpc.ServiceRegistrar, srv SensorServiceServer) {
	s.RegisterService(&SensorService_ServiceDesc, srv)
}

// SensorServiceClient is the client API for SensorService
type SensorServiceClient interface {
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SetEnabled(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetAverage(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.DoubleValue, error)
	InjectSample(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	GetHistory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sensorServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSensorServiceClient creates a client on cc
func NewSensorServiceClient(cc grpc.ClientConnInterface) SensorServiceClient {
	return &sensorServiceClient{cc}
}

func (c *sensorServiceClient) GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SensorService_GetState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sensorServiceClient) SetEnabled(ctx context.Context, in *wrapperspb.BoolValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SensorService_SetEnabled_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sensorServiceClient) GetAverage(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.DoubleValue, error) {
	out := new(wrapperspb.DoubleValue)
	if err := c.cc.Invoke(ctx, SensorService_GetAverage_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sensorServiceClient) InjectSample(ctx context.Context, in *wrapperspb.DoubleValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, SensorService_InjectSample_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sensorServiceClient) GetHistory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SensorService_GetHistory_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func getStateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorServiceServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SensorService_GetState_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorServiceServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func setEnabledHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorServiceServer).SetEnabled(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SensorService_SetEnabled_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorServiceServer).SetEnabled(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getAverageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorServiceServer).GetAverage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SensorService_GetAverage_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorServiceServer).GetAverage(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func injectSampleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.DoubleValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorServiceServer).InjectSample(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SensorService_InjectSample_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorServiceServer).InjectSample(ctx, req.(*wrapperspb.DoubleValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getHistoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SensorServiceServer).GetHistory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SensorService_GetHistory_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SensorServiceServer).GetHistory(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// SensorService_ServiceDesc is the grpc.ServiceDesc for SensorService
var SensorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SensorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetState", Handler: getStateHandler},
		{MethodName: "SetEnabled", Handler: setEnabledHandler},
		{MethodName: "GetAverage", Handler: getAverageHandler},
		{MethodName: "InjectSample", Handler: injectSampleHandler},
		{MethodName: "GetHistory", Handler: getHistoryHandler},
	},
	Streams: []grpc.StreamDesc{},
}
