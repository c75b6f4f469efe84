package services

import (
	"context"

	"google.golang.org/grpc"
)

// AnalysisServiceDesc is the grpc.ServiceDesc a protoc-gen-go-grpc pass would
// emit for AnalysisServiceServer, hand-assembled because this repo carries
// no .proto source for it. RegisterService(&AnalysisServiceDesc, impl) wires
// the server the same way a generated pb.RegisterAnalysisServiceServer call
// would.
var AnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: "mfa.v1.AnalysisService",
	HandlerType: (*AnalysisServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LoadCentralSystem", Handler: analysisServiceLoadCentralSystemHandler},
		{MethodName: "RunFBA", Handler: analysisServiceRunFBAHandler},
		{MethodName: "FindTightBounds", Handler: analysisServiceFindTightBoundsHandler},
		{MethodName: "RunMediaExperiments", Handler: analysisServiceRunMediaExperimentsHandler},
		{MethodName: "RunDeletionExperiments", Handler: analysisServiceRunDeletionExperimentsHandler},
		{MethodName: "GapFill", Handler: analysisServiceGapFillHandler},
		{MethodName: "GapGenerate", Handler: analysisServiceGapGenerateHandler},
		{MethodName: "MILPRecursive", Handler: analysisServiceMILPRecursiveHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/interfaces/grpc/services/analysis_service.go",
}

func analysisServiceLoadCentralSystemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoadCentralSystemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).LoadCentralSystem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/LoadCentralSystem"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).LoadCentralSystem(ctx, req.(*LoadCentralSystemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceRunFBAHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RunFBARequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).RunFBA(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/RunFBA"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).RunFBA(ctx, req.(*RunFBARequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceFindTightBoundsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FindTightBoundsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).FindTightBounds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/FindTightBounds"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).FindTightBounds(ctx, req.(*FindTightBoundsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceRunMediaExperimentsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RunMediaExperimentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).RunMediaExperiments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/RunMediaExperiments"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).RunMediaExperiments(ctx, req.(*RunMediaExperimentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceRunDeletionExperimentsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RunDeletionExperimentsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).RunDeletionExperiments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/RunDeletionExperiments"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).RunDeletionExperiments(ctx, req.(*RunDeletionExperimentsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceGapFillHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GapFillRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).GapFill(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/GapFill"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).GapFill(ctx, req.(*GapFillRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceGapGenerateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GapGenerateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).GapGenerate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/GapGenerate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).GapGenerate(ctx, req.(*GapGenerateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func analysisServiceMILPRecursiveHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(MILPRecursiveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*AnalysisServiceServer).MILPRecursive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/mfa.v1.AnalysisService/MILPRecursive"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*AnalysisServiceServer).MILPRecursive(ctx, req.(*MILPRecursiveRequest))
	}
	return interceptor(ctx, in, info, handler)
}
