package rpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sparsekv/smtkv/pkg/field"
	"github.com/sparsekv/smtkv/pkg/kverr"
	"github.com/sparsekv/smtkv/pkg/service"
	"github.com/sparsekv/smtkv/pkg/wire"
)

// authMetadataKey is the gRPC metadata key carrying the caller's contract
// id (spec §4.E priority 3).
const authMetadataKey = "x-auth-contract-id"

// Server adapts a service.Service onto a grpc.ServiceDesc (spec §6's
// "KvPair" service). It implements no generated interface: handlers are
// registered directly against methodHandler signatures, the same shape
// protoc-gen-go-grpc would emit.
type Server struct {
	svc *service.Service
}

// NewServer returns a Server wrapping svc.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// withAuthMetadata copies x-auth-contract-id, if present, into the context
// value pkg/service.resolveContract looks for.
func withAuthMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	vals := md.Get(authMetadataKey)
	if len(vals) == 0 {
		return ctx
	}
	return context.WithValue(ctx, service.AuthContractIDKey{}, []byte(vals[0]))
}

// toStatus maps the closed kverr taxonomy to gRPC status codes (spec §7
// "Propagation").
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch kverr.KindOf(err) {
	case kverr.InvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case kverr.Precondition:
		return status.Error(codes.FailedPrecondition, err.Error())
	case kverr.InconsistentData:
		return status.Error(codes.Internal, err.Error())
	case kverr.Backend:
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *Server) getRoot(ctx context.Context, req *wire.GetRootRequest) (*wire.GetRootResponse, error) {
	ctx = withAuthMetadata(ctx)
	root, err := s.svc.GetRoot(ctx, req.ContractID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.GetRootResponse{Root: wire.NodeFromRecord(root, nil)}, nil
}

func (s *Server) setRoot(ctx context.Context, req *wire.SetRootRequest) (*wire.SetRootResponse, error) {
	ctx = withAuthMetadata(ctx)
	if err := s.svc.SetRoot(ctx, req.ContractID, req.Index, req.Hash); err != nil {
		return nil, toStatus(err)
	}
	return &wire.SetRootResponse{}, nil
}

func (s *Server) getLeaf(ctx context.Context, req *wire.GetLeafRequest) (*wire.GetLeafResponse, error) {
	ctx = withAuthMetadata(ctx)
	leaf, proof, err := s.svc.GetLeaf(ctx, req.ContractID, req.Index, req.Hash, req.ProofType)
	if err != nil {
		return nil, toStatus(err)
	}
	wireProof, err := wire.ProofFromEngine(req.ProofType, proof)
	if err != nil {
		return nil, toStatus(kverr.Wrap(kverr.Internal, err, "encode proof"))
	}
	return &wire.GetLeafResponse{Leaf: wire.NodeFromRecord(leaf, nil), Proof: wireProof}, nil
}

func (s *Server) setLeaf(ctx context.Context, req *wire.SetLeafRequest) (*wire.SetLeafResponse, error) {
	ctx = withAuthMetadata(ctx)
	proof, err := s.svc.SetLeaf(ctx, req.ContractID, req.Index, req.Data, req.Hash, req.ProofType)
	if err != nil {
		return nil, toStatus(err)
	}
	wireProof, err := wire.ProofFromEngine(req.ProofType, proof)
	if err != nil {
		return nil, toStatus(kverr.Wrap(kverr.Internal, err, "encode proof"))
	}
	return &wire.SetLeafResponse{Proof: wireProof}, nil
}

func (s *Server) getNonLeaf(ctx context.Context, req *wire.GetNonLeafRequest) (*wire.GetNonLeafResponse, error) {
	ctx = withAuthMetadata(ctx)
	rec, err := s.svc.GetNonLeaf(ctx, req.ContractID, req.Index, req.Hash)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.GetNonLeafResponse{Node: wire.NodeFromRecord(rec, nil)}, nil
}

func (s *Server) setNonLeaf(ctx context.Context, req *wire.SetNonLeafRequest) (*wire.SetNonLeafResponse, error) {
	ctx = withAuthMetadata(ctx)
	if err := s.svc.SetNonLeaf(ctx, req.ContractID, req.Index, req.Left, req.Right); err != nil {
		return nil, toStatus(err)
	}
	return &wire.SetNonLeafResponse{}, nil
}

func (s *Server) poseidonHash(ctx context.Context, req *wire.PoseidonHashRequest) (*wire.PoseidonHashResponse, error) {
	h, err := s.svc.PoseidonHash(ctx, req.Elements)
	if err != nil {
		return nil, toStatus(err)
	}
	enc := field.Encode(h)
	return &wire.PoseidonHashResponse{Hash: enc[:]}, nil
}

// ServiceDesc is the grpc.ServiceDesc for the KvPair service (spec §6),
// built the same way protoc-gen-go-grpc would, but by hand since there is
// no protoc step in this build.
func (s *Server) ServiceDesc() *grpc.ServiceDesc {
	return &grpc.ServiceDesc{
		ServiceName: "smtkv.KvPair",
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "GetRoot", Handler: s.handleGetRoot},
			{MethodName: "SetRoot", Handler: s.handleSetRoot},
			{MethodName: "GetLeaf", Handler: s.handleGetLeaf},
			{MethodName: "SetLeaf", Handler: s.handleSetLeaf},
			{MethodName: "GetNonLeaf", Handler: s.handleGetNonLeaf},
			{MethodName: "SetNonLeaf", Handler: s.handleSetNonLeaf},
			{MethodName: "PoseidonHash", Handler: s.handlePoseidonHash},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "smtkv/kvpair.proto",
	}
}

func (s *Server) handleGetRoot(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.GetRootRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.getRoot(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/GetRoot"}
	handler := func(ctx context.Context, r any) (any, error) { return s.getRoot(ctx, r.(*wire.GetRootRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleSetRoot(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.SetRootRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.setRoot(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/SetRoot"}
	handler := func(ctx context.Context, r any) (any, error) { return s.setRoot(ctx, r.(*wire.SetRootRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleGetLeaf(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.GetLeafRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.getLeaf(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/GetLeaf"}
	handler := func(ctx context.Context, r any) (any, error) { return s.getLeaf(ctx, r.(*wire.GetLeafRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleSetLeaf(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.SetLeafRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.setLeaf(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/SetLeaf"}
	handler := func(ctx context.Context, r any) (any, error) { return s.setLeaf(ctx, r.(*wire.SetLeafRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleGetNonLeaf(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.GetNonLeafRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.getNonLeaf(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/GetNonLeaf"}
	handler := func(ctx context.Context, r any) (any, error) { return s.getNonLeaf(ctx, r.(*wire.GetNonLeafRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handleSetNonLeaf(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.SetNonLeafRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.setNonLeaf(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/SetNonLeaf"}
	handler := func(ctx context.Context, r any) (any, error) { return s.setNonLeaf(ctx, r.(*wire.SetNonLeafRequest)) }
	return interceptor(ctx, req, info, handler)
}

func (s *Server) handlePoseidonHash(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wire.PoseidonHashRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return s.poseidonHash(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: s, FullMethod: "/smtkv.KvPair/PoseidonHash"}
	handler := func(ctx context.Context, r any) (any, error) { return s.poseidonHash(ctx, r.(*wire.PoseidonHashRequest)) }
	return interceptor(ctx, req, info, handler)
}

// Register attaches the KvPair service to gs using the smtkv-binary codec.
func Register(gs *grpc.Server, svc *service.Service) {
	gs.RegisterService(NewServer(svc).ServiceDesc(), nil)
}
