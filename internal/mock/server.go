package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ledgerdb/ledger-go-sdk/transport"
	"github.com/ledgerdb/ledger-go-sdk/transport/rpc"
)

// Server serves a Ledger over the gRPC envelope of package rpc.
type Server struct {
	ledger *Ledger

	mu       sync.Mutex
	sessions map[string]transport.Session
	metadata []metadata.MD
}

// NewServer returns a grpc server with the ledger registered as the handler
// of every method.
func NewServer(l *Ledger, opts ...grpc.ServerOption) (*grpc.Server, *Server) {
	s := &Server{
		ledger:   l,
		sessions: make(map[string]transport.Session),
	}

	return grpc.NewServer(append(opts, grpc.UnknownServiceHandler(s.handle))...), s
}

// Metadata returns incoming metadata of every request in order.
func (s *Server) Metadata() []metadata.MD {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]metadata.MD(nil), s.metadata...)
}

func (s *Server) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	if method != rpc.Method {
		return status.Errorf(codes.Unimplemented, "unknown method %q", method)
	}

	var req structpb.Struct
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}

	md, _ := metadata.FromIncomingContext(stream.Context())
	s.mu.Lock()
	s.metadata = append(s.metadata, md)
	s.mu.Unlock()

	name, body, token, err := rpc.Command(&req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.dispatch(stream.Context(), name, body, token)
	if err != nil {
		return rpc.ToStatus(err).Err()
	}

	resp, err := structpb.NewStruct(map[string]any{name: result})
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	return stream.SendMsg(resp)
}

func (s *Server) session(token string) (transport.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cs, has := s.sessions[token]; has {
		return cs, nil
	}

	return nil, &transport.ServerError{
		Code:    transport.CodeInvalidSession,
		Message: fmt.Sprintf("session token %q not found", token),
	}
}

func (s *Server) dispatch(ctx context.Context, name string, body *structpb.Struct, token string) (
	map[string]any, error,
) {
	fields := body.GetFields()

	if name == rpc.CommandStartSession {
		cs, err := s.ledger.StartSession(ctx, fields["ledgerName"].GetStringValue())
		if err != nil {
			return nil, err
		}
		token := uuid.NewString()
		s.mu.Lock()
		s.sessions[token] = cs
		s.mu.Unlock()

		return map[string]any{"sessionToken": token, "sessionId": cs.ID()}, nil
	}

	cs, err := s.session(token)
	if err != nil {
		return nil, err
	}
	txID := fields["transactionId"].GetStringValue()

	switch name {
	case rpc.CommandStartTransaction:
		id, err := cs.StartTransaction(ctx)
		if err != nil {
			return nil, err
		}

		return map[string]any{"transactionId": id}, nil
	case rpc.CommandExecuteStatement:
		params, err := rpc.DecodeBytesList(fields["parameters"].GetListValue())
		if err != nil {
			return nil, &transport.ServerError{Code: transport.CodeBadRequest, Message: err.Error()}
		}
		page, err := cs.ExecuteStatement(ctx, txID, fields["statement"].GetStringValue(), params)
		if err != nil {
			return nil, err
		}

		return rpc.EncodePage(page), nil
	case rpc.CommandFetchPage:
		page, err := cs.FetchPage(ctx, txID, fields["nextPageToken"].GetStringValue())
		if err != nil {
			return nil, err
		}

		return rpc.EncodePage(page), nil
	case rpc.CommandCommitTransaction:
		clientDigest, err := rpc.DecodeBytes(fields["commitDigest"].GetStringValue())
		if err != nil {
			return nil, &transport.ServerError{Code: transport.CodeBadRequest, Message: err.Error()}
		}
		serverDigest, err := cs.CommitTransaction(ctx, txID, clientDigest)
		if err != nil {
			return nil, err
		}

		return map[string]any{"transactionId": txID, "commitDigest": rpc.EncodeBytes(serverDigest)}, nil
	case rpc.CommandAbortTransaction:
		return map[string]any{}, cs.AbortTransaction(ctx)
	case rpc.CommandEndSession:
		if err := cs.EndSession(ctx); err != nil {
			return nil, err
		}
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()

		return map[string]any{}, nil
	default:
		return nil, &transport.ServerError{
			Code:    transport.CodeBadRequest,
			Message: fmt.Sprintf("unknown command %q", name),
		}
	}
}
