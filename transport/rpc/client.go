// Package rpc implements transport.Client over gRPC. Every session command is
// a google.protobuf.Struct envelope sent through a single unary method.
package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"google.golang.org/grpc"
	grpcCredentials "google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ledgerdb/ledger-go-sdk/credentials"
	"github.com/ledgerdb/ledger-go-sdk/internal/meta"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/transport"
)

var _ transport.Client = (*Client)(nil)

type Option func(c *Client)

// WithCredentials sets the source of the bearer token of every request.
func WithCredentials(creds credentials.Credentials) Option {
	return func(c *Client) {
		c.credentials = creds
	}
}

// WithCallOptions appends options to every call.
func WithCallOptions(opts ...grpc.CallOption) Option {
	return func(c *Client) {
		c.callOptions = append(c.callOptions, opts...)
	}
}

type Client struct {
	cc          grpc.ClientConnInterface
	closer      io.Closer
	credentials credentials.Credentials
	callOptions []grpc.CallOption
}

// New wraps an existing connection. The connection is not closed by Client.
func New(cc grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{
		cc:          cc,
		credentials: credentials.NewAnonymousCredentials(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Dial connects to endpoint. A nil tlsConfig means a plaintext connection.
func Dial(endpoint string, tlsConfig *tls.Config, opts []Option, dialOpts ...grpc.DialOption) (*Client, error) {
	var creds grpcCredentials.TransportCredentials
	if tlsConfig != nil {
		creds = grpcCredentials.NewTLS(tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	cc, err := grpc.NewClient(endpoint, append([]grpc.DialOption{grpc.WithTransportCredentials(creds)}, dialOpts...)...)
	if err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("dial %q: %w", endpoint, err))
	}

	c := New(cc, opts...)
	c.closer = cc

	return c, nil
}

func (c *Client) invoke(ctx context.Context, m *meta.Meta, sessionToken, command string, body map[string]any) (
	*structpb.Struct, error,
) {
	req, err := NewRequest(sessionToken, command, body)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	ctx, err = m.Context(ctx)
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	var resp structpb.Struct
	if err = c.cc.Invoke(ctx, Method, req, &resp, c.callOptions...); err != nil {
		return nil, xerrors.WithStackTrace(fromStatus(err))
	}

	return resp.GetFields()[command].GetStructValue(), nil
}

func (c *Client) StartSession(ctx context.Context, ledgerName string) (transport.Session, error) {
	m := meta.New(ledgerName, c.credentials)

	result, err := c.invoke(ctx, m, "", CommandStartSession, map[string]any{
		"ledgerName": ledgerName,
	})
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	fields := result.GetFields()
	s := &session{
		c:     c,
		meta:  m,
		token: fields["sessionToken"].GetStringValue(),
		id:    fields["sessionId"].GetStringValue(),
	}
	if s.token == "" {
		return nil, xerrors.WithStackTrace(fmt.Errorf("start session on %q: empty session token", ledgerName))
	}

	return s, nil
}

func (c *Client) Close(context.Context) error {
	if c.closer == nil {
		return nil
	}

	return xerrors.WithStackTrace(c.closer.Close())
}

type session struct {
	c     *Client
	meta  *meta.Meta
	token string
	id    string
}

func (s *session) ID() string {
	return s.id
}

func (s *session) send(ctx context.Context, command string, body map[string]any) (*structpb.Struct, error) {
	return s.c.invoke(ctx, s.meta, s.token, command, body)
}

func (s *session) StartTransaction(ctx context.Context) (string, error) {
	result, err := s.send(ctx, CommandStartTransaction, nil)
	if err != nil {
		return "", xerrors.WithStackTrace(err)
	}

	return result.GetFields()["transactionId"].GetStringValue(), nil
}

func (s *session) ExecuteStatement(ctx context.Context, txID, statement string, parameters [][]byte) (
	*transport.Page, error,
) {
	result, err := s.send(ctx, CommandExecuteStatement, map[string]any{
		"transactionId": txID,
		"statement":     statement,
		"parameters":    EncodeBytesList(parameters),
	})
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return DecodePage(result)
}

func (s *session) FetchPage(ctx context.Context, txID, pageToken string) (*transport.Page, error) {
	result, err := s.send(ctx, CommandFetchPage, map[string]any{
		"transactionId": txID,
		"nextPageToken": pageToken,
	})
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return DecodePage(result)
}

func (s *session) CommitTransaction(ctx context.Context, txID string, commitDigest []byte) ([]byte, error) {
	result, err := s.send(ctx, CommandCommitTransaction, map[string]any{
		"transactionId": txID,
		"commitDigest":  EncodeBytes(commitDigest),
	})
	if err != nil {
		return nil, xerrors.WithStackTrace(err)
	}

	return DecodeBytes(result.GetFields()["commitDigest"].GetStringValue())
}

func (s *session) AbortTransaction(ctx context.Context) error {
	_, err := s.send(ctx, CommandAbortTransaction, nil)

	return xerrors.WithStackTrace(err)
}

func (s *session) EndSession(ctx context.Context) error {
	_, err := s.send(ctx, CommandEndSession, nil)

	return xerrors.WithStackTrace(err)
}
