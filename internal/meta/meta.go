package meta

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/ledgerdb/ledger-go-sdk/credentials"
	"github.com/ledgerdb/ledger-go-sdk/internal/version"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
)

func New(ledger string, credentials credentials.Credentials) *Meta {
	return &Meta{
		ledger:      ledger,
		credentials: credentials,
	}
}

// Meta is the metadata attached to every outgoing request.
type Meta struct {
	ledger      string
	credentials credentials.Credentials
}

func (m *Meta) Context(ctx context.Context) (context.Context, error) {
	pairs := []string{
		HeaderBuildInfo, version.FullVersion,
	}
	if m.ledger != "" {
		pairs = append(pairs, HeaderLedger, m.ledger)
	}
	if m.credentials != nil {
		token, err := m.credentials.Token(ctx)
		if err != nil {
			return ctx, xerrors.WithStackTrace(err)
		}
		if token != "" {
			pairs = append(pairs, HeaderAuthorization, "Bearer "+token)
		}
	}

	ctx, _, err := TraceID(ctx)
	if err != nil {
		return ctx, xerrors.WithStackTrace(err)
	}

	return metadata.AppendToOutgoingContext(ctx, pairs...), nil
}
