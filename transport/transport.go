// Package transport defines the boundary between the driver and the RPC layer
// which turns session commands into network calls.
package transport

import (
	"context"
)

// Client starts sessions on a ledger.
type Client interface {
	// StartSession opens a new session bound to the ledger.
	StartSession(ctx context.Context, ledgerName string) (Session, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// Session is a single RPC channel bound to a ledger. It is not safe for
// concurrent use: commands of one session are issued strictly one by one.
type Session interface {
	// ID returns the server-assigned session identifier.
	ID() string

	StartTransaction(ctx context.Context) (transactionID string, _ error)

	// ExecuteStatement runs statement with encoded parameters and returns the
	// first page of its result.
	ExecuteStatement(ctx context.Context, transactionID, statement string, parameters [][]byte) (*Page, error)

	FetchPage(ctx context.Context, transactionID, pageToken string) (*Page, error)

	// CommitTransaction sends the client commit digest and returns the digest
	// which the ledger computed over the statements it executed.
	CommitTransaction(ctx context.Context, transactionID string, commitDigest []byte) (serverDigest []byte, _ error)

	AbortTransaction(ctx context.Context) error

	EndSession(ctx context.Context) error
}

// Page is one chunk of a statement result.
type Page struct {
	// Values are encoded documents.
	Values [][]byte
	// NextPageToken is empty for the last page.
	NextPageToken string
	// ConsumedIOs and TimingInformation are optional increments reported for
	// the request which returned the page.
	ConsumedIOs       *IOUsage
	TimingInformation *TimingInformation
}

type IOUsage struct {
	ReadIOs  int64
	WriteIOs int64
}

type TimingInformation struct {
	ProcessingTimeMilliseconds int64
}
