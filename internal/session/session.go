package session

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ledgerdb/ledger-go-sdk/internal/config"
	"github.com/ledgerdb/ledger-go-sdk/internal/xerrors"
	"github.com/ledgerdb/ledger-go-sdk/trace"
	"github.com/ledgerdb/ledger-go-sdk/transport"
)

type status uint32

const (
	statusUnknown = status(iota)
	statusReady
	statusDead
	statusClosing
	statusClosed
)

func (s status) String() string {
	switch s {
	case statusUnknown:
		return "Unknown"
	case statusReady:
		return "Ready"
	case statusDead:
		return "Dead"
	case statusClosing:
		return "Closing"
	case statusClosed:
		return "Closed"
	default:
		return fmt.Sprintf("unknown_%d", s)
	}
}

// Session is a pooled channel to the ledger. It is owned either by the pool
// or by exactly one caller and runs at most one transaction at a time.
type Session struct {
	id     string
	ledger string
	core   transport.Session
	cfg    *config.Config

	status atomic.Uint32
	txOpen atomic.Bool
}

// Create starts a new session on the configured ledger.
func Create(ctx context.Context, client transport.Client, cfg *config.Config) (_ *Session, finalErr error) {
	var sessionID string
	onDone := trace.SessionOnCreate(cfg.SessionTrace(), &ctx, cfg.Ledger())
	defer func() {
		onDone(sessionID, finalErr)
	}()

	core, err := client.StartSession(ctx, cfg.Ledger())
	if err != nil {
		return nil, xerrors.WithStackTrace(fmt.Errorf("start session on ledger %q: %w", cfg.Ledger(), err))
	}
	sessionID = core.ID()

	return newSession(core, cfg), nil
}

func newSession(core transport.Session, cfg *config.Config) *Session {
	s := &Session{
		id:     core.ID(),
		ledger: cfg.Ledger(),
		core:   core,
		cfg:    cfg,
	}
	s.setStatus(statusReady)

	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Ledger() string {
	return s.ledger
}

func (s *Session) Status() string {
	return status(s.status.Load()).String()
}

func (s *Session) setStatus(st status) {
	s.status.Store(uint32(st))
}

// IsAlive reports whether the session may be reused by the pool.
func (s *Session) IsAlive() bool {
	return status(s.status.Load()) == statusReady
}

// Close ends the session on the ledger. Dead sessions are dropped without
// the end session command.
func (s *Session) Close(ctx context.Context) (finalErr error) {
	prev := status(s.status.Swap(uint32(statusClosing)))
	switch prev {
	case statusClosing, statusClosed:
		s.setStatus(prev)

		return nil
	case statusDead:
		s.setStatus(statusClosed)

		return nil
	}
	defer s.setStatus(statusClosed)

	onDone := trace.SessionOnEnd(s.cfg.SessionTrace(), &ctx, s.id)
	defer func() {
		onDone(finalErr)
	}()

	if d := s.cfg.EndSessionTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	if err := s.core.EndSession(ctx); err != nil {
		return xerrors.WithStackTrace(err)
	}

	return nil
}

// Begin starts a transaction. Only one transaction may be open at a time.
func (s *Session) Begin(ctx context.Context) (_ *Transaction, finalErr error) {
	if !s.IsAlive() {
		return nil, xerrors.WithStackTrace(fmt.Errorf("%w: %s is %s", ErrSessionClosed, s.id, s.Status()))
	}
	if !s.txOpen.CompareAndSwap(false, true) {
		return nil, xerrors.WithStackTrace(ErrTransactionAlreadyOpen)
	}

	var txID string
	onDone := trace.SessionOnBegin(s.cfg.SessionTrace(), &ctx, s.id)
	defer func() {
		onDone(txID, finalErr)
	}()

	txID, err := s.core.StartTransaction(ctx)
	if err != nil {
		s.txOpen.Store(false)

		return nil, xerrors.WithStackTrace(err)
	}

	tx, err := newTransaction(txID, s)
	if err != nil {
		s.txOpen.Store(false)

		return nil, xerrors.WithStackTrace(err)
	}

	return tx, nil
}

func (s *Session) abort(ctx context.Context, txID string) (finalErr error) {
	onDone := trace.SessionOnAbort(s.cfg.SessionTrace(), &ctx, s.id, txID)
	defer func() {
		onDone(finalErr)
	}()

	if err := s.core.AbortTransaction(ctx); err != nil {
		if invalidatesSession(err) {
			s.setStatus(statusDead)
		}

		return xerrors.WithStackTrace(err)
	}

	return nil
}

// Outcome is the result of a unit of work which did not fail. Aborted is set
// when the unit of work aborted its transaction itself.
type Outcome struct {
	Value   any
	Aborted bool
}

// Execute runs fn inside a new transaction and commits it. Failures are
// classified for the retry loop.
func (s *Session) Execute(ctx context.Context, fn func(ctx context.Context, tx *Transaction) (any, error)) (
	_ Outcome, finalErr error,
) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return Outcome{}, s.classify(ctx, nil, err)
	}

	v, err := fn(ctx, tx)
	if tx.abortedByCaller.Load() {
		if err != nil {
			return Outcome{}, xerrors.WithStackTrace(err)
		}

		return Outcome{Aborted: true}, nil
	}
	if err != nil {
		return Outcome{}, s.classify(ctx, tx, err)
	}

	if stream, ok := v.(*Stream); ok {
		v, err = stream.Buffer(ctx)
		if err != nil {
			return Outcome{}, s.classify(ctx, tx, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return Outcome{}, s.classify(ctx, tx, err)
	}

	return Outcome{Value: v}, nil
}
