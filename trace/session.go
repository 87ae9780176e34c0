package trace

import (
	"context"
)

type (
	// Session contains hooks of session and transaction lifecycle
	Session struct {
		OnCreate  func(SessionCreateStartInfo) func(SessionCreateDoneInfo)
		OnEnd     func(SessionEndStartInfo) func(SessionEndDoneInfo)
		OnBegin   func(TransactionBeginStartInfo) func(TransactionBeginDoneInfo)
		OnExecute func(TransactionExecuteStartInfo) func(TransactionExecuteDoneInfo)
		OnCommit  func(TransactionCommitStartInfo) func(TransactionCommitDoneInfo)
		OnAbort   func(TransactionAbortStartInfo) func(TransactionAbortDoneInfo)
	}
	SessionCreateStartInfo struct {
		Context *context.Context
		Ledger  string
	}
	SessionCreateDoneInfo struct {
		SessionID string
		Error     error
	}
	SessionEndStartInfo struct {
		Context   *context.Context
		SessionID string
	}
	SessionEndDoneInfo struct {
		Error error
	}
	TransactionBeginStartInfo struct {
		Context   *context.Context
		SessionID string
	}
	TransactionBeginDoneInfo struct {
		TransactionID string
		Error         error
	}
	TransactionExecuteStartInfo struct {
		Context       *context.Context
		SessionID     string
		TransactionID string
		Statement     string
	}
	TransactionExecuteDoneInfo struct {
		Error error
	}
	TransactionCommitStartInfo struct {
		Context       *context.Context
		SessionID     string
		TransactionID string
	}
	TransactionCommitDoneInfo struct {
		Error error
	}
	TransactionAbortStartInfo struct {
		Context       *context.Context
		SessionID     string
		TransactionID string
	}
	TransactionAbortDoneInfo struct {
		Error error
	}
)

// Compose returns a new Session which has functional fields composed both from t and x.
func (t *Session) Compose(x *Session) *Session {
	if t == nil {
		return x
	}
	if x == nil {
		return t
	}

	return &Session{
		OnCreate:  composeStartDone(t.OnCreate, x.OnCreate),
		OnEnd:     composeStartDone(t.OnEnd, x.OnEnd),
		OnBegin:   composeStartDone(t.OnBegin, x.OnBegin),
		OnExecute: composeStartDone(t.OnExecute, x.OnExecute),
		OnCommit:  composeStartDone(t.OnCommit, x.OnCommit),
		OnAbort:   composeStartDone(t.OnAbort, x.OnAbort),
	}
}

func SessionOnCreate(t *Session, c *context.Context, ledger string) func(sessionID string, err error) {
	var onDone func(SessionCreateDoneInfo)
	if t != nil && t.OnCreate != nil {
		onDone = t.OnCreate(SessionCreateStartInfo{Context: c, Ledger: ledger})
	}

	return func(sessionID string, err error) {
		if onDone != nil {
			onDone(SessionCreateDoneInfo{SessionID: sessionID, Error: err})
		}
	}
}

func SessionOnEnd(t *Session, c *context.Context, sessionID string) func(err error) {
	var onDone func(SessionEndDoneInfo)
	if t != nil && t.OnEnd != nil {
		onDone = t.OnEnd(SessionEndStartInfo{Context: c, SessionID: sessionID})
	}

	return func(err error) {
		if onDone != nil {
			onDone(SessionEndDoneInfo{Error: err})
		}
	}
}

func SessionOnBegin(t *Session, c *context.Context, sessionID string) func(txID string, err error) {
	var onDone func(TransactionBeginDoneInfo)
	if t != nil && t.OnBegin != nil {
		onDone = t.OnBegin(TransactionBeginStartInfo{Context: c, SessionID: sessionID})
	}

	return func(txID string, err error) {
		if onDone != nil {
			onDone(TransactionBeginDoneInfo{TransactionID: txID, Error: err})
		}
	}
}

func SessionOnExecute(t *Session, c *context.Context, sessionID, txID, statement string) func(err error) {
	var onDone func(TransactionExecuteDoneInfo)
	if t != nil && t.OnExecute != nil {
		onDone = t.OnExecute(TransactionExecuteStartInfo{
			Context:       c,
			SessionID:     sessionID,
			TransactionID: txID,
			Statement:     statement,
		})
	}

	return func(err error) {
		if onDone != nil {
			onDone(TransactionExecuteDoneInfo{Error: err})
		}
	}
}

func SessionOnCommit(t *Session, c *context.Context, sessionID, txID string) func(err error) {
	var onDone func(TransactionCommitDoneInfo)
	if t != nil && t.OnCommit != nil {
		onDone = t.OnCommit(TransactionCommitStartInfo{Context: c, SessionID: sessionID, TransactionID: txID})
	}

	return func(err error) {
		if onDone != nil {
			onDone(TransactionCommitDoneInfo{Error: err})
		}
	}
}

func SessionOnAbort(t *Session, c *context.Context, sessionID, txID string) func(err error) {
	var onDone func(TransactionAbortDoneInfo)
	if t != nil && t.OnAbort != nil {
		onDone = t.OnAbort(TransactionAbortStartInfo{Context: c, SessionID: sessionID, TransactionID: txID})
	}

	return func(err error) {
		if onDone != nil {
			onDone(TransactionAbortDoneInfo{Error: err})
		}
	}
}
