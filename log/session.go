package log

import (
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdb/ledger-go-sdk/trace"
)

// Session makes trace.Session with logging events from details
//
//nolint:funlen
func Session(l *zap.Logger, d trace.Detailer) *trace.Session {
	sl := named(l, "session")
	tl := named(l, "transaction")

	return &trace.Session{
		OnCreate: func(info trace.SessionCreateStartInfo) func(trace.SessionCreateDoneInfo) {
			if d.Details()&trace.SessionEvents == 0 {
				return nil
			}
			ledger := info.Ledger
			start := time.Now()

			return func(info trace.SessionCreateDoneInfo) {
				if info.Error == nil {
					sl.Debug("created",
						zap.String("ledger", ledger),
						zap.String("id", info.SessionID),
						latency(start),
					)
				} else {
					sl.Error("create failed",
						zap.Error(info.Error),
						zap.String("ledger", ledger),
						latency(start),
					)
				}
			}
		},
		OnEnd: func(info trace.SessionEndStartInfo) func(trace.SessionEndDoneInfo) {
			if d.Details()&trace.SessionEvents == 0 {
				return nil
			}
			id := info.SessionID
			start := time.Now()

			return func(info trace.SessionEndDoneInfo) {
				if info.Error == nil {
					sl.Debug("ended",
						zap.String("id", id),
						latency(start),
					)
				} else {
					sl.Warn("end failed",
						zap.Error(info.Error),
						zap.String("id", id),
						latency(start),
					)
				}
			}
		},
		OnBegin: func(info trace.TransactionBeginStartInfo) func(trace.TransactionBeginDoneInfo) {
			if d.Details()&trace.TransactionEvents == 0 {
				return nil
			}
			sessionID := info.SessionID

			return func(info trace.TransactionBeginDoneInfo) {
				if info.Error == nil {
					tl.Debug("begin",
						zap.String("sessionID", sessionID),
						zap.String("id", info.TransactionID),
					)
				} else {
					tl.Warn("begin failed",
						zap.Error(info.Error),
						zap.String("sessionID", sessionID),
					)
				}
			}
		},
		OnExecute: func(info trace.TransactionExecuteStartInfo) func(trace.TransactionExecuteDoneInfo) {
			if d.Details()&trace.TransactionEvents == 0 {
				return nil
			}
			var (
				sessionID = info.SessionID
				id        = info.TransactionID
				statement = info.Statement
				start     = time.Now()
			)

			return func(info trace.TransactionExecuteDoneInfo) {
				if info.Error == nil {
					tl.Debug("execute done",
						zap.String("sessionID", sessionID),
						zap.String("id", id),
						zap.String("statement", statement),
						latency(start),
					)
				} else {
					tl.Warn("execute failed",
						zap.Error(info.Error),
						zap.String("sessionID", sessionID),
						zap.String("id", id),
						zap.String("statement", statement),
						latency(start),
					)
				}
			}
		},
		OnCommit: func(info trace.TransactionCommitStartInfo) func(trace.TransactionCommitDoneInfo) {
			if d.Details()&trace.TransactionEvents == 0 {
				return nil
			}
			sessionID := info.SessionID
			id := info.TransactionID
			start := time.Now()

			return func(info trace.TransactionCommitDoneInfo) {
				if info.Error == nil {
					tl.Debug("committed",
						zap.String("sessionID", sessionID),
						zap.String("id", id),
						latency(start),
					)
				} else {
					tl.Warn("commit failed",
						zap.Error(info.Error),
						zap.String("sessionID", sessionID),
						zap.String("id", id),
						latency(start),
					)
				}
			}
		},
		OnAbort: func(info trace.TransactionAbortStartInfo) func(trace.TransactionAbortDoneInfo) {
			if d.Details()&trace.TransactionEvents == 0 {
				return nil
			}
			sessionID := info.SessionID
			id := info.TransactionID

			return func(info trace.TransactionAbortDoneInfo) {
				if info.Error == nil {
					tl.Debug("aborted",
						zap.String("sessionID", sessionID),
						zap.String("id", id),
					)
				} else {
					tl.Warn("abort failed",
						zap.Error(info.Error),
						zap.String("sessionID", sessionID),
						zap.String("id", id),
					)
				}
			}
		},
	}
}
