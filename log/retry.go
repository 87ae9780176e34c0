package log

import (
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdb/ledger-go-sdk/retry"
	"github.com/ledgerdb/ledger-go-sdk/trace"
)

// Retry makes trace.Retry with logging events from details
func Retry(l *zap.Logger, d trace.Detailer) *trace.Retry {
	ll := named(l, "retry")

	return &trace.Retry{
		OnRetry: func(info trace.RetryLoopStartInfo) func(trace.RetryLoopDoneInfo) {
			if d.Details()&trace.RetryEvents == 0 {
				return nil
			}
			label := info.Label
			ll.Debug("start", zap.String("label", label))
			start := time.Now()

			return func(info trace.RetryLoopDoneInfo) {
				if info.Error == nil {
					ll.Debug("done",
						zap.String("label", label),
						latency(start),
						zap.Int("attempts", info.Attempts),
					)
				} else {
					ll.Error("failed",
						zap.Error(info.Error),
						zap.String("label", label),
						latency(start),
						zap.Int("attempts", info.Attempts),
						zap.Bool("retryable", retry.Check(info.Error).MustRetry()),
					)
				}
			}
		},
		OnAttemptFailed: func(info trace.RetryAttemptInfo) {
			if d.Details()&trace.RetryEvents == 0 {
				return
			}
			ll.Warn("attempt failed",
				zap.Error(info.Error),
				zap.String("label", info.Label),
				zap.Int("attempt", info.Attempt),
				zap.String("recovery", info.Recovery),
				zap.Duration("delay", info.Delay),
			)
		},
	}
}
