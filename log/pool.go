package log

import (
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdb/ledger-go-sdk/trace"
)

// Pool makes trace.Pool with logging events from details
func Pool(l *zap.Logger, d trace.Detailer) *trace.Pool {
	ll := named(l, "pool")

	return &trace.Pool{
		OnGet: func(info trace.PoolGetStartInfo) func(trace.PoolGetDoneInfo) {
			if d.Details()&trace.PoolEvents == 0 {
				return nil
			}
			start := time.Now()

			return func(info trace.PoolGetDoneInfo) {
				if info.Error == nil {
					ll.Debug("get done",
						latency(start),
						zap.Bool("waited", info.Waited),
					)
				} else {
					ll.Warn("get failed",
						zap.Error(info.Error),
						latency(start),
						zap.Bool("waited", info.Waited),
					)
				}
			}
		},
		OnPut: func(info trace.PoolPutStartInfo) func(trace.PoolPutDoneInfo) {
			if d.Details()&trace.PoolEvents == 0 {
				return nil
			}
			alive := info.Alive

			return func(info trace.PoolPutDoneInfo) {
				if info.Error == nil {
					ll.Debug("put done")
				} else {
					ll.Debug("session dropped",
						zap.Error(info.Error),
						zap.Bool("alive", alive),
					)
				}
			}
		},
		OnClose: func(info trace.PoolCloseStartInfo) func(trace.PoolCloseDoneInfo) {
			if d.Details()&trace.PoolEvents == 0 {
				return nil
			}
			ll.Info("closing")
			start := time.Now()

			return func(info trace.PoolCloseDoneInfo) {
				if info.Error == nil {
					ll.Info("closed", latency(start))
				} else {
					ll.Warn("close failed",
						zap.Error(info.Error),
						latency(start),
					)
				}
			}
		},
		OnChange: func(info trace.PoolChangeInfo) {
			if d.Details()&trace.PoolEvents == 0 {
				return
			}
			ll.Debug("change",
				zap.Int("limit", info.Limit),
				zap.Int("idle", info.Idle),
				zap.Int("inUse", info.InUse),
			)
		},
	}
}
