// Package log turns trace hooks into structured zap logs.
//
//	l, _ := zap.NewProduction()
//	db, err := ledger.Open(ctx, dsn, ledger.WithLogger(l, trace.DetailsAll))
package log

import (
	"time"

	"go.uber.org/zap"
)

func latency(start time.Time) zap.Field {
	return zap.Duration("latency", time.Since(start))
}

func named(l *zap.Logger, names ...string) *zap.Logger {
	l = l.Named("ledger")
	for _, name := range names {
		l = l.Named(name)
	}

	return l
}
