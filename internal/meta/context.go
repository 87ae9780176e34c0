package meta

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// WithTraceID returns a copy of parent context with traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, HeaderTraceID, traceID)
}

func traceID(ctx context.Context) (string, bool) {
	if md, has := metadata.FromOutgoingContext(ctx); has {
		if ids := md.Get(HeaderTraceID); len(ids) > 0 {
			return ids[0], true
		}
	}

	return "", false
}
