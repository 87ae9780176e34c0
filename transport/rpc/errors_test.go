package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerdb/ledger-go-sdk/transport"
)

func TestFromStatus(t *testing.T) {
	withReason := func(code codes.Code, reason string) error {
		st, err := status.New(code, "boom").WithDetails(
			&errdetails.ErrorInfo{Domain: ErrorDomain, Reason: reason},
			&errdetails.RequestInfo{RequestId: "req-1"},
		)
		require.NoError(t, err)

		return st.Err()
	}

	for _, tt := range []struct {
		name string
		err  error
		code transport.Code
	}{
		{
			name: "Reason",
			err:  withReason(codes.FailedPrecondition, "InvalidSessionException"),
			code: transport.CodeInvalidSession,
		},
		{
			name: "ReasonOverridesCode",
			err:  withReason(codes.Unknown, "CapacityExceeded"),
			code: transport.CodeCapacityExceeded,
		},
		{
			name: "UnknownReason",
			err:  withReason(codes.Aborted, "Whatever"),
			code: transport.CodeOccConflict,
		},
		{
			name: "CodeOnly",
			err:  status.Error(codes.Unavailable, "boom"),
			code: transport.CodeUnavailable,
		},
		{
			name: "Unmapped",
			err:  status.Error(codes.Unimplemented, "boom"),
			code: transport.CodeUnknown,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var serverErr *transport.ServerError
			require.ErrorAs(t, fromStatus(tt.err), &serverErr)
			require.Equal(t, tt.code, serverErr.Code)
			require.Equal(t, "boom", serverErr.Message)
		})
	}

	t.Run("Context", func(t *testing.T) {
		require.ErrorIs(t, fromStatus(status.Error(codes.Canceled, "")), context.Canceled)
		require.ErrorIs(t, fromStatus(status.Error(codes.DeadlineExceeded, "")), context.DeadlineExceeded)
	})
	t.Run("NotStatus", func(t *testing.T) {
		err := errors.New("plain")
		require.Equal(t, err, fromStatus(err))
	})
}

func TestToStatusRoundTrip(t *testing.T) {
	for c := transport.CodeBadRequest; c <= transport.CodeUnavailable; c++ {
		t.Run(c.String(), func(t *testing.T) {
			err := ToStatus(&transport.ServerError{Code: c, Message: "m", RequestID: "r"}).Err()

			var serverErr *transport.ServerError
			require.ErrorAs(t, fromStatus(err), &serverErr)
			require.Equal(t, transport.ServerError{Code: c, Message: "m", RequestID: "r"}, *serverErr)
		})
	}
}
