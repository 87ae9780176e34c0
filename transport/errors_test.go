package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerErrorText(t *testing.T) {
	err := &ServerError{Code: CodeOccConflict, Message: "digest changed", RequestID: "req-1"}
	require.Equal(t, `ledger error: OccConflict: digest changed (requestID = "req-1")`, err.Error())
	require.Equal(t, "ledger error: Unknown", (&ServerError{}).Error())
}

func TestIsTransactionExpired(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  ServerError
		exp  bool
	}{
		{
			name: "StructuredCode",
			err:  ServerError{Code: CodeTransactionExpired},
			exp:  true,
		},
		{
			name: "MessageFallback",
			err:  ServerError{Code: CodeInvalidSession, Message: "Transaction 324weqr2 has expired"},
			exp:  true,
		},
		{
			name: "InvalidSession",
			err:  ServerError{Code: CodeInvalidSession, Message: "Session not found"},
			exp:  false,
		},
		{
			name: "MessageOnOtherCode",
			err:  ServerError{Code: CodeBadRequest, Message: "Transaction 324weqr2 has expired"},
			exp:  false,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.exp, tt.err.IsTransactionExpired())
		})
	}
}

func TestParseCode(t *testing.T) {
	for c := CodeUnknown; c <= CodeUnavailable; c++ {
		require.Equal(t, c, ParseCode(c.String()))
	}
	require.Equal(t, CodeOccConflict, ParseCode("OccConflictException"))
	require.Equal(t, CodeInvalidSession, ParseCode("invalidsession"))
	require.Equal(t, CodeUnknown, ParseCode("Whatever"))
	require.Equal(t, "Code(200)", Code(200).String())
}
