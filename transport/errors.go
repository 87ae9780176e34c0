package transport

import (
	"fmt"
	"regexp"
	"strings"
)

// Code is a structured failure kind reported by the ledger.
type Code uint8

const (
	CodeUnknown = Code(iota)
	CodeBadRequest
	CodeInvalidSession
	CodeTransactionExpired
	CodeOccConflict
	CodeCapacityExceeded
	CodeRateExceeded
	CodeLimitExceeded
	CodeInternal
	CodeUnavailable
)

var codeNames = [...]string{
	CodeUnknown:            "Unknown",
	CodeBadRequest:         "BadRequest",
	CodeInvalidSession:     "InvalidSession",
	CodeTransactionExpired: "TransactionExpired",
	CodeOccConflict:        "OccConflict",
	CodeCapacityExceeded:   "CapacityExceeded",
	CodeRateExceeded:       "RateExceeded",
	CodeLimitExceeded:      "LimitExceeded",
	CodeInternal:           "Internal",
	CodeUnavailable:        "Unavailable",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}

	return fmt.Sprintf("Code(%d)", uint8(c))
}

// ParseCode maps a code name (as produced by Code.String, with or without the
// "Exception" suffix) back to the Code.
func ParseCode(name string) Code {
	name = strings.TrimSuffix(name, "Exception")
	for c, n := range codeNames {
		if strings.EqualFold(n, name) {
			return Code(c)
		}
	}

	return CodeUnknown
}

// ServerError is a failure reported by the ledger for a command.
type ServerError struct {
	Code      Code
	Message   string
	RequestID string
}

func (e *ServerError) Error() string {
	var b strings.Builder
	b.WriteString("ledger error: ")
	b.WriteString(e.Code.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, " (requestID = %q)", e.RequestID)
	}

	return b.String()
}

// transactionExpiredMessage matches servers which report transaction expiry
// only as the message of an invalid session failure.
var transactionExpiredMessage = regexp.MustCompile(`Transaction\s.*\shas\sexpired`)

// IsTransactionExpired reports whether the failure means that the transaction
// ran out of its lifetime. A structured CodeTransactionExpired is authoritative,
// the message check is a fallback for servers without it.
func (e *ServerError) IsTransactionExpired() bool {
	switch e.Code {
	case CodeTransactionExpired:
		return true
	case CodeInvalidSession:
		return transactionExpiredMessage.MatchString(e.Message)
	default:
		return false
	}
}
