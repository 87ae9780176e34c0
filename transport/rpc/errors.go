package rpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ledgerdb/ledger-go-sdk/transport"
)

// ErrorDomain is the domain of errdetails.ErrorInfo which carries the code of
// a ledger failure.
const ErrorDomain = "ledger"

var grpcCodes = map[codes.Code]transport.Code{
	codes.InvalidArgument:    transport.CodeBadRequest,
	codes.FailedPrecondition: transport.CodeBadRequest,
	codes.NotFound:           transport.CodeBadRequest,
	codes.AlreadyExists:      transport.CodeBadRequest,
	codes.PermissionDenied:   transport.CodeBadRequest,
	codes.Unauthenticated:    transport.CodeBadRequest,
	codes.Aborted:            transport.CodeOccConflict,
	codes.ResourceExhausted:  transport.CodeRateExceeded,
	codes.OutOfRange:         transport.CodeLimitExceeded,
	codes.Unavailable:        transport.CodeUnavailable,
	codes.Internal:           transport.CodeInternal,
	codes.Unknown:            transport.CodeInternal,
	codes.DataLoss:           transport.CodeInternal,
}

var statusCodes = map[transport.Code]codes.Code{
	transport.CodeBadRequest:         codes.InvalidArgument,
	transport.CodeInvalidSession:     codes.FailedPrecondition,
	transport.CodeTransactionExpired: codes.FailedPrecondition,
	transport.CodeOccConflict:        codes.Aborted,
	transport.CodeCapacityExceeded:   codes.ResourceExhausted,
	transport.CodeRateExceeded:       codes.ResourceExhausted,
	transport.CodeLimitExceeded:      codes.OutOfRange,
	transport.CodeInternal:           codes.Internal,
	transport.CodeUnavailable:        codes.Unavailable,
}

// fromStatus maps a failed call into *transport.ServerError. The reason of
// errdetails.ErrorInfo is authoritative, the grpc code is a fallback.
// Cancellation is reported as the context error.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		return errors.Join(context.Canceled, err)
	case codes.DeadlineExceeded:
		return errors.Join(context.DeadlineExceeded, err)
	}

	serverErr := &transport.ServerError{
		Code:    grpcCodes[st.Code()],
		Message: st.Message(),
	}
	for _, d := range st.Details() {
		switch detail := d.(type) {
		case *errdetails.ErrorInfo:
			if detail.GetDomain() != ErrorDomain {
				continue
			}
			if code := transport.ParseCode(detail.GetReason()); code != transport.CodeUnknown {
				serverErr.Code = code
			}
		case *errdetails.RequestInfo:
			serverErr.RequestID = detail.GetRequestId()
		}
	}

	return serverErr
}

// ToStatus is the reverse of the client mapping and is used by servers of
// the protocol.
func ToStatus(err error) *status.Status {
	var serverErr *transport.ServerError
	if !errors.As(err, &serverErr) {
		return status.New(codes.Unknown, err.Error())
	}

	code, has := statusCodes[serverErr.Code]
	if !has {
		code = codes.Unknown
	}

	st, detailsErr := status.New(code, serverErr.Message).WithDetails(
		&errdetails.ErrorInfo{
			Domain: ErrorDomain,
			Reason: serverErr.Code.String() + "Exception",
		},
		&errdetails.RequestInfo{
			RequestId: serverErr.RequestID,
		},
	)
	if detailsErr != nil {
		return status.New(code, serverErr.Message)
	}

	return st
}
