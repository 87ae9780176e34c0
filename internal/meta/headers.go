package meta

const (
	HeaderLedger        = "x-ledger-name"
	HeaderTraceID       = "x-ledger-trace-id"
	HeaderBuildInfo     = "x-ledger-sdk-build-info"
	HeaderAuthorization = "authorization"
)
