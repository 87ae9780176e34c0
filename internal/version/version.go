package version

const (
	Major = "0"
	Minor = "1"
	Patch = "0"

	Package = "ledger-go-sdk"
)

const (
	Version     = Major + "." + Minor + "." + Patch
	FullVersion = Package + "/" + Version
)
