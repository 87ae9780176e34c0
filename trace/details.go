package trace

import (
	"sort"
	"strings"
)

type Detailer interface {
	Details() Details
}

var _ Detailer = Details(0)

// Details is a bitmask of event groups which a trace adapter reports.
type Details uint64

func (d Details) Details() Details {
	return d
}

func (d Details) String() string {
	ss := make([]string, 0)
	for bit, name := range detailsMap {
		if d&bit != 0 {
			ss = append(ss, name)
		}
	}
	sort.Strings(ss)

	return strings.Join(ss, "|")
}

const (
	PoolEvents Details = 1 << iota // for bitmask: 1, 2, 4, 8, 16, 32, ...
	RetryEvents
	SessionEvents
	TransactionEvents

	DetailsAll = ^Details(0)
)

var detailsMap = map[Details]string{
	PoolEvents:        "ledger.pool",
	RetryEvents:       "ledger.retry",
	SessionEvents:     "ledger.session",
	TransactionEvents: "ledger.transaction",
}
