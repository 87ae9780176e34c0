package session

import (
	"iter"
	"slices"

	"github.com/ledgerdb/ledger-go-sdk/txn"
)

var _ txn.BufferedResult = (*Buffered)(nil)

// Buffered is a statement result held in memory. It stays readable after the
// transaction is closed.
type Buffered struct {
	values  [][]byte
	index   int
	current []byte

	stats
}

func (b *Buffered) Next() bool {
	if b.index >= len(b.values) {
		b.current = nil

		return false
	}
	b.current = b.values[b.index]
	b.index++

	return true
}

func (b *Buffered) Value() []byte {
	return b.current
}

func (b *Buffered) Len() int {
	return len(b.values)
}

// Documents iterates over all documents independently of the cursor.
func (b *Buffered) Documents() iter.Seq[[]byte] {
	return slices.Values(b.values)
}
