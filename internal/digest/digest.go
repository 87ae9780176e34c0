// Package digest implements the commit digest: a running hash accumulator over
// the statements and parameters of a transaction which the client and the
// ledger compute independently and compare at commit.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Digest is an immutable hash value. The zero Digest is the empty seed.
type Digest struct {
	v string
}

// FromBytes makes a Digest from raw hash bytes. The bytes are copied.
func FromBytes(b []byte) Digest {
	return Digest{v: string(b)}
}

func (d Digest) IsEmpty() bool {
	return len(d.v) == 0
}

// Bytes returns a copy of the hash bytes.
func (d Digest) Bytes() []byte {
	if d.IsEmpty() {
		return nil
	}

	return []byte(d.v)
}

// Equal reports whether d holds exactly the bytes b.
func (d Digest) Equal(b []byte) bool {
	return d.v == string(b)
}

func (d Digest) String() string {
	return hex.EncodeToString([]byte(d.v))
}

// Hasher is the hashing strategy used by the commit digest.
type Hasher func() hash.Hash

// SHA256 is the hashing strategy the ledger uses for commit digests.
var SHA256 Hasher = sha256.New

// Of returns the hash of data.
func (h Hasher) Of(data []byte) Digest {
	hh := h()
	_, _ = hh.Write(data)

	return Digest{v: string(hh.Sum(nil))}
}

// Join combines two digests into one independently of their order:
// the digests are sorted with Compare and the hash of their concatenation
// is returned. Joining with the empty digest is a no-op.
func (h Hasher) Join(a, b Digest) Digest {
	switch {
	case a.IsEmpty():
		return b
	case b.IsEmpty():
		return a
	}
	hh := h()
	if Compare(a, b) < 0 {
		_, _ = hh.Write([]byte(a.v))
		_, _ = hh.Write([]byte(b.v))
	} else {
		_, _ = hh.Write([]byte(b.v))
		_, _ = hh.Write([]byte(a.v))
	}

	return Digest{v: string(hh.Sum(nil))}
}

// Statement returns the digest of one statement execution: the hash of the
// statement joined pairwise with the hash of every parameter in call order.
func (h Hasher) Statement(statement []byte, params ...[]byte) Digest {
	d := h.Of(statement)
	for _, p := range params {
		d = h.Join(d, h.Of(p))
	}

	return d
}

// Compare orders digests as little-endian numbers of signed bytes: the last
// byte is the most significant one. Shorter digests sort first.
func Compare(a, b Digest) int {
	if len(a.v) != len(b.v) {
		if len(a.v) < len(b.v) {
			return -1
		}

		return 1
	}
	for i := len(a.v) - 1; i >= 0; i-- {
		x, y := int8(a.v[i]), int8(b.v[i])
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}

	return 0
}

// Accumulator is the running digest of a transaction. Every update replaces
// the held value, previously returned values are never modified.
type Accumulator struct {
	hasher Hasher
	value  Digest
}

// NewAccumulator seeds the running digest with the hash of seed.
func NewAccumulator(h Hasher, seed []byte) Accumulator {
	if h == nil {
		h = SHA256
	}

	return Accumulator{
		hasher: h,
		value:  h.Of(seed),
	}
}

// Add folds one statement execution into the running digest and returns the
// updated accumulator.
func (a Accumulator) Add(statement []byte, params ...[]byte) Accumulator {
	return Accumulator{
		hasher: a.hasher,
		value:  a.hasher.Join(a.value, a.hasher.Statement(statement, params...)),
	}
}

func (a Accumulator) Digest() Digest {
	return a.value
}

// Matches reports whether the digest returned by the ledger equals the
// locally computed one.
func (a Accumulator) Matches(remote []byte) bool {
	return bytes.Equal(a.value.Bytes(), remote)
}
