// Package digest provides the domain-separated BLAKE2b-256 hashing used by the
// time ledger and the publish gate.
//
// Every digest is computed as BLAKE2b-256(domain || 0x00 || field_1 || ... ),
// where each field is encoded as uvarint(len) followed by its bytes. Length
// prefixes make the encoding unambiguous without escaping.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"hash"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// Size is the length of a hex-encoded digest.
const Size = blake2b.Size256 * 2

// TimestampLayout is the canonical timestamp representation fed to hashes:
// UTC with fixed microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Builder accumulates length-prefixed fields under a domain tag.
type Builder struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

// New starts a digest for the given domain tag.
func New(domain string) *Builder {
	h, err := blake2b.New256(nil)
	if err != nil {
		// only returned for keys longer than 64 bytes
		panic(err)
	}
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	return &Builder{h: h}
}

// String appends a raw string field.
func (b *Builder) String(s string) *Builder {
	n := binary.PutUvarint(b.buf[:], uint64(len(s)))
	b.h.Write(b.buf[:n])
	b.h.Write([]byte(s))
	return b
}

// Identifier appends an identifier after NFC normalisation, so visually
// identical ids always hash the same.
func (b *Builder) Identifier(id string) *Builder {
	return b.String(norm.NFC.String(id))
}

// Time appends an instant in TimestampLayout.
func (b *Builder) Time(t time.Time) *Builder {
	return b.String(CanonicalTime(t))
}

// Bytes appends a raw byte field.
func (b *Builder) Bytes(p []byte) *Builder {
	n := binary.PutUvarint(b.buf[:], uint64(len(p)))
	b.h.Write(b.buf[:n])
	b.h.Write(p)
	return b
}

// Hex returns the lowercase hex digest.
func (b *Builder) Hex() string {
	return hex.EncodeToString(b.h.Sum(nil))
}

// CanonicalTime renders t in UTC at microsecond precision.
func CanonicalTime(t time.Time) string {
	return Truncate(t).Format(TimestampLayout)
}

// Truncate drops sub-microsecond precision and the monotonic reading, and
// converts to UTC. Postgres timestamptz keeps microseconds, so this is the
// precision that survives a round trip.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond).Round(0)
}
