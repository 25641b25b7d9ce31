// Package idgen derives short, human-typeable display ids for
// operator-facing tooling (CLI output, logs). The base36 encoding is
// the teacher's bd hash-id algorithm (internal/idgen's EncodeBase36),
// rehomed here from issue-title hashing to event/peer/fingerprint
// shortening — event-ids themselves remain full 32-byte BLAKE3 hashes
// (internal/types); this package only produces a shorter string for
// display.
package idgen

import (
	"math/big"
	"strings"

	"github.com/darkfi-go/eventgraph/internal/types"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// EncodeBase36 converts data to a base36 string of exactly length
// characters, left-padded with zeros or truncated to the least
// significant digits if data encodes to something longer.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}

	var result strings.Builder
	for i := len(chars) - 1; i >= 0; i-- {
		result.WriteByte(chars[i])
	}

	str := result.String()
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// ShortEvent returns an 8-character base36 display id for an event-id —
// short enough for a CLI table column, long enough that collisions
// among the tips/recent-events an operator is likely to see side by
// side are effectively impossible.
func ShortEvent(id types.ID) string {
	return EncodeBase36(id[:], 8)
}

// ShortFingerprint returns a 10-character base36 display id for a
// genesis-rotation fingerprint (internal/prune.Fingerprint's output).
// No command in cmd/evgraphd calls it.
func ShortFingerprint(fp []byte) string {
	return EncodeBase36(fp, 10)
}
