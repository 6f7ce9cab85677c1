// Package gameid generates round identifiers for replays: UUIDv7 values
// rendered as 26-character Crockford base32 strings that sort by time.
package gameid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID
const Length = 26

// Generate returns a new time-ordered round ID
func Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system entropy source does.
		id = uuid.New()
	}
	return Encode(id)
}

// Encode renders a UUID as a 26-character base32 string. 128 bits are
// emitted in 5-bit groups, the last group padded with two zero bits.
func Encode(id uuid.UUID) string {
	out := make([]byte, Length)
	for i := range Length {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var v uint8
		if bitIndex <= 3 {
			v = (id[byteIndex] >> (3 - bitIndex)) & 0x1f
		} else {
			v = (id[byteIndex] << (bitIndex - 3)) & 0x1f
			if byteIndex+1 < len(id) {
				v |= id[byteIndex+1] >> (11 - bitIndex)
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate checks that id is a well-formed encoded ID
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("round ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
