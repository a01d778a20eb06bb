package utils

import (
	"encoding/hex"
)

// ConvertBytesToString returns the 0x prefixed hex encoding of b.
func ConvertBytesToString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
