package bv

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeHex renders a 64-bit value as unpadded lowercase hex without
// a leading "0x".
func EncodeHex(v uint64) string {
	return strconv.FormatUint(v, 16)
}

// EncodeHexPrefixed renders a value with the "0x" prefix, the form
// the oracle client sends as request arguments and the oracle uses in
// its own responses.
func EncodeHexPrefixed(v uint64) string {
	return "0x" + EncodeHex(v)
}

// DecodeHex parses the oracle's ASCII hex interchange format, which
// requires a leading "0x". A malformed payload here is a protocol
// error, so the
// caller is expected to treat a non-nil error as fatal rather than
// retry.
func DecodeHex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("bv: hex value %q missing 0x prefix", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bv: invalid hex value %q: %w", s, err)
	}
	return v, nil
}
