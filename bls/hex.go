package bls

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/f3rmion/tau/group"
)

// EncodeHex returns the 0x-prefixed lowercase hex form of b.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex parses a hex string with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("bls: decode hex: %w", err)
	}
	return b, nil
}

// PointFromHex decodes a hex-encoded compressed point of group g.
// Wrong lengths, malformed hex and non-subgroup points are all errors.
func PointFromHex(g group.Group, s string) (group.Point, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return g.NewPoint().SetBytes(b)
}

// PointToHex returns the hex form of p's compressed encoding.
func PointToHex(p group.Point) string {
	return EncodeHex(p.Bytes())
}
