// Package domain holds the shared domain primitives. Types here enforce
// validity at parse time so services never carry raw strings around.
package domain

import (
	"fmt"
	"strings"
)

// Address identifies an account: an owner, an organization, or an end-user
// target of an attribute. Addresses are opaque 20-byte identifiers rendered
// as 0x-prefixed lowercase hex, matching the upstream jurisdiction registry.
type Address string

// ZeroAddress is the null account. It is never a valid owner, organization,
// or attribute target.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

const addressHexLen = 40

// ParseAddress validates and normalizes an address string.
// Accepts 0x-prefixed hex of exactly 40 digits; normalizes to lowercase.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", fmt.Errorf("address must be 0x-prefixed: %q", s)
	}
	digits := s[2:]
	if len(digits) != addressHexLen {
		return "", fmt.Errorf("address must contain %d hex digits, got %d", addressHexLen, len(digits))
	}
	for _, c := range digits {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("address contains non-hex digit %q", c)
		}
	}
	return Address("0x" + strings.ToLower(digits)), nil
}

// String returns the canonical form of the address.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset or the null account.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}
