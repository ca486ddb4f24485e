package types

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// AddressLength is the byte length of a ledger address.
const AddressLength = 20

var errInvalidAddress = errors.New("types: invalid address")

// ParseAddress decodes a 0x-prefixed 40-character hex address.
func ParseAddress(s string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return out, fmt.Errorf("%w: missing 0x prefix", errInvalidAddress)
	}
	raw, err := hex.DecodeString(trimmed[2:])
	if err != nil {
		return out, fmt.Errorf("%w: %v", errInvalidAddress, err)
	}
	if len(raw) != AddressLength {
		return out, fmt.Errorf("%w: expected %d bytes, got %d", errInvalidAddress, AddressLength, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// FormatAddress renders an address as 0x-prefixed lowercase hex.
func FormatAddress(addr [AddressLength]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// IsZeroAddress reports whether the address is the all-zero sentinel.
func IsZeroAddress(addr [AddressLength]byte) bool {
	var zero [AddressLength]byte
	return addr == zero
}
