package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Hex is a "0x"-prefixed hexadecimal quantity as returned by JSON-RPC nodes
// (e.g. "0x1a"). Values may exceed 64 bits, so the canonical decoded form is a
// big.Int. It validates on construction and on JSON unmarshaling.
type Hex string

// validateHex checks whether a string is a "0x"-prefixed hexadecimal quantity
// of any width.
func validateHex(s string) error {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return fmt.Errorf("hex string must start with 0x")
	}

	if _, ok := new(big.Int).SetString(s[2:], 16); !ok {
		return fmt.Errorf("invalid hexadecimal value %q", s)
	}

	return nil
}

// MarshalJSON encodes the Hex as a JSON string.
func (h Hex) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(h))
}

// UnmarshalJSON parses and validates a JSON-encoded hexadecimal string.
func (h *Hex) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid hex string: %w", err)
	}

	if err := validateHex(s); err != nil {
		return err
	}

	*h = Hex(s)
	return nil
}

// BigInt returns the decoded quantity. If the value is invalid it returns
// zero, matching the behavior of a missing field.
func (h Hex) BigInt() *big.Int {
	if len(h) < 2 {
		return new(big.Int)
	}

	v, ok := new(big.Int).SetString(string(h)[2:], 16)
	if !ok {
		return new(big.Int)
	}
	return v
}
