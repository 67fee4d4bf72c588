// Package zcash validates destination address formats for the bridge.
// Only format checks happen here; whether an address can actually receive
// funds is the settlement network's concern.
package zcash

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

var (
	ErrEmptyAddress   = errors.New("empty address")
	ErrUnknownFormat  = errors.New("unknown zcash address format")
	ErrInvalidAddress = errors.New("invalid zcash address")
)

// bech32 data charset, shared by sapling (bech32) and unified (bech32m)
// encodings.
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// saplingAddressLen is the full length of a mainnet sapling address
// ("zs1" + 75 data characters).
const saplingAddressLen = 78

// minUnifiedAddressLen is a lower bound on mainnet unified addresses; the
// shortest valid encoding (single orchard receiver) is far longer than this.
const minUnifiedAddressLen = 48

// Mainnet version bytes for transparent addresses.
var (
	p2pkhPrefix = []byte{0x1c, 0xb8} // t1
	p2shPrefix  = []byte{0x1c, 0xbd} // t3
)

// ValidateAddress checks that addr is a well-formed mainnet Zcash address:
// unified (u1), sapling shielded (zs1), or transparent (t1/t3).
func ValidateAddress(addr string) error {
	if addr == "" {
		return ErrEmptyAddress
	}

	switch {
	case strings.HasPrefix(addr, "u1"), strings.HasPrefix(addr, "U1"):
		return validateUnified(addr)
	case strings.HasPrefix(addr, "zs1"), strings.HasPrefix(addr, "ZS1"):
		return validateSapling(addr)
	case strings.HasPrefix(addr, "t1"), strings.HasPrefix(addr, "t3"):
		return validateTransparent(addr)
	}
	return ErrUnknownFormat
}

// IsShielded reports whether addr is a shielded (unified or sapling)
// address. It does not imply the address is valid.
func IsShielded(addr string) bool {
	return strings.HasPrefix(addr, "u1") || strings.HasPrefix(addr, "zs1")
}

func validateUnified(addr string) error {
	if len(addr) < minUnifiedAddressLen {
		return fmt.Errorf("%w: unified address too short", ErrInvalidAddress)
	}
	return checkBech32Data(addr, 2)
}

func validateSapling(addr string) error {
	if len(addr) != saplingAddressLen {
		return fmt.Errorf("%w: sapling address must be %d characters, got %d",
			ErrInvalidAddress, saplingAddressLen, len(addr))
	}
	return checkBech32Data(addr, 3)
}

// checkBech32Data verifies case uniformity and the data-part charset.
// Full checksum verification is left to the settlement network; malformed
// input is still rejected before any network call.
func checkBech32Data(addr string, hrpLen int) error {
	lower := strings.ToLower(addr)
	upper := strings.ToUpper(addr)
	if addr != lower && addr != upper {
		return fmt.Errorf("%w: mixed case", ErrInvalidAddress)
	}

	for _, c := range lower[hrpLen:] {
		if !strings.ContainsRune(bech32Charset, c) {
			return fmt.Errorf("%w: invalid character %q", ErrInvalidAddress, c)
		}
	}
	return nil
}

func validateTransparent(addr string) error {
	decoded, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	// 2 version bytes + 20-byte hash + 4-byte checksum.
	if len(decoded) != 26 {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(decoded))
	}

	prefix := decoded[:2]
	if !bytes.Equal(prefix, p2pkhPrefix) && !bytes.Equal(prefix, p2shPrefix) {
		return fmt.Errorf("%w: unexpected version bytes %x", ErrInvalidAddress, prefix)
	}

	payload, checksum := decoded[:22], decoded[22:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(checksum, second[:4]) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}
	return nil
}
