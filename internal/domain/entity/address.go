package entity

import (
	"errors"
	"strings"

	"github.com/mr-tron/base58"
)

// SolanaAddressLength is the decoded size of a Solana public key
const SolanaAddressLength = 32

var (
	// ErrEmptyAddress is returned when a subject address is missing
	ErrEmptyAddress = errors.New("address is empty")
	// ErrInvalidAddress is returned when a subject address is not a base58 public key
	ErrInvalidAddress = errors.New("address is not a valid solana public key")
)

// ValidateSolanaAddress checks that address decodes to a 32-byte public key
func ValidateSolanaAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return ErrEmptyAddress
	}
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != SolanaAddressLength {
		return ErrInvalidAddress
	}
	return nil
}

// IsSolanaAddress reports whether address is a well-formed Solana public key
func IsSolanaAddress(address string) bool {
	return ValidateSolanaAddress(address) == nil
}

// ShortAddress returns the first six characters of an address, used as a display fallback
func ShortAddress(address string) string {
	if len(address) <= 6 {
		return address
	}
	return address[:6]
}
