package ledger

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
)

// AddressSize is the length of a P2PKH public key hash.
const AddressSize = 20

// Address identifies an account in the ledger by its P2PKH public key hash.
type Address [AddressSize]byte

// AddressFromHash copies a 20-byte public key hash into an Address.
func AddressFromHash(pkh []byte) (Address, error) {
	var a Address
	if len(pkh) != AddressSize {
		return a, fmt.Errorf("%w: hash must be %d bytes, got %d", ErrInvalidAddress, AddressSize, len(pkh))
	}
	copy(a[:], pkh)
	return a, nil
}

// AddressFromPublicKey returns the address controlled by pub.
func AddressFromPublicKey(pub *ec.PublicKey) (Address, error) {
	if pub == nil {
		return Address{}, fmt.Errorf("%w: nil public key", ErrInvalidAddress)
	}
	return AddressFromHash(bsvhash.Hash160(pub.Compressed()))
}

// ParseAddress decodes a Base58Check P2PKH address (any network).
func ParseAddress(s string) (Address, error) {
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return AddressFromHash([]byte(addr.PublicKeyHash))
}

// Encode returns the Base58Check form of a for mainnet or testnet.
func (a Address) Encode(mainnet bool) (string, error) {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr.AddressString, nil
}

// String returns the mainnet Base58Check form, falling back to hex.
func (a Address) String() string {
	s, err := a.Encode(true)
	if err != nil {
		return hex.EncodeToString(a[:])
	}
	return s
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// MarshalText encodes a as its mainnet address string.
func (a Address) MarshalText() ([]byte, error) {
	s, err := a.Encode(true)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalText decodes a Base58Check address string.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
