package stakehouse

import (
	"fmt"

	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

const configSize = 3 * ledger.AddressSize // token(20) + admin(20) + pool(20)

var poolTag = []byte("stakehouse/pool")

// PoolAddressFor derives a deterministic pool account for a token/admin pair.
func PoolAddressFor(token, admin ledger.Address) ledger.Address {
	preimage := make([]byte, 0, len(poolTag)+2*ledger.AddressSize)
	preimage = append(preimage, poolTag...)
	preimage = append(preimage, token[:]...)
	preimage = append(preimage, admin[:]...)

	var pool ledger.Address
	copy(pool[:], bsvhash.Hash160(preimage))
	return pool
}

// SerializeConfig encodes Config to binary format.
func SerializeConfig(cfg *Config) []byte {
	buf := make([]byte, configSize)
	copy(buf[0:20], cfg.Token[:])
	copy(buf[20:40], cfg.Admin[:])
	copy(buf[40:60], cfg.Pool[:])
	return buf
}

// DeserializeConfig decodes binary data into Config.
func DeserializeConfig(data []byte) (*Config, error) {
	if len(data) != configSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidConfigData, configSize, len(data))
	}
	cfg := &Config{}
	copy(cfg.Token[:], data[0:20])
	copy(cfg.Admin[:], data[20:40])
	copy(cfg.Pool[:], data[40:60])
	return cfg, nil
}
