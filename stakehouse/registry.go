package stakehouse

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bitfsorg/stakehouse-go/ledger"
)

const (
	registryHeaderSize = 4                  // num_members(4)
	registryEntrySize  = ledger.AddressSize // address(20)
)

// indexOf returns the position of addr in members, or -1.
func indexOf(members []ledger.Address, addr ledger.Address) int {
	for i := range members {
		if members[i] == addr {
			return i
		}
	}
	return -1
}

// SerializeRegistry encodes the ordered member list.
func SerializeRegistry(members []ledger.Address) ([]byte, error) {
	if uint64(len(members)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d members", ErrTooManyMembers, len(members))
	}
	buf := make([]byte, registryHeaderSize+registryEntrySize*len(members))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(members)))

	offset := registryHeaderSize
	for _, m := range members {
		copy(buf[offset:offset+registryEntrySize], m[:])
		offset += registryEntrySize
	}
	return buf, nil
}

// DeserializeRegistry decodes a member list, rejecting duplicates.
func DeserializeRegistry(data []byte) ([]ledger.Address, error) {
	if len(data) < registryHeaderSize {
		return nil, fmt.Errorf("%w: too short (%d bytes)", ErrInvalidRegistryData, len(data))
	}
	n := int(binary.BigEndian.Uint32(data[0:4]))

	expectedSize := registryHeaderSize + registryEntrySize*n
	if len(data) != expectedSize {
		return nil, fmt.Errorf("%w: expected %d bytes for %d members, got %d",
			ErrInvalidRegistryData, expectedSize, n, len(data))
	}

	members := make([]ledger.Address, n)
	offset := registryHeaderSize
	for i := 0; i < n; i++ {
		copy(members[i][:], data[offset:offset+registryEntrySize])
		offset += registryEntrySize
		if indexOf(members[:i], members[i]) >= 0 {
			return nil, fmt.Errorf("%w: duplicate member %s", ErrInvalidRegistryData, members[i])
		}
	}
	return members, nil
}
