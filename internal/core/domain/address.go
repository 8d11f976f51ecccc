package domain

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Address names an Event or a Ticket record. It is derived from stable
// seeds, so the address space doubles as the lookup index and as the
// uniqueness constraint.
type Address [32]byte

// DomainTag is the 32-byte BLAKE3 key separating address families.
type DomainTag [32]byte

var (
	EventTag = DomainTag{
		't', 'i', 'e', 'r', 'e', 'd', '_', 't', 'i', 'c', 'k', 'e', 't', '.',
		'e', 'v', 'e', 'n', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	TicketTag = DomainTag{
		't', 'i', 'e', 'r', 'e', 'd', '_', 't', 'i', 'c', 'k', 'e', 't', '.',
		't', 'i', 'c', 'k', 'e', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Derive computes the keyed hash of the seed parts. Each part is
// length-prefixed, so ("ab", "c") and ("a", "bc") map to different
// addresses.
func Derive(tag DomainTag, parts ...[]byte) Address {
	hasher, err := blake3.NewKeyed(tag[:])
	if err != nil {
		// NewKeyed only fails on a key that is not 32 bytes.
		panic(err)
	}

	var prefix [binary.MaxVarintLen64]byte
	for _, part := range parts {
		n := binary.PutUvarint(prefix[:], uint64(len(part)))
		_, _ = hasher.Write(prefix[:n])
		_, _ = hasher.Write(part)
	}

	var addr Address
	copy(addr[:], hasher.Sum(nil))
	return addr
}

func EventAddress(organizer uuid.UUID, title string) Address {
	return Derive(EventTag, organizer[:], []byte(title))
}

func TicketAddress(event Address, buyer uuid.UUID) Address {
	return Derive(TicketTag, event[:], buyer[:])
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes the hex form produced by Address.String.
func ParseAddress(s string) (Address, error) {
	var addr Address
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidAddress, len(decoded), len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}
