// Package peerid defines the tagged peer identifier used throughout the
// simulator: a peer is either Public (accepts inbound connections) or
// Private (outbound-only).
package peerid

import "fmt"

// Kind distinguishes a Public peer from a Private one.
type Kind uint8

const (
	Public Kind = iota
	Private
)

func (k Kind) String() string {
	if k == Public {
		return "pub"
	}
	return "priv"
}

// ID is a structurally-comparable peer identity: (Kind, Num). It is used
// directly as a Go map key, which gives structural equality and hashing
// for free.
type ID struct {
	Kind Kind
	Num  uint32
}

// New builds an ID of the given kind and index.
func New(kind Kind, num uint32) ID {
	return ID{Kind: kind, Num: num}
}

// PublicID is a convenience constructor for a Public(num) identity.
func PublicID(num uint32) ID { return ID{Kind: Public, Num: num} }

// PrivateID is a convenience constructor for a Private(num) identity.
func PrivateID(num uint32) ID { return ID{Kind: Private, Num: num} }

// Uint64 returns the canonical embedding into u64 used to seed the
// per-peer PRNG and to sort peers in traffic reports:
//
//	Public(i)  -> i+1
//	Private(i) -> (i+1) << 16
func (id ID) Uint64() uint64 {
	switch id.Kind {
	case Public:
		return uint64(id.Num) + 1
	default:
		return (uint64(id.Num) + 1) << 16
	}
}

// FromUint64 is the inverse of Uint64: values below 2^16 decode to a Public
// peer, everything else to a Private one.
func FromUint64(v uint64) ID {
	if v < 1<<16 {
		return ID{Kind: Public, Num: uint32(v - 1)}
	}
	return ID{Kind: Private, Num: uint32(v>>16 - 1)}
}

// String implements fmt.Stringer, rendering as e.g. "pub0"/"priv0".
func (id ID) String() string {
	return fmt.Sprintf("%s%d", id.Kind, id.Num)
}

// SizeBytes is the logical on-wire size of an encoded PeerID: the 8-byte
// canonical u64 embedding.
const SizeBytes = 8
