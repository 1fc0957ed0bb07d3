// Package xxh64 implements the streaming XXH64 accumulator in the exact
// memory layout external sequence producers read and write. The State struct
// is the in-band representation handed across the call boundary; the bridge
// in native.go converts it to and from the process-local digest type so the
// two sides can hand a half-finished checksum back and forth losslessly.
package xxh64

import (
	"encoding/binary"
	"math/bits"
)

// XXH64 accumulation primes.
const (
	prime1 uint64 = 0x9E3779B185EBCA87
	prime2 uint64 = 0xC2B2AE3D27D4EB4F
	prime3 uint64 = 0x165667B19E3779F9
	prime4 uint64 = 0x85EBCA77C2B2AE63
	prime5 uint64 = 0x27D4EB2F165667C5
)

const (
	// BlockSize is the stripe width of the algorithm. Whole stripes fold
	// into the lane accumulators immediately; the remainder waits in Mem.
	BlockSize = 32

	// StateSize is the byte footprint of State. It must match the
	// accelerator's checksum slot exactly, fields at fixed offsets, values
	// in host byte order.
	StateSize = 88
)

// State is the wire image of a half-finished XXH64 computation.
//
// Field order, widths and padding mirror the accelerator layout:
//
//	offset  0: TotalLen
//	offset  8: V[0..3]
//	offset 40: Mem
//	offset 72: MemSize
//	offset 76: Reserved32
//	offset 80: Reserved64
//
// Only the leading MemSize bytes of Mem are meaningful. MemSize always
// equals TotalLen % BlockSize and is therefore at most 31: a full stripe
// never sits in Mem because Update folds it on arrival. The reserved
// fields are never read or written by either side of the exchange.
type State struct {
	// TotalLen counts every byte absorbed since the last Reset.
	TotalLen uint64

	// V holds the four lane accumulators.
	V [4]uint64

	// Mem buffers input that has not yet formed a whole stripe.
	Mem [BlockSize]byte

	// MemSize is the number of valid bytes in Mem (0 to 31).
	MemSize uint32

	Reserved32 uint32
	Reserved64 uint64
}

// New returns a State ready to absorb a fresh stream.
func New(seed uint64) *State {
	var s State
	s.Reset(seed)
	return &s
}

// Reset rewinds the accumulator to the start of a stream. The reserved
// fields are left untouched.
func (s *State) Reset(seed uint64) {
	s.TotalLen = 0
	s.V[0] = seed + prime1 + prime2
	s.V[1] = seed + prime2
	s.V[2] = seed
	s.V[3] = seed - prime1
	s.Mem = [BlockSize]byte{}
	s.MemSize = 0
}

// Update absorbs p. Splitting a stream across any number of Update calls
// yields the same digest as absorbing it whole.
func (s *State) Update(p []byte) {
	s.TotalLen += uint64(len(p))

	if int(s.MemSize)+len(p) < BlockSize {
		s.MemSize += uint32(copy(s.Mem[s.MemSize:], p))
		return
	}

	if s.MemSize > 0 {
		p = p[copy(s.Mem[s.MemSize:], p):]
		s.V[0] = round(s.V[0], binary.LittleEndian.Uint64(s.Mem[0:8]))
		s.V[1] = round(s.V[1], binary.LittleEndian.Uint64(s.Mem[8:16]))
		s.V[2] = round(s.V[2], binary.LittleEndian.Uint64(s.Mem[16:24]))
		s.V[3] = round(s.V[3], binary.LittleEndian.Uint64(s.Mem[24:32]))
		s.MemSize = 0
	}

	for len(p) >= BlockSize {
		s.V[0] = round(s.V[0], binary.LittleEndian.Uint64(p[0:8]))
		s.V[1] = round(s.V[1], binary.LittleEndian.Uint64(p[8:16]))
		s.V[2] = round(s.V[2], binary.LittleEndian.Uint64(p[16:24]))
		s.V[3] = round(s.V[3], binary.LittleEndian.Uint64(p[24:32]))
		p = p[BlockSize:]
	}

	if len(p) > 0 {
		s.MemSize = uint32(copy(s.Mem[:], p))
	}
}

// Sum64 finalizes the digest over everything absorbed so far. The
// accumulator is not consumed; the stream may continue afterwards.
func (s *State) Sum64() uint64 {
	var h uint64
	if s.TotalLen >= BlockSize {
		h = bits.RotateLeft64(s.V[0], 1) + bits.RotateLeft64(s.V[1], 7) +
			bits.RotateLeft64(s.V[2], 12) + bits.RotateLeft64(s.V[3], 18)
		h = mergeRound(h, s.V[0])
		h = mergeRound(h, s.V[1])
		h = mergeRound(h, s.V[2])
		h = mergeRound(h, s.V[3])
	} else {
		// V[2] still carries the seed for streams shorter than one stripe.
		h = s.V[2] + prime5
	}

	h += s.TotalLen

	p := s.Mem[:s.MemSize]
	for ; len(p) >= 8; p = p[8:] {
		h ^= round(0, binary.LittleEndian.Uint64(p[:8]))
		h = bits.RotateLeft64(h, 27)*prime1 + prime4
	}
	if len(p) >= 4 {
		h ^= uint64(binary.LittleEndian.Uint32(p[:4])) * prime1
		h = bits.RotateLeft64(h, 23)*prime2 + prime3
		p = p[4:]
	}
	for ; len(p) > 0; p = p[1:] {
		h ^= uint64(p[0]) * prime5
		h = bits.RotateLeft64(h, 11) * prime1
	}

	return avalanche(h)
}

// Sum64 computes the one-shot digest of p with seed 0.
func Sum64(p []byte) uint64 {
	var s State
	s.Reset(0)
	s.Update(p)
	return s.Sum64()
}

func round(acc, input uint64) uint64 {
	acc += input * prime2
	acc = bits.RotateLeft64(acc, 31)
	acc *= prime1
	return acc
}

func mergeRound(acc, val uint64) uint64 {
	acc ^= round(0, val)
	return acc*prime1 + prime4
}

func avalanche(h uint64) uint64 {
	h ^= h >> 33
	h *= prime2
	h ^= h >> 29
	h *= prime3
	h ^= h >> 32
	return h
}
