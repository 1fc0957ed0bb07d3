package xxh64

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Binary state format of github.com/cespare/xxhash/v2: a 4-byte magic,
// the four lanes and the total length as little-endian words, then the
// whole 32-byte stripe buffer.
const (
	nativeMagic = "xxh\x06"
	nativeSize  = len(nativeMagic) + 8*5 + BlockSize
)

// Native converts the accumulator into a process-local digest that resumes
// the same stream. The conversion is lossless for every meaningful field;
// stale Mem bytes beyond MemSize are not preserved. It fails if the state
// breaks the MemSize invariant, which means the producer corrupted the slot.
func (s *State) Native() (*xxhash.Digest, error) {
	if uint64(s.MemSize) != s.TotalLen%BlockSize {
		return nil, fmt.Errorf(
			"xxh64: corrupt state: mem size %d, total length %d",
			s.MemSize, s.TotalLen,
		)
	}

	buf := make([]byte, 0, nativeSize)
	buf = append(buf, nativeMagic...)
	buf = binary.LittleEndian.AppendUint64(buf, s.V[0])
	buf = binary.LittleEndian.AppendUint64(buf, s.V[1])
	buf = binary.LittleEndian.AppendUint64(buf, s.V[2])
	buf = binary.LittleEndian.AppendUint64(buf, s.V[3])
	buf = binary.LittleEndian.AppendUint64(buf, s.TotalLen)
	buf = append(buf, s.Mem[:s.MemSize]...)
	buf = buf[:nativeSize]

	var d xxhash.Digest
	if err := d.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("xxh64: importing state into native digest: %w", err)
	}
	return &d, nil
}

// SetNative loads the accumulator from a native digest so the producer can
// continue the stream in-band.
func (s *State) SetNative(d *xxhash.Digest) error {
	buf, err := d.MarshalBinary()
	if err != nil {
		return fmt.Errorf("xxh64: exporting native digest state: %w", err)
	}
	if len(buf) != nativeSize || string(buf[:len(nativeMagic)]) != nativeMagic {
		return fmt.Errorf("xxh64: unexpected native state format (%d bytes)", len(buf))
	}

	b := buf[len(nativeMagic):]
	s.V[0] = binary.LittleEndian.Uint64(b[0:8])
	s.V[1] = binary.LittleEndian.Uint64(b[8:16])
	s.V[2] = binary.LittleEndian.Uint64(b[16:24])
	s.V[3] = binary.LittleEndian.Uint64(b[24:32])
	s.TotalLen = binary.LittleEndian.Uint64(b[32:40])
	copy(s.Mem[:], b[40:40+BlockSize])
	s.MemSize = uint32(s.TotalLen % BlockSize)
	return nil
}
