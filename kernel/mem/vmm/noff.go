package vmm

import (
	"encoding/binary"
	"io"

	"nachos/kernel"
)

// noffMagic identifies a NOFF object file, per spec.md §6.
const noffMagic = 0xbadfade

// swappedNoffMagic is noffMagic with its bytes reversed, the signal that
// the header was written on a host of the opposite endianness.
const swappedNoffMagic = 0xdefaad0b

// Segment describes one of a NOFF executable's three segments.
type Segment struct {
	VirtualAddr uint32
	InFileAddr  uint32
	Size        uint32
}

// NoffHeader is the 16-byte NOFF magic plus three segment descriptors,
// per spec.md §6.
type NoffHeader struct {
	Magic      uint32
	Code       Segment
	InitData   Segment
	UninitData Segment
}

var errBadMagic = kernel.New("vmm", "not a NOFF executable")

// ReadNoffHeader reads and validates a NoffHeader from r, byte-swapping
// the fields if the magic number appears reversed (spec.md §6).
func ReadNoffHeader(r io.Reader) (NoffHeader, *kernel.Error) {
	var raw [40]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return NoffHeader{}, kernel.New("vmm", "short read of NOFF header: "+err.Error())
	}

	h := decodeNoffHeader(raw, binary.LittleEndian)
	if h.Magic != noffMagic {
		swapped := decodeNoffHeader(raw, binary.BigEndian)
		if swapped.Magic != noffMagic {
			return NoffHeader{}, errBadMagic
		}
		h = swapped
	}
	return h, nil
}

func decodeNoffHeader(raw [40]byte, order binary.ByteOrder) NoffHeader {
	return NoffHeader{
		Magic: order.Uint32(raw[0:4]),
		Code: Segment{
			VirtualAddr: order.Uint32(raw[4:8]),
			InFileAddr:  order.Uint32(raw[8:12]),
			Size:        order.Uint32(raw[12:16]),
		},
		InitData: Segment{
			VirtualAddr: order.Uint32(raw[16:20]),
			InFileAddr:  order.Uint32(raw[20:24]),
			Size:        order.Uint32(raw[24:28]),
		},
		UninitData: Segment{
			VirtualAddr: order.Uint32(raw[28:32]),
			InFileAddr:  order.Uint32(raw[32:36]),
			Size:        order.Uint32(raw[36:40]),
		},
	}
}
