// Package dck reads DCK cartridge images, the dump format for Timex/Sinclair
// DOCK-port cartridges. A file is a sequence of bank records; each record is
// one bank id byte, eight chunk type bytes, and then one 8 KiB data block for
// every chunk whose type stores data.
package dck

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// ChunkSize is the fixed extent of one memory chunk; eight chunks cover
	// the 64 KiB address space.
	ChunkSize = 8 * 1024

	chunksPerBank = 8
	recordHdrLen  = 1 + chunksPerBank
)

// Well-known bank ids.
const (
	BankDock  = 0
	BankExROM = 254
	BankHome  = 255
)

// ChunkType describes how one 8 KiB chunk of a bank behaves and whether the
// file carries data for it.
type ChunkType uint8

const (
	// ChunkAbsent marks address space not present in the cartridge.
	ChunkAbsent ChunkType = 0
	// ChunkRAM is writable memory with no stored image; it starts zeroed.
	ChunkRAM ChunkType = 1
	// ChunkROM carries an 8 KiB read-only data block.
	ChunkROM ChunkType = 2
	// ChunkRAMData is writable memory with an 8 KiB initial image.
	ChunkRAMData ChunkType = 3
)

// HasData reports whether a chunk of this type is followed by a data block in
// the file.
func (t ChunkType) HasData() bool {
	return t == ChunkROM || t == ChunkRAMData
}

func (t ChunkType) String() string {
	switch t {
	case ChunkAbsent:
		return "absent"
	case ChunkRAM:
		return "ram"
	case ChunkROM:
		return "rom"
	case ChunkRAMData:
		return "ram+data"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

var (
	// ErrTruncatedRecord is returned when a bank record header is cut short.
	ErrTruncatedRecord = errors.New("dck: truncated bank record")

	// ErrTruncatedChunk is returned when a chunk declares data the file does
	// not contain in full.
	ErrTruncatedChunk = errors.New("dck: truncated chunk data")

	// ErrUnknownChunkType is returned for chunk type bytes outside 0..3.
	ErrUnknownChunkType = errors.New("dck: unknown chunk type")

	// ErrEmptyFile is returned for a zero-length input.
	ErrEmptyFile = errors.New("dck: empty file")
)

// Chunk is one 8 KiB slot of a bank. Data is nil unless Type.HasData().
type Chunk struct {
	Type ChunkType
	Data []byte
}

// Bank is one decoded bank record.
type Bank struct {
	ID     uint8
	Chunks [chunksPerBank]Chunk
}

// Name renders the conventional name of the bank id.
func (b *Bank) Name() string {
	switch b.ID {
	case BankDock:
		return "DOCK"
	case BankExROM:
		return "EXROM"
	case BankHome:
		return "HOME"
	}
	return fmt.Sprintf("bank %d", b.ID)
}

// Cartridge is a fully parsed DCK image.
type Cartridge struct {
	Banks []Bank
}

// Decode reads a complete DCK stream from r and parses it.
func Decode(r io.Reader) (*Cartridge, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dck: read input: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeFile parses the DCK file at path.
func DecodeFile(path string) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dck: read %s: %w", path, err)
	}
	return DecodeBytes(data)
}

// DecodeBytes parses a complete in-memory DCK image. Bank records repeat
// until the input is exhausted.
func DecodeBytes(data []byte) (*Cartridge, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	cart := &Cartridge{}
	off := 0
	for off < len(data) {
		if len(data)-off < recordHdrLen {
			return nil, fmt.Errorf("%w: %d header bytes at offset %d",
				ErrTruncatedRecord, len(data)-off, off)
		}

		var bank Bank
		bank.ID = data[off]
		for i := 0; i < chunksPerBank; i++ {
			bank.Chunks[i].Type = ChunkType(data[off+1+i])
		}
		off += recordHdrLen

		for i := range bank.Chunks {
			t := bank.Chunks[i].Type
			if t > ChunkRAMData {
				return nil, fmt.Errorf("%w: %d in bank %d chunk %d",
					ErrUnknownChunkType, uint8(t), bank.ID, i)
			}
			if !t.HasData() {
				continue
			}
			if len(data)-off < ChunkSize {
				return nil, fmt.Errorf("%w: bank %d chunk %d has %d of %d bytes",
					ErrTruncatedChunk, bank.ID, i, len(data)-off, ChunkSize)
			}
			bank.Chunks[i].Data = data[off : off+ChunkSize]
			off += ChunkSize
		}

		cart.Banks = append(cart.Banks, bank)
	}
	return cart, nil
}

// StoredBytes sums the data blocks across all banks.
func (c *Cartridge) StoredBytes() int {
	n := 0
	for i := range c.Banks {
		for _, ch := range c.Banks[i].Chunks {
			n += len(ch.Data)
		}
	}
	return n
}
