package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Snapshot is the persisted form of a pairwise distance matrix: the storage
// mode it was computed under, the event counts, and the flattened values in
// that mode's layout.
type Snapshot struct {
	// Mode is the numeric storage mode of the source batch.
	Mode uint8
	// NumA is the number of events on the first axis.
	NumA uint32
	// NumB is the number of events on the second axis. Equal to NumA for
	// symmetric batches over a single set.
	NumB uint32
	// Values is the flattened matrix in the layout implied by Mode.
	Values []float64
}

// Header layout, little endian, 48 bytes:
//
//	off  0  Magic       uint32
//	off  4  Version     uint32
//	off  8  Mode        uint8
//	off  9  Compression uint8
//	off 10  padding     [2]byte
//	off 12  NumA        uint32
//	off 16  NumB        uint32
//	off 20  Checksum    uint32  (CRC32 of the compressed payload)
//	off 24  ValueCount  uint64
//	off 32  PayloadSize uint64  (compressed byte length)
//	off 40  reserved    [8]byte

// Encode serializes the snapshot with the requested compression.
func (s *Snapshot) Encode(c Compression) ([]byte, error) {
	raw := make([]byte, 8*len(s.Values))
	for i, v := range s.Values {
		binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
	}

	payload, used, err := compress(raw, c)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], MagicNumber)
	binary.LittleEndian.PutUint32(buf[4:], Version)
	buf[8] = s.Mode
	buf[9] = byte(used)
	binary.LittleEndian.PutUint32(buf[12:], s.NumA)
	binary.LittleEndian.PutUint32(buf[16:], s.NumB)
	binary.LittleEndian.PutUint32(buf[20:], ComputeChecksum(payload))
	binary.LittleEndian.PutUint64(buf[24:], uint64(len(s.Values)))
	binary.LittleEndian.PutUint64(buf[32:], uint64(len(payload)))
	copy(buf[headerSize:], payload)

	return buf, nil
}

// Decode parses a serialized snapshot, verifying magic, version, size and
// checksum before decompressing.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}

	if magic := binary.LittleEndian.Uint32(data[0:]); magic != MagicNumber {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidMagic, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:]); version != Version {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, version)
	}

	mode := data[8]
	compression := Compression(data[9])
	numA := binary.LittleEndian.Uint32(data[12:])
	numB := binary.LittleEndian.Uint32(data[16:])
	checksum := binary.LittleEndian.Uint32(data[20:])
	valueCount := binary.LittleEndian.Uint64(data[24:])
	payloadSize := binary.LittleEndian.Uint64(data[32:])

	if uint64(len(data)-headerSize) < payloadSize {
		return nil, ErrTruncated
	}
	payload := data[headerSize : headerSize+int(payloadSize)]

	if actual := ComputeChecksum(payload); actual != checksum {
		return nil, &ChecksumMismatchError{Expected: checksum, Actual: actual}
	}

	raw, err := decompress(payload, compression, int(valueCount)*8)
	if err != nil {
		return nil, err
	}

	values := make([]float64, valueCount)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}

	return &Snapshot{
		Mode:   mode,
		NumA:   numA,
		NumB:   numB,
		Values: values,
	}, nil
}
