package imaging

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// bifMagic is the 8-byte BIF container magic (0x89 "BIF" CR LF SUB LF),
// per the informal trickplay format spec shared across media servers that
// implement it.
var bifMagic = [8]byte{0x89, 'B', 'I', 'F', 0x0d, 0x0a, 0x1a, 0x0a}

// BIFVersion is the container format version this package writes.
const BIFVersion = 0

// BIFEntry is one (timestamp-ms, jpeg-bytes) trickplay thumbnail, per §6:
// "entries in chronological order, each entry (timestamp-ms, jpeg-bytes).
// Images keyed by timestamp."
type BIFEntry struct {
	TimestampMs uint32
	JPEG        []byte
}

// EncodeBIF writes version and entries (already sorted chronologically) in
// the on-disk BIF layout: an 8-byte magic, a version, entry count, the
// default interval, reserved space, an index of (timestamp, byte offset)
// pairs, then the concatenated JPEG blobs.
func EncodeBIF(w io.Writer, version uint32, intervalMs uint32, entries []BIFEntry) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(bifMagic[:]); err != nil {
		return err
	}
	header := make([]byte, 0, 56)
	header = binary.LittleEndian.AppendUint32(header, version)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(entries)))
	header = binary.LittleEndian.AppendUint32(header, intervalMs)
	header = append(header, make([]byte, 44)...) // reserved, up to the index at 64
	if _, err := bw.Write(header); err != nil {
		return err
	}

	indexStart := 64
	dataStart := indexStart + (len(entries)+1)*8
	offset := uint32(dataStart)
	index := make([]byte, 0, (len(entries)+1)*8)
	for _, e := range entries {
		index = binary.LittleEndian.AppendUint32(index, e.TimestampMs)
		index = binary.LittleEndian.AppendUint32(index, offset)
		offset += uint32(len(e.JPEG))
	}
	// terminating index entry marks end-of-data offset, conventional for BIF readers
	index = binary.LittleEndian.AppendUint32(index, 0xffffffff)
	index = binary.LittleEndian.AppendUint32(index, offset)
	if _, err := bw.Write(index); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := bw.Write(e.JPEG); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DecodeBIF parses a BIF stream back into its version, interval, and
// entries, the inverse of EncodeBIF: encode then decode must be the
// identity on (timestamps, jpegs) per the round-trip property in §8.
func DecodeBIF(r io.Reader) (version uint32, intervalMs uint32, entries []BIFEntry, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, 0, nil, err
	}
	if len(data) < 64 {
		return 0, 0, nil, fmt.Errorf("bif: truncated header")
	}
	var magic [8]byte
	copy(magic[:], data[:8])
	if magic != bifMagic {
		return 0, 0, nil, fmt.Errorf("bif: bad magic")
	}

	version = binary.LittleEndian.Uint32(data[8:12])
	count := binary.LittleEndian.Uint32(data[12:16])
	intervalMs = binary.LittleEndian.Uint32(data[16:20])

	indexStart := 64
	entries = make([]BIFEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		off := indexStart + int(i)*8
		ts := binary.LittleEndian.Uint32(data[off : off+4])
		start := binary.LittleEndian.Uint32(data[off+4 : off+8])

		nextOff := off + 8
		end := binary.LittleEndian.Uint32(data[nextOff+4 : nextOff+8])

		if int(end) > len(data) || int(start) > len(data) || start > end {
			return 0, 0, nil, fmt.Errorf("bif: corrupt index entry %d", i)
		}
		entries = append(entries, BIFEntry{TimestampMs: ts, JPEG: data[start:end]})
	}
	return version, intervalMs, entries, nil
}
