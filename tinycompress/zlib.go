// Package tinycompress writes zlib streams made of stored (uncompressed)
// DEFLATE blocks. It needs no compression tables, so it runs under TinyGo
// with a fixed allocation, and any zlib reader can inflate its output.
package tinycompress

import (
	"errors"
	"hash/adler32"
	"io"
)

// maxBlock is the largest payload of one stored DEFLATE block
const maxBlock = 0xFFFF

// zlib header: deflate, 32K window, default level (0x789C % 31 == 0)
var header = [2]byte{0x78, 0x9C}

var ErrCorrupt = errors.New("tinycompress: corrupt or unsupported stream")

// StoredSize returns the size of the zlib stream for n input bytes
func StoredSize(n int) int {
	blocks := (n + maxBlock - 1) / maxBlock
	if blocks == 0 {
		blocks = 1
	}
	return len(header) + blocks*5 + n + 4
}

// Compress returns data wrapped in a zlib stream
func Compress(data []byte) []byte {
	out := make([]byte, 0, StoredSize(len(data)))
	out = append(out, header[:]...)
	rest := data
	for {
		n := len(rest)
		if n > maxBlock {
			n = maxBlock
		}
		final := n == len(rest)
		out = appendBlockHeader(out, n, final)
		out = append(out, rest[:n]...)
		rest = rest[n:]
		if final {
			break
		}
	}
	sum := adler32.Checksum(data)
	return append(out, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}

func appendBlockHeader(b []byte, n int, final bool) []byte {
	var bfinal byte
	if final {
		bfinal = 1
	}
	length := uint16(n)
	nlength := ^length
	return append(b, bfinal, byte(length), byte(length>>8), byte(nlength), byte(nlength>>8))
}

// Decompress inflates a stream of stored blocks, as written by Compress.
// Streams using Huffman-coded blocks are rejected with ErrCorrupt.
func Decompress(stream []byte) ([]byte, error) {
	if len(stream) < len(header)+5+4 || stream[0] != header[0] {
		return nil, ErrCorrupt
	}
	pos := len(header)
	end := len(stream) - 4
	var out []byte
	for {
		if pos+5 > end {
			return nil, ErrCorrupt
		}
		bh := stream[pos]
		if bh>>1&0x03 != 0 {
			return nil, ErrCorrupt
		}
		length := int(stream[pos+1]) | int(stream[pos+2])<<8
		nlength := int(stream[pos+3]) | int(stream[pos+4])<<8
		pos += 5
		if length != ^nlength&0xFFFF || pos+length > end {
			return nil, ErrCorrupt
		}
		out = append(out, stream[pos:pos+length]...)
		pos += length
		if bh&1 != 0 {
			break
		}
	}
	if pos != end {
		return nil, ErrCorrupt
	}
	want := uint32(stream[end])<<24 | uint32(stream[end+1])<<16 | uint32(stream[end+2])<<8 | uint32(stream[end+3])
	if adler32.Checksum(out) != want {
		return nil, ErrCorrupt
	}
	return out, nil
}

// Writer buffers everything written and emits the zlib stream on Close
type Writer struct {
	output io.Writer
	buf    []byte
	closed bool
}

// NewWriter returns a Writer with room for size bytes before it reallocates
func NewWriter(w io.Writer, size int) *Writer {
	return &Writer{output: w, buf: make([]byte, 0, size)}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("tinycompress: write after close")
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes the stream to the underlying writer
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := w.output.Write(Compress(w.buf))
	return err
}
