// Package persist writes simulation snapshots to disk as zstd-compressed
// little-endian binary streams.
package persist

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer streams snapshot primitives to an io.Writer in little-endian
// order. It implements sim.SnapshotWriter; the first write error sticks and
// turns later puts into no-ops.
type Writer struct {
	w   io.Writer
	buf [8]byte
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(n int) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(w.buf[:n])
}

func (w *Writer) PutU8(v uint8) {
	w.buf[0] = v
	w.write(1)
}

func (w *Writer) PutU32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(4)
}

func (w *Writer) PutU64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(8)
}

func (w *Writer) PutI64(v int64) { w.PutU64(uint64(v)) }

func (w *Writer) PutF32(v float32) { w.PutU32(math.Float32bits(v)) }

func (w *Writer) PutF64(v float64) { w.PutU64(math.Float64bits(v)) }

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutU8(1)
	} else {
		w.PutU8(0)
	}
}

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

// Reader streams snapshot primitives from an io.Reader. It implements
// sim.SnapshotReader; after the first error every get returns zero.
type Reader struct {
	r   io.Reader
	buf [8]byte
	err error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(n int) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		r.err = err
		return false
	}
	return true
}

func (r *Reader) U8() uint8 {
	if !r.read(1) {
		return 0
	}
	return r.buf[0]
}

func (r *Reader) U32() uint32 {
	if !r.read(4) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

func (r *Reader) U64() uint64 {
	if !r.read(8) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) F32() float32 { return math.Float32frombits(r.U32()) }

func (r *Reader) F64() float64 { return math.Float64frombits(r.U64()) }

func (r *Reader) Bool() bool { return r.U8() != 0 }

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
