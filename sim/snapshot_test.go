package sim

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

// memWriter is an in-memory little-endian SnapshotWriter for tests.
type memWriter struct {
	buf []byte
}

func (w *memWriter) PutU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *memWriter) PutU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *memWriter) PutU64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *memWriter) PutI64(v int64)  { w.PutU64(uint64(v)) }
func (w *memWriter) PutF32(v float32) {
	w.PutU32(math.Float32bits(v))
}
func (w *memWriter) PutF64(v float64) {
	w.PutU64(math.Float64bits(v))
}
func (w *memWriter) PutBool(v bool) {
	if v {
		w.PutU8(1)
	} else {
		w.PutU8(0)
	}
}
func (w *memWriter) Err() error { return nil }

// memReader reads back what memWriter wrote.
type memReader struct {
	buf []byte
	off int
	err error
}

func (r *memReader) take(n int) []byte {
	if r.err != nil || r.off+n > len(r.buf) {
		if r.err == nil {
			r.err = io.ErrUnexpectedEOF
		}
		return make([]byte, n)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *memReader) U8() uint8    { return r.take(1)[0] }
func (r *memReader) U32() uint32  { return binary.LittleEndian.Uint32(r.take(4)) }
func (r *memReader) U64() uint64  { return binary.LittleEndian.Uint64(r.take(8)) }
func (r *memReader) I64() int64   { return int64(r.U64()) }
func (r *memReader) F32() float32 { return math.Float32frombits(r.U32()) }
func (r *memReader) F64() float64 { return math.Float64frombits(r.U64()) }
func (r *memReader) Bool() bool   { return r.U8() != 0 }
func (r *memReader) Err() error   { return r.err }

func TestSnapshotRoundtrip(t *testing.T) {
	s := New(testConfig(t), 99, nil)
	for i := 0; i < 15; i++ {
		if err := s.Tick(0.5); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	w := &memWriter{}
	if err := s.WriteSnapshot(w); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	restored, err := Restore(testConfig(t), &memReader{buf: w.buf}, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.Population() != s.Population() {
		t.Fatalf("population = %d, want %d", restored.Population(), s.Population())
	}
	if restored.Now() != s.Now() {
		t.Fatalf("clock = %v, want %v", restored.Now(), s.Now())
	}
	if restored.TickCount() != s.TickCount() {
		t.Fatalf("tick = %d, want %d", restored.TickCount(), s.TickCount())
	}

	// A snapshot of the restored sim must be byte-identical: the stream
	// carries everything the codec owns.
	w2 := &memWriter{}
	if err := restored.WriteSnapshot(w2); err != nil {
		t.Fatalf("re-snapshot: %v", err)
	}
	if len(w.buf) != len(w2.buf) {
		t.Fatalf("re-snapshot length %d, want %d", len(w2.buf), len(w.buf))
	}
	for i := range w.buf {
		if w.buf[i] != w2.buf[i] {
			t.Fatalf("re-snapshot diverges at byte %d", i)
		}
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	if _, err := Restore(testConfig(t), &memReader{buf: []byte{1, 2, 3, 4}}, nil); err == nil {
		t.Fatal("restore of garbage succeeded")
	}
}

func TestRestoredSimKeepsTicking(t *testing.T) {
	s := New(testConfig(t), 5, nil)
	for i := 0; i < 5; i++ {
		if err := s.Tick(0.5); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	w := &memWriter{}
	if err := s.WriteSnapshot(w); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	restored, err := Restore(testConfig(t), &memReader{buf: w.buf}, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := restored.Tick(0.5); err != nil {
			t.Fatalf("restored tick %d: %v", i, err)
		}
	}
	if restored.TickCount() != s.TickCount()+10 {
		t.Fatalf("tick count = %d, want %d", restored.TickCount(), s.TickCount()+10)
	}
}
