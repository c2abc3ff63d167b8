package persist

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/sim"
)

func TestCodecRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.PutU8(7)
	w.PutU32(0xDEADBEEF)
	w.PutU64(1 << 40)
	w.PutI64(-42)
	w.PutF32(3.5)
	w.PutF64(-2.25)
	w.PutBool(true)
	w.PutBool(false)
	if err := w.Err(); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewReader(&buf)
	if got := r.U8(); got != 7 {
		t.Errorf("u8 = %d", got)
	}
	if got := r.U32(); got != 0xDEADBEEF {
		t.Errorf("u32 = %#x", got)
	}
	if got := r.U64(); got != 1<<40 {
		t.Errorf("u64 = %d", got)
	}
	if got := r.I64(); got != -42 {
		t.Errorf("i64 = %d", got)
	}
	if got := r.F32(); got != 3.5 {
		t.Errorf("f32 = %v", got)
	}
	if got := r.F64(); got != -2.25 {
		t.Errorf("f64 = %v", got)
	}
	if !r.Bool() || r.Bool() {
		t.Error("bools did not roundtrip")
	}
	if err := r.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestReaderShortStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}))
	_ = r.U32()
	if r.Err() != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want unexpected EOF", r.Err())
	}
	if got := r.U64(); got != 0 {
		t.Errorf("reads after error should return zero, got %d", got)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Sim.InitialPerType = 2
	cfg.Sim.MaxPopulation = 200
	return cfg
}

func TestSaveLoadRoundtrip(t *testing.T) {
	cfg := testConfig(t)
	s := sim.New(cfg, 99, nil)
	for i := 0; i < 12; i++ {
		if err := s.Tick(0.25); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "run.snap")
	if err := Save(s, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := Load(cfg, path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if restored.Population() != s.Population() {
		t.Errorf("population = %d, want %d", restored.Population(), s.Population())
	}
	if restored.Now() != s.Now() {
		t.Errorf("now = %v, want %v", restored.Now(), s.Now())
	}
	if restored.TickCount() != s.TickCount() {
		t.Errorf("tick = %d, want %d", restored.TickCount(), s.TickCount())
	}

	if err := restored.Tick(0.25); err != nil {
		t.Fatalf("restored sim tick: %v", err)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "bad.snap")

	if err := os.WriteFile(path, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfg, path, nil); err == nil {
		t.Fatal("expected error for non-snapshot file")
	}
}
