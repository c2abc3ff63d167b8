package persist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/pthm-cable/fauna/config"
	"github.com/pthm-cable/fauna/sim"
)

// Save writes a compressed snapshot of the simulation to path. The file is
// written to a temp name first and renamed into place so a crash never
// leaves a truncated snapshot behind.
func Save(s *sim.Sim, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	w := NewWriter(bw)
	snapErr := s.WriteSnapshot(w)

	if err := bw.Flush(); err != nil && snapErr == nil {
		snapErr = err
	}
	if err := enc.Close(); err != nil && snapErr == nil {
		snapErr = err
	}
	if err := f.Close(); err != nil && snapErr == nil {
		snapErr = err
	}
	if snapErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", snapErr)
	}

	return os.Rename(tmp, path)
}

// Load restores a simulation from a compressed snapshot file.
func Load(cfg *config.Config, path string, log *slog.Logger) (*sim.Sim, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	r := NewReader(bufio.NewReaderSize(dec, 256*1024))
	s, err := sim.Restore(cfg, r, log)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	return s, nil
}
