package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogWriter_RotatesBySize(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	lw := newLogWriter(filepath.Join(dir, "trader.log"), 1, 3)
	defer lw.Close()

	chunk := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 2; i++ {
		if _, err := lw.Write(chunk); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read log dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("log dir has %d files, want active file plus one backup", len(entries))
	}
	info, err := os.Stat(filepath.Join(dir, "trader.log"))
	if err != nil {
		t.Fatalf("stat active log: %v", err)
	}
	if info.Size() != int64(len(chunk)) {
		t.Errorf("active log size = %d, want %d", info.Size(), len(chunk))
	}
}
