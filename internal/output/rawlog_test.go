package output

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

func TestRawLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewRawLogWriter(dir, "batches")
	if err != nil {
		t.Fatalf("writer: %v", err)
	}

	payloads := [][]byte{
		[]byte("first"),
		[]byte("second payload"),
		{},
	}
	for _, p := range payloads {
		if err := writer.Record(p); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	path := writer.Path()
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := writer.Record([]byte("late")); err == nil {
		t.Fatal("record after close did not fail")
	}

	if !IsRawLog(path) {
		t.Fatal("IsRawLog rejected its own output")
	}

	reader, err := OpenRawLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer reader.Close()

	for i, want := range payloads {
		ts, got, err := reader.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if ts == 0 {
			t.Fatalf("record %d has zero timestamp", i)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("record %d: got %q want %q", i, got, want)
		}
	}
	if _, _, err := reader.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestOpenRawLogRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_a_log.bin")
	if err := writeFile(path, []byte("definitely not a raw log")); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenRawLog(path); err == nil {
		t.Fatal("expected magic mismatch error")
	}
	if IsRawLog(path) {
		t.Fatal("IsRawLog accepted a foreign file")
	}
}

func TestBiasFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.bias")
	biases := map[string]int{
		"bias_diff":     300,
		"bias_diff_off": -5,
		"bias_refr":     1500,
	}
	if err := WriteBiasFile(path, biases); err != nil {
		t.Fatalf("write: %v", err)
	}

	stored, err := ReadBiasFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(stored) != len(biases) {
		t.Fatalf("stored %d entries, want %d", len(stored), len(biases))
	}
	for name, want := range biases {
		if stored[name] != want {
			t.Fatalf("%s: got %d want %d", name, stored[name], want)
		}
	}
}

func TestReadBiasFileSkipsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.bias")
	content := "# generated\n\n300 % bias_diff\n-5 % bias_diff_off\n"
	if err := writeFile(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	stored, err := ReadBiasFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if stored["bias_diff"] != 300 || stored["bias_diff_off"] != -5 {
		t.Fatalf("unexpected values: %v", stored)
	}
}

func TestReadBiasFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.bias")
	if err := writeFile(path, []byte("300 bias_diff\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadBiasFile(path); err == nil {
		t.Fatal("expected error for line without separator")
	}
}
