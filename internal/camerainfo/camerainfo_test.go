package camerainfo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyURL(t *testing.T) {
	info, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("empty url: %v", err)
	}
	if info.FrameID != "" {
		t.Fatalf("unexpected frame id %q", info.FrameID)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera_info.json")
	record := `{"frame_id": "silky01", "serial_number": "00001470", "calibration": {"fx": 1.0}}`
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}

	info, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.FrameID != "silky01" {
		t.Fatalf("unexpected frame id %q", info.FrameID)
	}
	if info.SerialNumber != "00001470" {
		t.Fatalf("unexpected serial %q", info.SerialNumber)
	}
	if len(info.Calibration) == 0 {
		t.Fatal("calibration payload dropped")
	}

	if _, err := Load(context.Background(), "file://"+path); err != nil {
		t.Fatalf("file scheme: %v", err)
	}
}

func TestLoadFromHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"frame_id": "remote0"}`))
	}))
	defer server.Close()

	info, err := Load(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if info.FrameID != "remote0" {
		t.Fatalf("unexpected frame id %q", info.FrameID)
	}
}

func TestLoadBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(context.Background(), path); err == nil {
		t.Fatal("expected decode error")
	}
}
