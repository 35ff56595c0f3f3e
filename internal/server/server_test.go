package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evcam-stream-go/internal/bias"
	"evcam-stream-go/internal/camera"
	"evcam-stream-go/internal/config"
)

func newTestServer() *Server {
	cfg := config.AppConfig{
		Port:          8888,
		Encoding:      "compact",
		FrameID:       "1470",
		TimeThreshold: 100 * time.Microsecond,
		MaxEventRate:  50e6,
		SendQueueSize: 1000,
	}
	ctrl := bias.NewController(camera.NewSimulator(640, 480, 1e6))
	statusFn := func() map[string]any {
		return map[string]any{"detector": "simulator"}
	}
	return New(cfg, ctrl, statusFn)
}

func TestHandleConfig(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/config", nil)
	rec := httptest.NewRecorder()
	srv.handleConfig(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["encoding"].(string) != "compact" {
		t.Fatalf("unexpected encoding: %v", payload["encoding"])
	}
	if payload["frame_id"].(string) != "1470" {
		t.Fatalf("unexpected frame_id: %v", payload["frame_id"])
	}
	if payload["message_time_threshold"].(float64) != 100e-6 {
		t.Fatalf("unexpected threshold: %v", payload["message_time_threshold"])
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["detector"].(string) != "simulator" {
		t.Fatalf("status callback not merged: %v", payload)
	}
	if payload["ws_clients"].(float64) != 0 {
		t.Fatalf("unexpected client count: %v", payload["ws_clients"])
	}
}

func TestHandleBiasGetAndPut(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/bias/bias_diff", nil)
	rec := httptest.NewRecorder()
	srv.handleBias(rec, req)
	if rec.Code != 200 {
		t.Fatalf("get status: %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["value"].(float64) != 300 {
		t.Fatalf("unexpected value: %v", payload["value"])
	}

	// the simulator clamps to 1800; the response must carry the readback
	req = httptest.NewRequest("PUT", "/bias/bias_diff", strings.NewReader(`{"value": 99999}`))
	rec = httptest.NewRecorder()
	srv.handleBias(rec, req)
	if rec.Code != 200 {
		t.Fatalf("put status: %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["value"].(float64) != 1800 {
		t.Fatalf("expected clamped readback 1800, got %v", payload["value"])
	}
}

func TestHandleBiasUnknown(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/bias/bias_bogus", nil)
	rec := httptest.NewRecorder()
	srv.handleBias(rec, req)
	if rec.Code != 404 {
		t.Fatalf("expected 404 for unknown bias, got %d", rec.Code)
	}
}

func TestHandleSaveBiases(t *testing.T) {
	srv := newTestServer()

	// no bias file configured on the simulator: reported, not an HTTP error
	req := httptest.NewRequest("POST", "/save_biases", nil)
	rec := httptest.NewRecorder()
	srv.handleSaveBiases(rec, req)
	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["success"].(bool) {
		t.Fatal("save reported success without a bias file")
	}
	if payload["message"].(string) == "" {
		t.Fatal("missing human-readable message")
	}

	req = httptest.NewRequest("GET", "/save_biases", nil)
	rec = httptest.NewRecorder()
	srv.handleSaveBiases(rec, req)
	if rec.Code != 405 {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}
}

func TestHandleConfigureInitialSync(t *testing.T) {
	srv := newTestServer()

	body := `{"level": -1, "biases": {}}`
	req := httptest.NewRequest("POST", "/configure", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleConfigure(rec, req)
	if rec.Code != 200 {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload struct {
		Level  int         `json:"level"`
		Biases bias.Config `json:"biases"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// the response mirrors the simulator defaults
	if payload.Biases.Diff != 300 || payload.Biases.Fo != 1725 {
		t.Fatalf("config does not mirror hardware: %+v", payload.Biases)
	}
}

func TestPublishWithoutClients(t *testing.T) {
	srv := newTestServer()
	if srv.SubscriberCount() != 0 {
		t.Fatalf("expected zero clients, got %d", srv.SubscriberCount())
	}
	// must be a no-op, not a panic
	srv.Publish([]byte("payload"))
}
