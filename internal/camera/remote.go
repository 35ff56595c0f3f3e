package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pebbe/zmq4"

	"evcam-stream-go/internal/types"
)

// Remote is a camera whose event stream arrives as CBOR burst messages on a
// ZMQ PULL socket and whose biases are accessed over the bridge HTTP API:
//
//	GET  {base}/info                     -> {"serial": ..., "width": ..., "height": ...}
//	GET  {base}/bias/{name}              -> {"value": ...}
//	PUT  {base}/bias/{name}  {"value":v} (404 unknown bias, 400 out of range)
//	PUT  {base}/command/save_biases
//	GET  {base}/status                   -> health state
type Remote struct {
	endpoint string
	baseURL  string
	client   *http.Client
	logEvery int

	mu     sync.Mutex
	width  int
	height int
	serial string
	cancel context.CancelFunc
}

type burstMessage struct {
	Type   string           `cbor:"type"`
	Events []types.RawEvent `cbor:"events"`
}

func NewRemote(endpoint, baseURL string, logEvery int) *Remote {
	if logEvery < 1 {
		logEvery = 1
	}
	return &Remote{
		endpoint: endpoint,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 2 * time.Second},
		logEvery: logEvery,
	}
}

func (r *Remote) Initialize(_ Options) error {
	var info struct {
		Serial string `json:"serial"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	status, body, err := r.doRequest(context.Background(), http.MethodGet, r.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("camera info request failed: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("camera info request returned %d", status)
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return fmt.Errorf("camera info decode failed: %w", err)
	}
	if info.Width < 1 || info.Height < 1 {
		return fmt.Errorf("camera reported invalid geometry %dx%d", info.Width, info.Height)
	}
	r.mu.Lock()
	r.width = info.Width
	r.height = info.Height
	r.serial = info.Serial
	r.mu.Unlock()
	return nil
}

func (r *Remote) Start(ctx context.Context, handler BurstHandler) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	go r.receive(runCtx, handler)
}

func (r *Remote) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

func (r *Remote) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

func (r *Remote) Height() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

func (r *Remote) SerialNumber() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.serial
}

func (r *Remote) receive(ctx context.Context, handler BurstHandler) {
	socket, err := zmq4.NewSocket(zmq4.PULL)
	if err != nil {
		log.Printf("event socket create failed: %v", err)
		return
	}
	defer socket.Close()
	if err := socket.Connect(r.endpoint); err != nil {
		log.Printf("event socket connect %s failed: %v", r.endpoint, err)
		return
	}
	_ = socket.SetRcvtimeo(250 * time.Millisecond)

	var failures int
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := socket.RecvBytes(0)
		if err != nil {
			// timeouts are the idle case, real errors are rate limited
			if zmq4.AsErrno(err) == zmq4.Errno(syscall.EAGAIN) {
				continue
			}
			failures++
			if failures%r.logEvery == 0 {
				log.Printf("event recv error: %v", err)
			}
			continue
		}

		var burst burstMessage
		if err := cbor.Unmarshal(msg, &burst); err != nil {
			failures++
			if failures%r.logEvery == 0 {
				log.Printf("burst decode error: %v", err)
			}
			continue
		}
		if burst.Type != "events" || len(burst.Events) == 0 {
			continue
		}
		handler(burst.Events)
	}
}

func (r *Remote) GetBias(name string) (int, error) {
	status, body, err := r.doRequest(context.Background(), http.MethodGet, r.baseURL+"/bias/"+name, nil)
	if err != nil {
		return 0, err
	}
	if err := biasStatusError(status); err != nil {
		return 0, err
	}
	var payload struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("bias response decode failed: %w", err)
	}
	return payload.Value, nil
}

func (r *Remote) SetBias(name string, value int) error {
	payload, err := json.Marshal(map[string]any{"value": value})
	if err != nil {
		return err
	}
	status, _, err := r.doRequest(context.Background(), http.MethodPut, r.baseURL+"/bias/"+name, payload)
	if err != nil {
		return err
	}
	return biasStatusError(status)
}

func (r *Remote) SaveBiases() bool {
	status, _, err := r.doRequest(context.Background(), http.MethodPut, r.baseURL+"/command/save_biases", nil)
	if err != nil {
		log.Printf("bias save request failed: %v", err)
		return false
	}
	return status == http.StatusOK
}

// Health reports the bridge state for the status page. It never fails,
// mirroring how detector status probes degrade to an "error" string.
func (r *Remote) Health(ctx context.Context) string {
	status, body, err := r.doRequest(ctx, http.MethodGet, r.baseURL+"/status", nil)
	if err != nil {
		return "error"
	}
	if status != http.StatusOK {
		return fmt.Sprintf("http_%d", status)
	}
	var decoded struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.State == "" {
		return "ok"
	}
	return strings.ToLower(decoded.State)
}

func biasStatusError(status int) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrUnknownBias
	case http.StatusBadRequest:
		return ErrBiasRange
	default:
		return fmt.Errorf("bias request returned %d", status)
	}
}

func (r *Remote) doRequest(ctx context.Context, method string, url string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, respBody, nil
}
