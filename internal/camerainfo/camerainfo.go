package camerainfo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Info is the fixed calibration record looked up once at startup. Only the
// frame id is consumed here; the calibration payload itself travels with
// the record untouched.
type Info struct {
	FrameID      string          `json:"frame_id"`
	SerialNumber string          `json:"serial_number"`
	Calibration  json.RawMessage `json:"calibration"`
}

// Load fetches the record keyed by url. http(s) URLs are fetched over the
// network, file:// URLs and bare paths are read from disk. An empty url
// yields an empty record, which is not an error.
func Load(ctx context.Context, url string) (Info, error) {
	if url == "" {
		return Info{}, nil
	}

	var data []byte
	switch {
	case strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://"):
		client := &http.Client{Timeout: 2 * time.Second}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Info{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return Info{}, err
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return Info{}, err
		}
	default:
		path := strings.TrimPrefix(url, "file://")
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Info{}, err
		}
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, err
	}
	return info, nil
}
