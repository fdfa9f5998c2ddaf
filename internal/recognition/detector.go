// Package recognition talks to the external object-detection inference
// service. The service accepts raw image bytes and returns candidate labels
// with confidence scores; callers keep only the best one.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

var ErrNoDetections = errors.New("no objects detected")

type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Detector struct {
	baseURL string
	client  *http.Client
}

func NewDetectorFromEnv() (*Detector, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("DETECTOR_URL")), "/")
	if baseURL == "" {
		return nil, errors.New("DETECTOR_URL is not set")
	}
	return &Detector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Detect posts the image to the inference service and returns all detections.
func (d *Detector) Detect(ctx context.Context, imageData []byte, contentType string) ([]Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", bytes.NewReader(imageData))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var out struct {
		Detections []Detection `json:"detections"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detector response: %w", err)
	}
	return out.Detections, nil
}

// BestLabel returns the highest-confidence detection.
func BestLabel(detections []Detection) (Detection, error) {
	if len(detections) == 0 {
		return Detection{}, ErrNoDetections
	}
	best := detections[0]
	for _, det := range detections[1:] {
		if det.Confidence > best.Confidence {
			best = det
		}
	}
	return best, nil
}
