package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"sentinel-cctv/be/config"
	"sentinel-cctv/be/logger"
)

var (
	ErrStreamingDisabled = errors.New("live streaming is disabled")
	ErrStreamNotFound    = errors.New("stream not found")
)

// StreamInfo is what the dashboard needs to play a camera.
type StreamInfo struct {
	CameraID  uint   `json:"cameraId"`
	HLSURL    string `json:"hlsUrl"`
	IsHealthy bool   `json:"isHealthy"`
}

// MediaMTXService registers camera RTSP sources as MediaMTX paths and hands
// out the HLS URLs MediaMTX serves for them. Calls to the MediaMTX API go
// through a circuit breaker so a dead media server fails fast.
type MediaMTXService struct {
	cfg     config.MediaMTXConfig
	apiBase string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger

	// mu guards activePaths only and is never held across an API call.
	mu          sync.RWMutex
	activePaths map[uint]string // camera id -> path name
	starts      singleflight.Group
}

type MediaMTXOption func(*MediaMTXService)

// WithAPIBase points the service at a different API root, e.g. a test server.
func WithAPIBase(url string) MediaMTXOption {
	return func(s *MediaMTXService) {
		s.apiBase = url
	}
}

func NewMediaMTXService(cfg config.MediaMTXConfig, opts ...MediaMTXOption) *MediaMTXService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &MediaMTXService{
		cfg:         cfg,
		apiBase:     fmt.Sprintf("http://%s:%s", cfg.Host, cfg.APIPort),
		client:      &http.Client{Timeout: timeout},
		log:         logger.GetLoggerWith("mediamtx"),
		activePaths: make(map[uint]string),
	}
	s.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "mediamtx",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MediaMTXService) Enabled() bool {
	return s.cfg.Enabled
}

func PathName(cameraID uint) string {
	return fmt.Sprintf("cam%d", cameraID)
}

func (s *MediaMTXService) hlsURL(path string) string {
	return fmt.Sprintf("http://%s:%s/%s/index.m3u8", s.cfg.PublicHost, s.cfg.HTTPPort, path)
}

// StartStream makes MediaMTX pull rtspURL on demand and returns the HLS URL.
// Starting an already active camera only returns its URL.
func (s *MediaMTXService) StartStream(ctx context.Context, cameraID uint, rtspURL string) (string, error) {
	if !s.cfg.Enabled {
		return "", ErrStreamingDisabled
	}

	if url, ok := s.StreamURL(cameraID); ok {
		return url, nil
	}

	path := PathName(cameraID)
	// concurrent starts of one camera share a single add call
	_, err, _ := s.starts.Do(path, func() (any, error) {
		if _, ok := s.StreamURL(cameraID); ok {
			return nil, nil
		}
		conf, err := json.Marshal(map[string]any{
			"source":                     rtspURL,
			"sourceOnDemand":             true,
			"sourceOnDemandStartTimeout": "10s",
			"sourceOnDemandCloseAfter":   "10s",
			"rtspTransport":              "tcp",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode path config: %w", err)
		}
		if _, err := s.call(ctx, http.MethodPost, "/v3/config/paths/add/"+path, conf); err != nil {
			return nil, fmt.Errorf("failed to configure path %s: %w", path, err)
		}

		s.mu.Lock()
		s.activePaths[cameraID] = path
		s.mu.Unlock()
		s.log.Info("stream path configured",
			zap.Uint("camera_id", cameraID),
			zap.String("path", path),
			zap.String("hls_url", s.hlsURL(path)),
		)
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return s.hlsURL(path), nil
}

func (s *MediaMTXService) StopStream(ctx context.Context, cameraID uint) error {
	s.mu.RLock()
	path, ok := s.activePaths[cameraID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("camera %d: %w", cameraID, ErrStreamNotFound)
	}
	if _, err := s.call(ctx, http.MethodDelete, "/v3/config/paths/delete/"+path, nil); err != nil {
		return fmt.Errorf("failed to remove path %s: %w", path, err)
	}

	s.mu.Lock()
	if s.activePaths[cameraID] == path {
		delete(s.activePaths, cameraID)
	}
	s.mu.Unlock()
	s.log.Info("stream path removed", zap.Uint("camera_id", cameraID), zap.String("path", path))
	return nil
}

func (s *MediaMTXService) StreamURL(cameraID uint) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.activePaths[cameraID]
	if !ok {
		return "", false
	}
	return s.hlsURL(path), true
}

// Health reports, per active camera, whether MediaMTX lists its path. When
// MediaMTX cannot be reached every stream is unhealthy.
func (s *MediaMTXService) Health(ctx context.Context) map[uint]bool {
	s.mu.RLock()
	active := make(map[uint]string, len(s.activePaths))
	for id, path := range s.activePaths {
		active[id] = path
	}
	s.mu.RUnlock()

	health := make(map[uint]bool, len(active))
	listed, err := s.listPaths(ctx)
	if err != nil {
		s.log.Warn("failed to list paths", zap.Error(err))
	}
	for id, path := range active {
		health[id] = listed[path]
	}
	return health
}

// Stream starts (or reuses) the stream of a camera and checks its health.
func (s *MediaMTXService) Stream(ctx context.Context, cameraID uint, rtspURL string) (*StreamInfo, error) {
	url, err := s.StartStream(ctx, cameraID, rtspURL)
	if err != nil {
		return nil, err
	}
	listed, err := s.listPaths(ctx)
	if err != nil {
		s.log.Warn("stream health unknown", zap.Uint("camera_id", cameraID), zap.Error(err))
	}
	return &StreamInfo{
		CameraID:  cameraID,
		HLSURL:    url,
		IsHealthy: listed[PathName(cameraID)],
	}, nil
}

func (s *MediaMTXService) listPaths(ctx context.Context) (map[string]bool, error) {
	body, err := s.call(ctx, http.MethodGet, "/v3/paths/list", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode path list: %w", err)
	}
	paths := make(map[string]bool, len(resp.Items))
	for _, item := range resp.Items {
		paths[item.Name] = true
	}
	return paths, nil
}

func (s *MediaMTXService) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return s.breaker.Execute(func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.apiBase+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, fmt.Errorf("mediamtx api error (status %d): %s", resp.StatusCode, data)
		}
		return data, nil
	})
}
