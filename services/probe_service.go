package services

import (
	"context"
	"fmt"
	"time"

	"github.com/deepch/vdk/format/rtspv2"
	"go.uber.org/zap"

	"sentinel-cctv/be/logger"
	"sentinel-cctv/be/models"
	"sentinel-cctv/be/store"
)

// RTSPDialer opens an RTSP session and reports the codecs the source offers.
type RTSPDialer interface {
	Dial(ctx context.Context, url string, timeout time.Duration) ([]string, error)
}

// VDKDialer dials cameras with the vdk rtspv2 client.
type VDKDialer struct{}

func (VDKDialer) Dial(ctx context.Context, url string, timeout time.Duration) ([]string, error) {
	type result struct {
		codecs []string
		err    error
	}
	done := make(chan result, 1)

	go func() {
		client, err := rtspv2.Dial(rtspv2.RTSPClientOptions{
			URL:              url,
			DialTimeout:      timeout,
			ReadWriteTimeout: timeout,
		})
		if err != nil {
			done <- result{err: err}
			return
		}
		defer client.Close()

		codecs := make([]string, 0, len(client.CodecData))
		for _, cd := range client.CodecData {
			codecs = append(codecs, cd.Type().String())
		}
		done <- result{codecs: codecs}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.codecs, r.err
	}
}

type ProbeResult struct {
	CameraID  uint                `json:"cameraId"`
	URL       string              `json:"url"`
	Reachable bool                `json:"reachable"`
	Codecs    []string            `json:"codecs"`
	Error     string              `json:"error,omitempty"`
	Status    models.CameraStatus `json:"status"`
	Changed   bool                `json:"changed"` // status was updated by this probe
	Camera    *models.Camera      `json:"camera"`
}

// ProbeService checks whether a camera's stream answers and records the
// outcome as the camera status.
type ProbeService struct {
	store   store.Store
	dialer  RTSPDialer
	timeout time.Duration
	log     *zap.Logger
}

func NewProbeService(s store.Store, dialer RTSPDialer, timeout time.Duration) *ProbeService {
	if dialer == nil {
		dialer = VDKDialer{}
	}
	return &ProbeService{
		store:   s,
		dialer:  dialer,
		timeout: timeout,
		log:     logger.GetLoggerWith("probe"),
	}
}

// Probe dials the camera. A reachable camera becomes active, an unreachable
// one offline. Cameras in maintenance keep their status.
func (p *ProbeService) Probe(ctx context.Context, cameraID uint) (*ProbeResult, error) {
	cam, err := p.store.GetCamera(ctx, cameraID)
	if err != nil {
		return nil, err
	}

	url := cam.RTSPURL()
	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	codecs, dialErr := p.dialer.Dial(dialCtx, url, p.timeout)

	res := &ProbeResult{
		CameraID:  cam.ID,
		URL:       url,
		Reachable: dialErr == nil,
		Codecs:    codecs,
		Status:    cam.Status,
		Camera:    cam,
	}
	if res.Codecs == nil {
		res.Codecs = []string{}
	}
	if dialErr != nil {
		res.Error = dialErr.Error()
		p.log.Info("camera unreachable",
			zap.Uint("camera_id", cam.ID), zap.String("url", url), zap.Error(dialErr))
	}

	next := models.CameraStatusOffline
	if res.Reachable {
		next = models.CameraStatusActive
	}
	if cam.Status == models.CameraStatusMaintenance || cam.Status == next {
		return res, nil
	}

	updated, err := p.store.UpdateCamera(ctx, cam.ID, models.CameraPatch{Status: &next})
	if err != nil {
		return nil, fmt.Errorf("failed to record probe result: %w", err)
	}
	res.Status = updated.Status
	res.Camera = updated
	res.Changed = true
	p.log.Info("camera status changed by probe",
		zap.Uint("camera_id", cam.ID),
		zap.String("from", string(cam.Status)),
		zap.String("to", string(next)),
	)
	return res, nil
}
