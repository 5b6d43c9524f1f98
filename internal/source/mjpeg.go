package source

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/livefeedai/livefeed/internal/logger"
)

const reconnectDelay = 2 * time.Second

// MJPEGSource captures frames from a network camera serving Motion JPEG over
// HTTP (multipart/x-mixed-replace). It reconnects with a fixed delay when the
// stream drops.
type MJPEGSource struct {
	url    string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewMJPEGSource creates a source reading from the given stream URL
func NewMJPEGSource(url string) *MJPEGSource {
	return &MJPEGSource{url: url}
}

// Name returns the source name
func (s *MJPEGSource) Name() string {
	return "MJPEG"
}

// IsAvailable reports whether the source is usable; for MJPEG that only
// requires a configured URL, connectivity is checked on Start.
func (s *MJPEGSource) IsAvailable() bool {
	return s.url != ""
}

// Start begins reading the stream in a background goroutine
func (s *MJPEGSource) Start(onFrame FrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("MJPEG source already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log := logger.WithComponent("mjpeg-source")
		for {
			err := s.streamLoop(ctx, onFrame)
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).
				Str("url", s.url).
				Dur("retry_in", reconnectDelay).
				Msg("Stream ended, reconnecting")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()

	return nil
}

// Stop cancels the stream reader and waits for it to exit
func (s *MJPEGSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	s.running = false
	return nil
}

// streamLoop reads one connection's worth of frames, returning when the
// stream ends or the context is cancelled.
func (s *MJPEGSource) streamLoop(ctx context.Context, onFrame FrameFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "multipart/x-mixed-replace")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.Contains(mediaType, "multipart/x-mixed-replace") || params["boundary"] == "" {
		return fmt.Errorf("unexpected content type: %s", contentType)
	}

	log := logger.WithComponent("mjpeg-source")
	log.Info().Str("url", s.url).Msg("Stream connected")

	mr := multipart.NewReader(resp.Body, params["boundary"])
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("error reading part: %w", err)
		}

		img, err := jpeg.Decode(part)
		part.Close()
		if err != nil {
			log.Debug().Err(err).Msg("Skipping undecodable frame")
			continue
		}

		onFrame(toRGBA(img), time.Now())
	}
}

// toRGBA converts a decoded frame (typically YCbCr from the JPEG decoder)
// into the RGBA layout the pipeline works in.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
