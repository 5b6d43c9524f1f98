package source

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/livefeedai/livefeed/internal/config"
	"github.com/livefeedai/livefeed/internal/logger"
)

// X11Source captures a fixed region of the root window at a fixed cadence.
// Useful for pointing the pipeline at a video player or any on-screen feed
// when no network camera is around.
type X11Source struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo
	region config.X11Config

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewX11Source connects to the X server and validates the capture region
func NewX11Source(region config.X11Config) (*X11Source, error) {
	if region.Width <= 0 || region.Height <= 0 {
		return nil, fmt.Errorf("invalid capture region %dx%d", region.Width, region.Height)
	}
	if region.FPS <= 0 {
		region.FPS = 15
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Source{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
		region: region,
	}, nil
}

// Name returns the source name
func (s *X11Source) Name() string {
	return "X11"
}

// IsAvailable checks if X11 capture is available
func (s *X11Source) IsAvailable() bool {
	return s.conn != nil
}

// Start begins grabbing the region on a ticker
func (s *X11Source) Start(onFrame FrameFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("X11 source already running")
	}

	s.done = make(chan struct{})
	s.running = true
	interval := time.Second / time.Duration(s.region.FPS)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log := logger.WithComponent("x11-source")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				img, err := s.captureRegion()
				if err != nil {
					log.Warn().Err(err).Msg("Region capture failed")
					continue
				}
				onFrame(img, time.Now())
			}
		}
	}()

	return nil
}

// Stop halts capture and closes the X11 connection
func (s *X11Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	close(s.done)
	s.wg.Wait()
	s.conn.Close()
	s.running = false
	return nil
}

// captureRegion grabs the configured region of the root window
func (s *X11Source) captureRegion() (*image.RGBA, error) {
	reply, err := xproto.GetImage(
		s.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(s.root),
		int16(s.region.X), int16(s.region.Y),
		uint16(s.region.Width), uint16(s.region.Height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	return s.convertImageData(reply.Data, s.region.Width, s.region.Height), nil
}

// convertImageData converts X11 ZPixmap data (BGRA) to RGBA
func (s *X11Source) convertImageData(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	depth := int(s.screen.RootDepth)

	if depth == 24 || depth == 32 {
		n := width * height * 4
		if n > len(data) {
			n = len(data) / 4 * 4
		}
		for i := 0; i < n; i += 4 {
			img.Pix[i] = data[i+2]
			img.Pix[i+1] = data[i+1]
			img.Pix[i+2] = data[i]
			img.Pix[i+3] = 255
		}
	}

	return img
}
