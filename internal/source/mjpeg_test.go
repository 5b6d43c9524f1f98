package source

import (
	"context"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"
)

// mjpegTestServer serves count JPEG frames of the given size as one
// multipart/x-mixed-replace response, then ends the stream.
func mjpegTestServer(t *testing.T, count, w, h int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		mpw := multipart.NewWriter(rw)
		rw.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+mpw.Boundary())

		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < count; i++ {
			part, err := mpw.CreatePart(textproto.MIMEHeader{"Content-Type": {"image/jpeg"}})
			if err != nil {
				return
			}
			if err := jpeg.Encode(part, img, nil); err != nil {
				return
			}
			if f, ok := rw.(http.Flusher); ok {
				f.Flush()
			}
		}
		mpw.Close()
	}))
}

func TestMJPEGSource_DeliversDecodedFrames(t *testing.T) {
	srv := mjpegTestServer(t, 3, 48, 32)
	defer srv.Close()

	frames := make(chan *image.RGBA, 8)
	src := NewMJPEGSource(srv.URL)
	if err := src.Start(func(frame *image.RGBA, at time.Time) {
		frames <- frame
	}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	for i := 0; i < 3; i++ {
		select {
		case frame := <-frames:
			if frame.Bounds().Dx() != 48 || frame.Bounds().Dy() != 32 {
				t.Errorf("frame %d size = %v, want 48x32", i, frame.Bounds())
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for frame %d", i)
		}
	}
}

func TestMJPEGSource_StopIsIdempotent(t *testing.T) {
	srv := mjpegTestServer(t, 1, 8, 8)
	defer srv.Close()

	src := NewMJPEGSource(srv.URL)
	if err := src.Start(func(frame *image.RGBA, at time.Time) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop failed: %v", err)
	}
}

func TestMJPEGSource_RejectsNonMultipartResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/html")
		rw.Write([]byte("not a stream"))
	}))
	defer srv.Close()

	src := NewMJPEGSource(srv.URL)
	err := src.streamLoop(context.Background(), func(frame *image.RGBA, at time.Time) {
		t.Error("unexpected frame from non-multipart response")
	})
	if err == nil {
		t.Fatal("expected content-type error, got nil")
	}
}

func TestMJPEGSource_UnavailableWithoutURL(t *testing.T) {
	if NewMJPEGSource("").IsAvailable() {
		t.Error("source with empty URL reported available")
	}
	if !NewMJPEGSource("http://cam.local/video").IsAvailable() {
		t.Error("source with URL reported unavailable")
	}
}
