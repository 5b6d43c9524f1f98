package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/livefeedai/livefeed/internal/config"
	"golang.org/x/image/draw"
)

// inferenceSize is the edge length the model resizes inputs to anyway;
// downscaling before upload saves most of the bandwidth for free.
const inferenceSize = 336

// jpegQuality for uploaded frames.
const jpegQuality = 90

// Client talks to the remote inference server: frame descriptions and voice
// query responses.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a client for the configured inference server
func NewClient(cfg config.InferenceConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// EncodeFrame downscales a frame to the model's input size and encodes it as
// JPEG, producing the exact bytes that get uploaded (and cache-keyed).
func EncodeFrame(img *image.RGBA) ([]byte, error) {
	scaled := image.NewRGBA(image.Rect(0, 0, inferenceSize, inferenceSize))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Describe uploads a JPEG frame to /process-image and returns the generated
// scene description.
func (c *Client) Describe(ctx context.Context, jpegData []byte) (string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(jpegData); err != nil {
		return "", fmt.Errorf("failed to write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process-image", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result struct {
		RecognizedText string `json:"recognized_text"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.RecognizedText, nil
}

// Speech forwards a transcribed voice query to /speech and returns the
// textual response to be spoken back to the user.
func (c *Client) Speech(ctx context.Context, query string) (string, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Response string `json:"response"`
	}
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

// do executes a request and decodes the JSON response, surfacing the server's
// error field on non-2xx statuses.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var serverErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &serverErr) == nil && serverErr.Error != "" {
			return fmt.Errorf("inference server: %s (status %d)", serverErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("inference server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
