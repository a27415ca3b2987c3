package videogen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/sahilchouksey/video-agent-api/services/storage"
)

const (
	// DefaultTimeout bounds a whole generation call; backends render for minutes
	DefaultTimeout       = 10 * time.Minute
	DefaultDialTimeout   = 10 * time.Second
	DefaultTLSTimeout    = 10 * time.Second
	DefaultHeaderTimeout = 8 * time.Minute
	// DefaultMaxVideoBytes caps a mirrored download
	DefaultMaxVideoBytes = 512 << 20

	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	ErrNotConfigured = errors.New("video backend is not configured")
	ErrVideoTooLarge = errors.New("generated video exceeds the mirror size limit")
)

// Uploader copies generated videos to public storage
type Uploader interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	RetryConfig *RetryConfig
	Uploader    Uploader
	HTTPClient  *http.Client

	// MaxVideoBytes bounds mirrored downloads; defaults to DefaultMaxVideoBytes
	MaxVideoBytes int64
}

// Client talks to a text/image-to-video backend over JSON
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	retryConfig RetryConfig
	uploader    Uploader
	maxVideo    int64
	sleep       func(ctx context.Context, d time.Duration) error
}

// Request describes one video to render
type Request struct {
	SessionID       string   `json:"session_id,omitempty"`
	Prompt          string   `json:"prompt"`
	VideoType       string   `json:"video_type,omitempty"`
	DurationSeconds int      `json:"duration_seconds,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	ImageURLs       []string `json:"image_urls,omitempty"`
	BrandName       string   `json:"brand_name,omitempty"`
	BrandColors     []string `json:"brand_colors,omitempty"`
	Tone            string   `json:"tone,omitempty"`
}

// Result is the generation outcome handed back to the agent
type Result struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	URL       string `json:"url,omitempty"`
	Filename  string `json:"filename,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
	Type      string `json:"type,omitempty"`
}

// APIError is a non-2xx backend response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("video backend error (status %d): %s", e.StatusCode, e.Message)
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxVideoBytes <= 0 {
		config.MaxVideoBytes = DefaultMaxVideoBytes
	}
	retryConfig := DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DefaultDialTimeout,
					KeepAlive: 90 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   DefaultTLSTimeout,
				ResponseHeaderTimeout: DefaultHeaderTimeout,
				MaxIdleConns:          20,
				MaxIdleConnsPerHost:   5,
			},
		}
	}

	return &Client{
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		httpClient:  httpClient,
		retryConfig: retryConfig,
		uploader:    config.Uploader,
		maxVideo:    config.MaxVideoBytes,
		sleep:       sleepContext,
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Generate renders a video. A failed render reported by the backend comes
// back as a Result with StatusError and a nil error.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}

	start := time.Now()
	var result Result
	if err := c.doRequest(ctx, http.MethodPost, "/v1/videos", req, &result); err != nil {
		return nil, err
	}
	if result.Status == "" {
		result.Status = StatusSuccess
	}
	if result.Type == "" {
		result.Type = req.VideoType
	}
	if result.Filename == "" && result.URL != "" {
		result.Filename = path.Base(result.URL)
	}
	log.Printf("[VideoGen] session %s: %s render finished in %s (status=%s)", req.SessionID, req.VideoType, time.Since(start).Round(time.Second), result.Status)

	if result.Status == StatusSuccess && c.uploader != nil && isRemote(result.URL) {
		if err := c.mirror(ctx, req.SessionID, &result); err != nil {
			// the backend URL still works
			log.Printf("[VideoGen] mirror to storage failed: %v", err)
		}
	}
	return &result, nil
}

// mirror copies the rendered file into object storage and points the result at it
func (c *Client) mirror(ctx context.Context, sessionID string, result *Result) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	if resp.ContentLength > c.maxVideo {
		return fmt.Errorf("%w: %d bytes", ErrVideoTooLarge, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxVideo+1))
	if err != nil {
		return fmt.Errorf("failed to read video: %w", err)
	}
	if int64(len(data)) > c.maxVideo {
		return fmt.Errorf("%w: more than %d bytes", ErrVideoTooLarge, c.maxVideo)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	key := storage.ObjectKey(storage.PrefixVideos, sessionID, result.Filename, data)
	url, err := c.uploader.UploadBytes(ctx, key, data, contentType)
	if err != nil {
		return err
	}
	result.URL = url
	result.VideoPath = key
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt-1, lastErr)); err != nil {
				return err
			}
		}

		retry, err := c.attempt(ctx, method, endpoint, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		log.Printf("[VideoGen] attempt %d/%d failed: %v", attempt+1, c.retryConfig.MaxRetries+1, err)
	}
	return lastErr
}

type retryAfterError struct {
	*APIError
	after time.Duration
}

func (e *retryAfterError) Unwrap() error { return e.APIError }

func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	var ra *retryAfterError
	if errors.As(lastErr, &ra) && ra.after > 0 {
		return ra.after
	}
	return CalculateBackoff(attempt, c.retryConfig)
}

// attempt performs one request and reports whether a failure is worth retrying
func (c *Client) attempt(ctx context.Context, method, endpoint string, payload []byte, result any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		if !IsRetryableStatusCode(resp.StatusCode) {
			return false, apiErr
		}
		return true, &retryAfterError{APIError: apiErr, after: ParseRetryAfter(resp)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return false, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
