package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// fallbackReplyText is shown when the backend returns a reply with no usable
// text field
const fallbackReplyText = "No response"

// Config contains agent client configuration
type Config struct {
	BaseURL string
	AgentID string
	Timeout time.Duration
}

// Reply is a normalized agent reply. Text is always non-empty; Audio is the
// decoded WAV bytes when the backend attached a playable clip.
type Reply struct {
	Text  string
	Audio []byte
}

// RequestError is returned when an agent exchange fails: the request could
// not be sent, the response was not parseable, or the backend answered
// non-2xx. StatusCode is zero when no HTTP response was received.
type RequestError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent request failed: %v", e.Err)
	}
	return fmt.Sprintf("agent request failed with HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// invokeResponse is the wire shape of both invoke endpoints. The text endpoint
// only ever sets Response; the audio endpoint may set any subset.
type invokeResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
	Audio    string `json:"audio"`
}

// Client sends conversation turns to the agent backend
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	audioDropped    uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AudioDropped    uint64        `json:"audio_dropped"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
}

// NewClient creates a new agent backend client
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	if config.AgentID == "" {
		return nil, fmt.Errorf("agent ID cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendText submits a text turn and returns the normalized reply
func (c *Client) SendText(ctx context.Context, input string) (*Reply, error) {
	endpoint := fmt.Sprintf("%s/agents/%s/invoke?input=%s",
		c.config.BaseURL,
		url.PathEscape(c.config.AgentID),
		url.QueryEscape(input),
	)

	payload, err := json.Marshal(map[string]string{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	return c.doRequest(httpReq)
}

// SendAudio submits a recorded WAV clip as a multipart upload and returns the
// normalized reply
func (c *Client) SendAudio(ctx context.Context, wav []byte) (*Reply, error) {
	if len(wav) == 0 {
		return nil, fmt.Errorf("audio clip cannot be empty")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := fmt.Sprintf("%s.wav", uuid.NewString())
	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(wav); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/agents/%s/invokeTest",
		c.config.BaseURL,
		url.PathEscape(c.config.AgentID),
	)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	return c.doRequest(httpReq)
}

// doRequest performs one HTTP exchange and normalizes the response
func (c *Client) doRequest(httpReq *http.Request) (*Reply, error) {
	startTime := time.Now()
	c.incrementTotalRequests()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.incrementFailedRequests()
		return nil, &RequestError{Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.incrementFailedRequests()
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.incrementFailedRequests()
		return nil, &RequestError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var invokeResp invokeResponse
	if err := json.Unmarshal(respBody, &invokeResp); err != nil {
		c.incrementFailedRequests()
		return nil, &RequestError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response JSON: %w", err)}
	}

	reply := c.normalize(invokeResp)

	c.incrementSuccessRequests()
	c.updateAvgResponseTime(time.Since(startTime))

	return reply, nil
}

// normalize picks the display text (response wins over text) and decodes the
// optional audio clip. A clip that fails to decode is dropped rather than
// failing the whole reply.
func (c *Client) normalize(resp invokeResponse) *Reply {
	reply := &Reply{}

	switch {
	case resp.Response != "":
		reply.Text = resp.Response
	case resp.Text != "":
		reply.Text = resp.Text
	default:
		reply.Text = fallbackReplyText
	}

	if resp.Audio != "" {
		audio, err := base64.StdEncoding.DecodeString(resp.Audio)
		if err != nil {
			c.incrementAudioDropped()
			c.logger.Warn("Dropping undecodable reply audio", slog.String("error", err.Error()))
		} else {
			reply.Audio = audio
		}
	}

	return reply
}

// Statistics methods
func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementSuccessRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.successRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) incrementAudioDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioDropped++
}

func (c *Client) updateAvgResponseTime(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		AudioDropped:    c.audioDropped,
		AvgResponseTime: c.avgResponseTime,
	}
}
