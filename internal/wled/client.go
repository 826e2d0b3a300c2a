package wled

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/muurk/wledflash/internal/version"
)

const (
	// DefaultPort is the HTTP port WLED serves its API on
	DefaultPort = 80

	// DefaultTimeout is the default timeout for small JSON and probe requests
	DefaultTimeout = 10 * time.Second

	// DefaultUploadTimeout is sized for a 1-2 MB image over a weak WiFi link
	DefaultUploadTimeout = 60 * time.Second

	// FieldUpdate is the multipart field name used by firmware up to 0.15
	FieldUpdate = "update"

	// FieldFile is the multipart field name used by 0.16 and later
	FieldFile = "file"

	// firmwareFileName is the file name presented in the multipart header
	firmwareFileName = "firmware.bin"

	// maxBodySize bounds response body reads; WLED replies are tiny
	maxBodySize int64 = 64 << 10
)

// Client is an HTTP client for a single WLED device.
//
// Timeouts are applied per call through the request context, so one Client
// can issue a 2s probe and a 60s upload without reconfiguration.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.1.40:80")
	BaseURL string

	// IP is the device address, kept for error context
	IP string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// Timeout applies to Ping, SetState and Info when the caller passes 0
	Timeout time.Duration

	// UserAgent is sent with every request
	UserAgent string
}

// newHTTPClient returns a client that never reuses connections. A device
// that has just rebooted has no memory of any previous keep-alive socket.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	return &http.Client{Transport: transport}
}

// NewClient creates a new device client
// ip: Device IP address (e.g., "192.168.1.40")
// port: Device HTTP port (typically 80)
func NewClient(ip string, port int) *Client {
	if port == 0 {
		port = DefaultPort
	}
	host := ip
	if strings.Contains(ip, ":") {
		host = "[" + ip + "]"
	}
	return &Client{
		BaseURL:    fmt.Sprintf("http://%s:%d", host, port),
		IP:         ip,
		HTTPClient: newHTTPClient(),
		Timeout:    DefaultTimeout,
		UserAgent:  version.UserAgent(),
	}
}

// NewClientForAddr creates a client for a device address, which is either a
// bare host (port 80) or host:port
func NewClientForAddr(addr string) *Client {
	host, portText, err := net.SplitHostPort(addr)
	if err != nil {
		return NewClient(addr, DefaultPort)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port < 1 || port > 65535 {
		return NewClient(addr, DefaultPort)
	}
	return NewClient(host, port)
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.1.40:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		IP:         hostOf(baseURL),
		HTTPClient: newHTTPClient(),
		Timeout:    DefaultTimeout,
		UserAgent:  version.UserAgent(),
	}
}

func hostOf(baseURL string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(baseURL, "http://"), "https://")
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

func (c *Client) timeoutOr(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// Ping issues a single GET / and returns nil only on HTTP 200.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutOr(timeout))
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return NewNetworkError("failed to create ping request", err, c.IP)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("device unreachable", err, c.IP)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	return nil
}

// Probe reports whether the device answers GET / with HTTP 200 within
// timeout. It has no side effects.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) bool {
	return c.Ping(ctx, timeout) == nil
}

// UploadResponse describes what came back from a firmware POST.
//
// RequestSent is true once the whole multipart body was written to the
// socket. It is set even when err is non-nil, which is how callers tell a
// read timeout after a complete upload from a connect timeout.
type UploadResponse struct {
	StatusCode  int
	Body        string
	RequestSent bool
}

// UploadFirmware POSTs the image at path to /update as a multipart form,
// using field as the form field name.
//
// The returned UploadResponse is never nil. A missing image returns an error
// wrapping ErrFirmwareNotFound without any network I/O. Transport errors are
// returned as *DeviceError.
func (c *Client) UploadFirmware(ctx context.Context, path, field string, timeout time.Duration) (*UploadResponse, error) {
	result := &UploadResponse{}

	body, contentType, err := buildMultipart(path, field)
	if err != nil {
		return result, err
	}

	if timeout <= 0 {
		timeout = DefaultUploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// WroteRequest fires on the transport's write goroutine
	var sent atomic.Bool
	trace := &httptrace.ClientTrace{
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			if info.Err == nil {
				sent.Store(true)
			}
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	req, err := c.newRequest(ctx, http.MethodPost, "/update", bytes.NewReader(body))
	if err != nil {
		return result, NewNetworkError("failed to create upload request", err, c.IP)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	result.RequestSent = sent.Load()
	if err != nil {
		return result, NewNetworkError("upload request failed", err, c.IP)
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		// The status line arrived but the body was cut off; report the
		// drop so the caller can apply its disconnect policy.
		return result, NewNetworkError("failed to read upload response", err, c.IP)
	}
	result.Body = string(data)

	return result, nil
}

// buildMultipart reads the firmware image into a multipart body. The whole
// body is buffered so the request carries a Content-Length; the device's
// web server does not accept chunked uploads.
func buildMultipart(path, field string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrFirmwareNotFound, path)
		}
		return nil, "", fmt.Errorf("failed to open firmware %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreatePart(firmwarePartHeader(field))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read firmware %s: %w", filepath.Base(path), err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func firmwarePartHeader(field string) textproto.MIMEHeader {
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, firmwareFileName)},
		"Content-Type":        {"application/octet-stream"},
	}
}

// SetState POSTs a state document to /json/state.
//
// Any HTTP 200 is success. The decoded response is returned so callers can
// tell an explicit {"success":true} from a silent 200; an unparseable body is
// not an error.
func (c *Client) SetState(ctx context.Context, state *State, timeout time.Duration) (*StateResponse, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, NewParseError("failed to encode state", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeoutOr(timeout))
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPost, "/json/state", bytes.NewReader(payload))
	if err != nil {
		return nil, NewNetworkError("failed to create state request", err, c.IP)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("state request failed", err, c.IP)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("state update failed with status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	var sr StateResponse
	if len(bytes.TrimSpace(body)) > 0 {
		_ = json.Unmarshal(body, &sr)
	}
	return &sr, nil
}

// Info retrieves GET /json/info
func (c *Client) Info(ctx context.Context, timeout time.Duration) (*Info, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutOr(timeout))
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/json/info", nil)
	if err != nil {
		return nil, NewNetworkError("failed to create info request", err, c.IP)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("info request failed", err, c.IP)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError("failed to read info response", err, c.IP)
	}

	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, NewParseError("failed to parse info response", err)
	}
	return &info, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
