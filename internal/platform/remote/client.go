package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Client wraps retryablehttp with the retry policy shared by every upstream
// API: exponential backoff, capped attempt count, retried only on 429/5xx
// and transport errors. 4xx responses are returned immediately.
type Client struct {
	http *retryablehttp.Client
}

// NewClient builds a Client. A zero timeout defaults to 60s.
func NewClient(logger zerolog.Logger, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 5
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 30 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = &leveledLogger{log: logger}

	return &Client{http: rc}
}

// leveledLogger adapts zerolog to retryablehttp's LeveledLogger interface.
type leveledLogger struct {
	log zerolog.Logger
}

func (l *leveledLogger) Error(msg string, kv ...interface{}) { l.event(l.log.Error(), msg, kv) }
func (l *leveledLogger) Warn(msg string, kv ...interface{})  { l.event(l.log.Warn(), msg, kv) }
func (l *leveledLogger) Info(msg string, kv ...interface{})  { l.event(l.log.Debug(), msg, kv) }
func (l *leveledLogger) Debug(msg string, kv ...interface{}) { l.event(l.log.Debug(), msg, kv) }

func (l *leveledLogger) event(evt *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		evt = evt.Interface(key, kv[i+1])
	}
	evt.Msg(msg)
}

// DoJSON performs a request with a JSON body (body may be nil) and decodes a
// JSON response into out (out may be nil when the body is irrelevant).
// It returns the HTTP status code alongside any decode/transport error.
// Non-2xx statuses are returned with a nil error; classification into a
// typed *Error is the caller's job because the semantics (404 vs miscoded
// 400, 403-on-write) are endpoint specific.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body, out interface{}) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &Error{Kind: KindRemote, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &Error{Kind: KindRemote, Status: resp.StatusCode, Message: fmt.Sprintf("read response body: %v", err)}
	}

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, raw, &Error{Kind: KindRemote, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}

	return resp.StatusCode, raw, nil
}

// Download fetches url and returns the raw bytes. Used for non-JSON sources
// such as the controlled-vocabulary spreadsheet.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindRemote, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Kind: KindRemote, Status: resp.StatusCode, Message: fmt.Sprintf("download %s", url)}
	}

	return io.ReadAll(resp.Body)
}

// ErrorMessage extracts the conventional {"error": "..."} message from an
// upstream response body, falling back to the raw body text.
func ErrorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return string(raw)
}
