// Package sonar is a minimal read-only client for the SonarQube Web API.
package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/golovatskygroup/sonarqube-mcp/internal/logging"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 16 << 20
)

type Options struct {
	BaseURL   string
	Token     string
	UserAgent string
	// Base is the underlying RoundTripper (http.DefaultTransport when nil).
	Base   http.RoundTripper
	Logger logrus.FieldLogger
}

// Client issues authenticated GET requests. It holds no mutable state and is
// safe for concurrent use.
type Client struct {
	baseURL string
	c       *http.Client
	log     *logrus.Entry
}

func NewClient(opts Options) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		c: &http.Client{
			Transport: NewTransport(opts.Base, opts.Token, opts.UserAgent),
		},
		log: logging.Component(opts.Logger, "sonar"),
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get performs GET baseURL+path and decodes the JSON body. Numbers are kept
// as json.Number so re-encoding reproduces them exactly.
//
// Failures are always one of *ConnectionError, *StatusError or *RequestError.
func (c *Client) Get(ctx context.Context, path string, query url.Values, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &RequestError{Message: "invalid request", Err: err}
	}

	start := time.Now()
	resp, err := c.c.Do(req)
	if err != nil {
		cerr := classifyTransportError(u, err)
		c.log.WithFields(logrus.Fields{"path": path, "error": cerr.Error()}).Debug("request failed")
		return nil, cerr
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.log.WithFields(logrus.Fields{
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("request done")
	if err != nil {
		return nil, classifyTransportError(u, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Reason: statusReason(resp), URL: u}
	}

	return decodeJSON(resp.Header.Get("Content-Type"), b)
}

func decodeJSON(contentType string, b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if looksLikeHTML(contentType, b) {
			msg := "unexpected HTML response (expected JSON)"
			if title := htmlTitle(b); title != "" {
				msg = fmt.Sprintf("unexpected HTML response %q (expected JSON)", title)
			}
			return nil, &RequestError{Message: msg}
		}
		return nil, &RequestError{Message: "invalid JSON response", Err: err}
	}
	return v, nil
}

// statusReason extracts the textual part of the status line ("Not Found"
// from "404 Not Found").
func statusReason(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// Object returns v as a JSON object, or nil when it is anything else.
func Object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// Objects returns the elements of the array at obj[key] that are JSON objects.
func Objects(obj map[string]any, key string) []map[string]any {
	arr, _ := obj[key].([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
