package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/biztrack/pkg/logger"
	"github.com/dmitrymomot/biztrack/pkg/requestid"
)

const (
	// RequestIDHeader carries the correlation ID: the one tagged on the
	// context with package requestid, or a fresh one per call.
	RequestIDHeader = requestid.Header

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "biztrack-client/1.0"

	// maxResponseBody bounds how much of a response is read into memory.
	maxResponseBody = 1 << 20

	networkErrorMessage = "Network error. Please check your connection and try again."
)

// Client performs requests against the BizTrack REST API.
// It never retries: a failed attempt is surfaced to the caller immediately.
// Zero value is not usable; use New to create instances.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	timeout        time.Duration
	userAgent      string
	logger         *slog.Logger
	onUnauthorized atomic.Pointer[UnauthorizedHandler]
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Join(ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBaseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		userAgent:  defaultUserAgent,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("apiclient"))

	return c, nil
}

// NewFromConfig creates a client from environment-driven configuration.
// Explicit options take precedence over cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	base := []Option{WithTimeout(cfg.Timeout), WithUserAgent(cfg.UserAgent)}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// OnUnauthorized replaces the session-expiry hook. It exists so the session
// controller, which itself depends on this client, can subscribe after
// construction. Passing nil removes the hook.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	if h == nil {
		c.onUnauthorized.Store(nil)
		return
	}
	c.onUnauthorized.Store(&h)
}

// Do sends a single request and decodes a successful JSON response into out.
// out may be nil when the caller does not need the body.
//
// Every non-2xx response and every transport failure is returned as *Error.
// A 401 response additionally fires the unauthorized hook before Do returns.
func (c *Client) Do(ctx context.Context, method, path string, out any, opts ...RequestOption) error {
	options := &requestOptions{}
	for _, opt := range opts {
		opt(options)
	}

	req, err := c.newRequest(ctx, method, path, options)
	if err != nil {
		return &Error{
			Message:    "Failed to prepare request",
			StatusCode: StatusNetworkError,
			Err:        errors.Join(ErrInvalidRequest, err),
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req = req.WithContext(reqCtx)

	logPath := path
	if options.logPath != "" {
		logPath = options.logPath
	}
	log := c.logger.With(
		logger.RequestID(req.Header.Get(RequestIDHeader)),
		logger.Method(method),
		logger.Path(logPath),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WarnContext(ctx, "request failed", logger.Error(err), logger.Duration(time.Since(start)))
		return &Error{
			Message:    networkErrorMessage,
			StatusCode: StatusNetworkError,
			Err:        errors.Join(ErrNetwork, err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	log = log.With(logger.StatusCode(resp.StatusCode), logger.Duration(time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newResponseError(resp.StatusCode, body, options.fallbackMessage)
		log.InfoContext(ctx, "request rejected", slog.String("message", apiErr.Message))
		if apiErr.Unauthorized() {
			c.notifyUnauthorized(ctx, options.token, apiErr)
		}
		return apiErr
	}

	if readErr != nil {
		log.WarnContext(ctx, "failed to read response", logger.Error(readErr))
		return &Error{
			Message:    networkErrorMessage,
			StatusCode: StatusNetworkError,
			Err:        errors.Join(ErrNetwork, readErr),
		}
	}

	log.DebugContext(ctx, "request completed")

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			Message:    "Unexpected response from server",
			StatusCode: resp.StatusCode,
			Payload:    rawJSON(body),
			Err:        errors.Join(ErrInvalidBody, err),
		}
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, o *requestOptions) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(o.query) > 0 {
		target += "?" + o.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case o.isMultipart:
		buf, ct, err := encodeMultipart(o.formFields, o.files)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case o.hasJSON:
		payload, err := json.Marshal(o.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload to JSON: %w", err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	id := requestid.FromContext(ctx)
	if !requestid.Valid(id) {
		id = requestid.New()
	}
	req.Header.Set(RequestIDHeader, id)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	return req, nil
}

func (c *Client) notifyUnauthorized(ctx context.Context, token string, err *Error) {
	h := c.onUnauthorized.Load()
	if h == nil || *h == nil {
		return
	}
	(*h)(ctx, token, err)
}

// encodeMultipart builds a multipart/form-data body. The returned content
// type carries the writer's boundary.
func encodeMultipart(fields map[string]string, files []FilePart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	for _, f := range files {
		if f.Content == nil {
			continue
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write %q: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// errorEnvelope is the JSON shape of API error responses.
type errorEnvelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newResponseError(status int, body []byte, fallback string) *Error {
	apiErr := &Error{StatusCode: status, Err: ErrRequestFailed}
	if status == http.StatusUnauthorized {
		apiErr.Err = ErrUnauthorized
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		apiErr.Payload = rawJSON(body)
		switch {
		case env.Message != "":
			apiErr.Message = env.Message
		case env.Error != "":
			apiErr.Message = env.Error
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = fallback
	}
	if apiErr.Message == "" {
		apiErr.Message = "An unexpected error occurred"
	}

	return apiErr
}

func rawJSON(body []byte) json.RawMessage {
	if !json.Valid(body) {
		return nil
	}
	return json.RawMessage(bytes.Clone(body))
}
