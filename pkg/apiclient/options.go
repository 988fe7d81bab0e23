package apiclient

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Config holds the environment-driven client settings.
type Config struct {
	BaseURL   string        `env:"BIZTRACK_API_URL,required"`
	Timeout   time.Duration `env:"BIZTRACK_API_TIMEOUT" envDefault:"10s"`
	UserAgent string        `env:"BIZTRACK_USER_AGENT" envDefault:"biztrack-client/1.0"`
}

// UnauthorizedHandler is invoked for every 401 response, before the error is
// returned to the caller. token is the bearer token the request carried, or
// empty for unauthenticated calls.
type UnauthorizedHandler func(ctx context.Context, token string, err *Error)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
// Useful for custom transports, proxies, or testing.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout. Default is 10 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for per-request records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUnauthorizedHandler registers the session-expiry hook at construction
// time. See Client.OnUnauthorized for late registration.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) {
		if h != nil {
			c.onUnauthorized.Store(&h)
		}
	}
}

// FilePart is a single file attached to a multipart request.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// requestOptions holds the per-call settings built from RequestOption values.
type requestOptions struct {
	token           string
	query           url.Values
	jsonBody        any
	hasJSON         bool
	formFields      map[string]string
	files           []FilePart
	isMultipart     bool
	fallbackMessage string
	logPath         string
}

// RequestOption configures a single call to Client.Do.
type RequestOption func(*requestOptions)

// WithToken attaches "Authorization: Bearer <token>". Empty tokens are ignored.
func WithToken(token string) RequestOption {
	return func(o *requestOptions) {
		o.token = token
	}
}

// WithQuery appends query parameters. Empty values are dropped.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = url.Values{}
		}
		for k, vs := range values {
			for _, v := range vs {
				if v != "" {
					o.query.Add(k, v)
				}
			}
		}
	}
}

// WithJSON sends body encoded as JSON with Content-Type: application/json.
func WithJSON(body any) RequestOption {
	return func(o *requestOptions) {
		o.jsonBody = body
		o.hasJSON = true
		o.isMultipart = false
	}
}

// WithMultipart sends a multipart/form-data body. The Content-Type header,
// including the boundary, is produced by the multipart writer.
func WithMultipart(fields map[string]string, files ...FilePart) RequestOption {
	return func(o *requestOptions) {
		o.formFields = fields
		o.files = files
		o.isMultipart = true
		o.hasJSON = false
	}
}

// WithFallbackMessage sets the message used when an error response carries
// none of its own.
func WithFallbackMessage(msg string) RequestOption {
	return func(o *requestOptions) {
		if msg != "" {
			o.fallbackMessage = msg
		}
	}
}

// WithLogPath replaces the path recorded in logs, for paths that embed
// secrets such as password reset tokens.
func WithLogPath(p string) RequestOption {
	return func(o *requestOptions) {
		o.logPath = p
	}
}
