package lcuclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrCertNotFound is returned when an explicitly configured certificate file cannot be read
	ErrCertNotFound = errors.New("certificate file not found")
	// ErrInvalidCert is returned when trust anchor bytes contain no usable certificate
	ErrInvalidCert = errors.New("invalid trust anchor certificate")
	// ErrUntrustedCertificate is returned when the server certificate does not chain to the trust anchor
	ErrUntrustedCertificate = errors.New("server certificate is not signed by the pinned trust anchor")
	// ErrInvalidResponse is returned when a successful response body is empty or not JSON
	ErrInvalidResponse = errors.New("response body is not valid JSON")
	// ErrStreamClosed is returned by an event stream whose connection has ended
	ErrStreamClosed = errors.New("event stream closed")
)

// Config holds client configuration
type Config struct {
	// CertFile is a PEM file used as the trust anchor instead of the built-in
	// Riot Games root. A path that cannot be read is a construction error.
	CertFile string

	// CertPEM holds trust anchor bytes directly. Takes precedence over CertFile.
	CertPEM []byte

	// Timeout for HTTP requests
	Timeout time.Duration

	// HandshakeTimeout for the event stream websocket
	HandshakeTimeout time.Duration

	// ErrorBufferSize is the capacity of an event stream's Errors channel
	ErrorBufferSize int

	// Logger receives debug output from event streams. Nil discards.
	Logger *slog.Logger
}

// SetDefaults sets reasonable default values for the config
func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.ErrorBufferSize == 0 {
		c.ErrorBufferSize = 16
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Frame kinds of the event channel envelope
const (
	FrameWelcome     = 0
	FrameSubscribe   = 5
	FrameUnsubscribe = 6
	FrameEvent       = 8
)

// Event is a single publish notification delivered to topic listeners
type Event struct {
	// URI is the topic the event was published on
	URI string `json:"uri"`

	// EventType is "Create", "Update" or "Delete"
	EventType string `json:"eventType"`

	// Data is the resource payload, undecoded
	Data json.RawMessage `json:"data"`
}

// ErrorResponse is the error body returned by the local client API
type ErrorResponse struct {
	ErrorCode  string `json:"errorCode"`
	HTTPStatus int    `json:"httpStatus"`
	Message    string `json:"message"`
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte

	// Response is the decoded error body, nil when the body has another shape
	Response *ErrorResponse
}

func (e *APIError) Error() string {
	if e.Response != nil && e.Response.Message != "" {
		return fmt.Sprintf("API error (%d): %s - %s", e.StatusCode, e.Response.ErrorCode, e.Response.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, string(e.Body))
}
