package lcuclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/rmacdonaldsmith/lcu-go/pkg/discovery"
)

const (
	// Host is the loopback address the local client API binds to
	Host = "127.0.0.1"

	authUser = "riot"
)

// Client provides authenticated access to the local client API
type Client struct {
	config     Config
	creds      discovery.Credentials
	anchor     *trustAnchor
	httpClient *http.Client
	baseURL    string
	authHeader string

	mu     sync.Mutex
	stream *EventStream
}

// NewClient creates a client for already resolved credentials.
// The trust anchor is resolved here, once; no connection is opened.
func NewClient(creds discovery.Credentials, config Config) (*Client, error) {
	config.SetDefaults()

	if err := creds.Validate(); err != nil {
		return nil, err
	}

	pemBytes, err := ResolveTrustAnchor(config.CertFile, config.CertPEM)
	if err != nil {
		return nil, err
	}
	anchor, err := newTrustAnchor(pemBytes)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: anchor.tlsConfig(),
			MaxIdleConns:    10,
		},
	}

	return &Client{
		config:     config,
		creds:      creds,
		anchor:     anchor,
		httpClient: httpClient,
		baseURL:    "https://" + net.JoinHostPort(Host, creds.Port),
		authHeader: BasicAuth(creds.Token),
	}, nil
}

// Connect resolves credentials through d and creates a client for them
func Connect(ctx context.Context, d discovery.Discovery, config Config) (*Client, error) {
	creds, err := d.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials: %w", err)
	}
	return NewClient(creds, config)
}

// NormalizePath prepends "/" to paths that lack it. Nothing else is touched.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// BasicAuth returns the Authorization header value for a remoting token
func BasicAuth(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(authUser+":"+token))
}

// Port returns the port the client talks to
func (c *Client) Port() string {
	return c.creds.Port
}

// BaseURL returns the https origin of the local client API
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request and returns the raw JSON response
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with body encoded as JSON
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with body encoded as JSON
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// GetInto performs a GET request and decodes the response into v
func (c *Client) GetInto(ctx context.Context, path string, v any) error {
	raw, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Do performs an authenticated request against the local client API.
// POST and PUT send body as JSON ({} when body is nil); other methods send no body.
// A 2xx response must carry a JSON body, which is returned unchanged.
func (c *Client) Do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	fullURL := c.baseURL + NormalizePath(path)

	var bodyReader io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		jsonBody := []byte("{}")
		if body != nil {
			var err error
			jsonBody, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       bodyBytes,
		}
		var errResp ErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && (errResp.ErrorCode != "" || errResp.Message != "") {
			apiErr.Response = &errResp
		}
		return nil, apiErr
	}

	// Empty and non-JSON bodies are both failures
	var probe any
	if err := json.Unmarshal(bodyBytes, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return json.RawMessage(bodyBytes), nil
}

// Events returns the client's event stream, opening the websocket on first use.
// Later calls return the same stream until it terminates, after which a new
// connection is opened.
func (c *Client) Events(ctx context.Context) (*EventStream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil && !c.stream.terminated() {
		return c.stream, nil
	}

	stream, err := dialEventStream(ctx, c.websocketURL(), c.websocketHeader(), c.anchor.tlsConfig(), c.config)
	if err != nil {
		return nil, err
	}
	c.stream = stream
	return stream, nil
}

// Close closes the shared event stream, if any, and idle HTTP connections
func (c *Client) Close() error {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	c.httpClient.CloseIdleConnections()
	if stream != nil {
		return stream.Close()
	}
	return nil
}

// websocketURL is wss://127.0.0.1:{port}/. gorilla/websocket refuses userinfo
// in the URL, so the riot:{token} credential travels in websocketHeader.
func (c *Client) websocketURL() string {
	return "wss://" + net.JoinHostPort(Host, c.creds.Port) + "/"
}

func (c *Client) websocketHeader() http.Header {
	header := http.Header{}
	header.Set("Authorization", c.authHeader)
	return header
}
