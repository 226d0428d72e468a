package discovery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnsupportedPlatform is returned when the host OS cannot run the League client
	ErrUnsupportedPlatform = errors.New("only windows and darwin platforms are supported")
	// ErrClientNotRunning is returned when no running client exposes credentials
	ErrClientNotRunning = errors.New("league client is not running")
	// ErrInvalidCredentials is returned when a port or token is missing or malformed
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLockfileNotFound is returned when the client lockfile cannot be read
	ErrLockfileNotFound = errors.New("lockfile not found")
)

// Credentials are the connection parameters of the local client API.
// They are issued by the client on each launch and never change afterwards.
type Credentials struct {
	// Port is the TCP port the client API listens on at 127.0.0.1
	Port string

	// Token is the password half of the "riot:<token>" basic credential
	Token string
}

// Validate checks that both values are present and the port is numeric
func (c Credentials) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidCredentials)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidCredentials)
	}
	n, err := strconv.Atoi(c.Port)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("%w: port %q is not a valid TCP port", ErrInvalidCredentials, c.Port)
	}
	return nil
}

// Discovery defines the interface for locating a running client's credentials
type Discovery interface {
	// Resolve returns the credentials of the running client
	Resolve(ctx context.Context) (Credentials, error)
}
