package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LockfileName is the file the client writes into its install directory on launch
const LockfileName = "lockfile"

// LockfileDiscovery reads credentials from the client's lockfile.
// The file holds a single line "name:pid:port:password:protocol".
type LockfileDiscovery struct {
	path string
}

// NewLockfileDiscovery creates a discovery for the given lockfile path.
// A directory is accepted too, in which case the lockfile inside it is used.
func NewLockfileDiscovery(path string) *LockfileDiscovery {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, LockfileName)
	}
	return &LockfileDiscovery{path: path}
}

// Resolve reads and parses the lockfile
func (l *LockfileDiscovery) Resolve(ctx context.Context) (Credentials, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %s: %v", ErrLockfileNotFound, l.path, err)
	}
	return ParseLockfile(string(data))
}

// ParseLockfile parses the contents of a client lockfile
func ParseLockfile(content string) (Credentials, error) {
	parts := strings.Split(strings.TrimSpace(content), ":")
	if len(parts) != 5 {
		return Credentials{}, fmt.Errorf("%w: lockfile has %d fields, expected 5", ErrInvalidCredentials, len(parts))
	}

	creds := Credentials{Port: parts[2], Token: parts[3]}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}
