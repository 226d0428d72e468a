package discovery

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// ProcessName is the executable that hosts the local client API
const ProcessName = "LeagueClientUx.exe"

// processBinary matches the executable on every platform; macOS drops the .exe
const processBinary = "LeagueClientUx"

var (
	portPattern  = regexp.MustCompile(`--app-port=([0-9]+)`)
	tokenPattern = regexp.MustCompile(`--remoting-auth-token=([\w-]+)`)
)

// CommandRunner runs a command and returns its standard output
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ProcessDiscovery finds credentials by reading the command line of the
// running LeagueClientUx process.
type ProcessDiscovery struct {
	// GOOS selects the process listing command. Defaults to runtime.GOOS.
	GOOS string

	// Run executes the listing command. Defaults to os/exec.
	Run CommandRunner
}

// NewProcessDiscovery creates a process discovery for the host platform
func NewProcessDiscovery() *ProcessDiscovery {
	return &ProcessDiscovery{
		GOOS: runtime.GOOS,
		Run:  execCommand,
	}
}

// Resolve lists processes and extracts the client's port and token
func (p *ProcessDiscovery) Resolve(ctx context.Context) (Credentials, error) {
	goos := p.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	run := p.Run
	if run == nil {
		run = execCommand
	}

	name, args, err := listCommand(goos)
	if err != nil {
		return Credentials{}, err
	}

	out, err := run(ctx, name, args...)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to list processes: %w", err)
	}

	listing := string(out)
	if goos == "darwin" {
		// ps lists every process, and the Riot Client carries the same flags
		listing = clientProcessLines(listing)
	}
	return ParseCommandLine(listing)
}

// clientProcessLines keeps the lines of a process listing that belong to the client
func clientProcessLines(listing string) string {
	var kept []string
	for _, line := range strings.Split(listing, "\n") {
		if strings.Contains(line, processBinary) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// ParseCommandLine extracts the app port and remoting auth token from a
// process command line. Output of several processes may be passed at once;
// the first match of each flag wins.
func ParseCommandLine(cmdline string) (Credentials, error) {
	port := portPattern.FindStringSubmatch(cmdline)
	if port == nil {
		return Credentials{}, fmt.Errorf("%w: --app-port not found", ErrClientNotRunning)
	}
	token := tokenPattern.FindStringSubmatch(cmdline)
	if token == nil {
		return Credentials{}, fmt.Errorf("%w: --remoting-auth-token not found", ErrClientNotRunning)
	}

	creds := Credentials{Port: port[1], Token: token[1]}
	if err := creds.Validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func listCommand(goos string) (string, []string, error) {
	switch goos {
	case "windows":
		return "wmic", []string{"PROCESS", "WHERE", fmt.Sprintf("name='%s'", ProcessName), "GET", "commandline"}, nil
	case "darwin":
		return "ps", []string{"-A", "-o", "args"}, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
