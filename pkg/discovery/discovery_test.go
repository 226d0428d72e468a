package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleCmdline = `CommandLine
"C:/Riot Games/League of Legends/LeagueClientUx.exe" "--riotclient-auth-token=abc" "--riotclient-app-port=50001" "--app-port=54321" "--remoting-auth-token=Zx9_kq-Tr3" "--app-pid=1234"
`

// TestDiscoveryInterface_InterfaceCompliance tests that every source implements Discovery
func TestDiscoveryInterface_InterfaceCompliance(t *testing.T) {
	var _ Discovery = (*StaticDiscovery)(nil)
	var _ Discovery = (*ProcessDiscovery)(nil)
	var _ Discovery = (*LockfileDiscovery)(nil)
}

func TestStaticDiscovery_Resolve(t *testing.T) {
	creds, err := NewStaticDiscovery("2999", "secret").Resolve(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if creds.Port != "2999" || creds.Token != "secret" {
		t.Errorf("Unexpected credentials %+v", creds)
	}
}

func TestStaticDiscovery_InvalidCredentials(t *testing.T) {
	cases := map[string]*StaticDiscovery{
		"empty_port":   NewStaticDiscovery("", "secret"),
		"empty_token":  NewStaticDiscovery("2999", ""),
		"port_not_int": NewStaticDiscovery("http", "secret"),
		"port_range":   NewStaticDiscovery("70000", "secret"),
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.Resolve(context.Background())
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestParseCommandLine(t *testing.T) {
	creds, err := ParseCommandLine(sampleCmdline)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// --riotclient-app-port must not be confused with --app-port
	if creds.Port != "54321" {
		t.Errorf("Expected port 54321, got %q", creds.Port)
	}
	if creds.Token != "Zx9_kq-Tr3" {
		t.Errorf("Expected token Zx9_kq-Tr3, got %q", creds.Token)
	}
}

func TestParseCommandLine_NotRunning(t *testing.T) {
	for name, out := range map[string]string{
		"empty":      "",
		"no_port":    `"--remoting-auth-token=abc"`,
		"no_token":   `"--app-port=1234"`,
		"wmic_empty": "No Instance(s) Available.\r\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCommandLine(out)
			if !errors.Is(err, ErrClientNotRunning) {
				t.Errorf("Expected ErrClientNotRunning, got %v", err)
			}
		})
	}
}

func TestProcessDiscovery_Resolve(t *testing.T) {
	t.Run("windows_uses_wmic", func(t *testing.T) {
		var gotName string
		var gotArgs []string
		d := &ProcessDiscovery{
			GOOS: "windows",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				gotName, gotArgs = name, args
				return []byte(sampleCmdline), nil
			},
		}

		creds, err := d.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if creds.Port != "54321" {
			t.Errorf("Expected port 54321, got %q", creds.Port)
		}
		if gotName != "wmic" {
			t.Errorf("Expected wmic, got %q", gotName)
		}
		if len(gotArgs) != 5 || gotArgs[2] != "name='LeagueClientUx.exe'" {
			t.Errorf("Unexpected wmic args %v", gotArgs)
		}
	})

	t.Run("darwin_uses_ps", func(t *testing.T) {
		var gotName string
		d := &ProcessDiscovery{
			GOOS: "darwin",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				gotName = name
				return []byte("/Applications/League of Legends.app/LeagueClientUx --app-port=1111 --remoting-auth-token=tok"), nil
			},
		}

		creds, err := d.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if gotName != "ps" {
			t.Errorf("Expected ps, got %q", gotName)
		}
		if creds.Port != "1111" || creds.Token != "tok" {
			t.Errorf("Unexpected credentials %+v", creds)
		}
	})

	t.Run("darwin_skips_other_processes", func(t *testing.T) {
		listing := "ARGS\n" +
			"/Applications/Riot Client.app/Contents/MacOS/RiotClientServices --app-port=2222 --remoting-auth-token=riotclient\n" +
			"/Applications/League of Legends.app/Contents/LoL/LeagueClient.app/Contents/MacOS/LeagueClientUx --app-port=3333 --remoting-auth-token=league\n"
		d := &ProcessDiscovery{
			GOOS: "darwin",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte(listing), nil
			},
		}

		creds, err := d.Resolve(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if creds.Port != "3333" || creds.Token != "league" {
			t.Errorf("Expected LeagueClientUx credentials, got %+v", creds)
		}
	})

	t.Run("darwin_only_other_processes", func(t *testing.T) {
		d := &ProcessDiscovery{
			GOOS: "darwin",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte("RiotClientServices --app-port=2222 --remoting-auth-token=riotclient\n"), nil
			},
		}

		_, err := d.Resolve(context.Background())
		if !errors.Is(err, ErrClientNotRunning) {
			t.Errorf("Expected ErrClientNotRunning, got %v", err)
		}
	})

	t.Run("unsupported_platform", func(t *testing.T) {
		d := &ProcessDiscovery{
			GOOS: "linux",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				t.Fatal("runner must not be called on unsupported platforms")
				return nil, nil
			},
		}

		_, err := d.Resolve(context.Background())
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("Expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("runner_failure", func(t *testing.T) {
		boom := errors.New("boom")
		d := &ProcessDiscovery{
			GOOS: "windows",
			Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return nil, boom
			},
		}

		_, err := d.Resolve(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("Expected wrapped runner error, got %v", err)
		}
	})
}

func TestLockfileDiscovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockfileName)
	if err := os.WriteFile(path, []byte("LeagueClient:4242:62000:s3cr3t:https"), 0o600); err != nil {
		t.Fatalf("Failed to write lockfile: %v", err)
	}

	t.Run("file_path", func(t *testing.T) {
		creds, err := NewLockfileDiscovery(path).Resolve(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if creds.Port != "62000" || creds.Token != "s3cr3t" {
			t.Errorf("Unexpected credentials %+v", creds)
		}
	})

	t.Run("install_directory", func(t *testing.T) {
		creds, err := NewLockfileDiscovery(dir).Resolve(context.Background())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if creds.Port != "62000" {
			t.Errorf("Expected port 62000, got %q", creds.Port)
		}
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := NewLockfileDiscovery(filepath.Join(dir, "nope")).Resolve(context.Background())
		if !errors.Is(err, ErrLockfileNotFound) {
			t.Errorf("Expected ErrLockfileNotFound, got %v", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseLockfile("LeagueClient:4242:62000")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, got %v", err)
		}
	})
}
