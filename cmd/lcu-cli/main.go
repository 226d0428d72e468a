package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/lcu-go/pkg/discovery"
	"github.com/rmacdonaldsmith/lcu-go/pkg/lcuclient"
)

var (
	// Global flags
	port       string
	token      string
	certFile   string
	lockfile   string
	configFile string
	timeout    time.Duration
	verbose    bool

	// Resolved at startup by initializeClient
	creds  discovery.Credentials
	client *lcuclient.Client
	logger *slog.Logger
)

func main() {
	rootCmd := newRootCommand()

	err := rootCmd.Execute()
	closeClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lcu-cli",
		Short: "League Client local API command line interface",
		Long: `lcu-cli talks to the League of Legends desktop client over its local API.
It discovers the running client, issues REST requests and streams resource
change events from the client's event websocket.`,
		PersistentPreRunE: initializeClient,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&port, "port", "", "Client API port (skips discovery when used with --token)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Remoting auth token (skips discovery when used with --port)")
	rootCmd.PersistentFlags().StringVar(&certFile, "cert", "", "PEM trust anchor (defaults to the embedded Riot root)")
	rootCmd.PersistentFlags().StringVar(&lockfile, "lockfile", "", "Read credentials from this lockfile or install directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (defaults to lcu-cli.yaml in . or ~/.lcu-cli)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newRequestCommand("GET"))
	rootCmd.AddCommand(newRequestCommand("POST"))
	rootCmd.AddCommand(newRequestCommand("PUT"))
	rootCmd.AddCommand(newRequestCommand("DELETE"))
	rootCmd.AddCommand(newStreamCommand())
	rootCmd.AddCommand(newCredentialsCommand())

	return rootCmd
}

// initializeClient resolves settings and credentials and builds the client
func initializeClient(cmd *cobra.Command, args []string) error {
	// Skip client initialization for help commands
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger = newLogger(cmd.ErrOrStderr(), s.Verbose)

	d, err := selectDiscovery(s)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), s.Timeout)
	defer cancel()

	creds, err = d.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve credentials: %w", err)
	}
	logger.Debug("resolved credentials", "port", creds.Port)

	client, err = lcuclient.NewClient(creds, lcuclient.Config{
		CertFile: s.Cert,
		Timeout:  s.Timeout,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	timeout = s.Timeout

	return nil
}

// selectDiscovery picks static credentials, a lockfile or the process list, in that order
func selectDiscovery(s settings) (discovery.Discovery, error) {
	switch {
	case s.Port != "" && s.Token != "":
		return discovery.NewStaticDiscovery(s.Port, s.Token), nil
	case s.Port != "" || s.Token != "":
		return nil, fmt.Errorf("--port and --token must be given together")
	case s.Lockfile != "":
		return discovery.NewLockfileDiscovery(s.Lockfile), nil
	default:
		return discovery.NewProcessDiscovery(), nil
	}
}

// requireClient checks that initializeClient ran
func requireClient() error {
	if client == nil {
		return fmt.Errorf("client not initialized")
	}
	return nil
}

func closeClient() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil && logger != nil {
		logger.Debug("close client", "error", err)
	}
	client = nil
}
