package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newCredentialsCommand() *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Print the discovered port and auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCredentials(cmd.OutOrStdout(), showToken)
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the token instead of a masked form")

	return cmd
}

func runCredentials(out io.Writer, showToken bool) error {
	if err := requireClient(); err != nil {
		return err
	}

	shown := maskToken(creds.Token)
	if showToken {
		shown = creds.Token
	}

	fmt.Fprintf(out, "Port: %s\n", creds.Port)
	fmt.Fprintf(out, "Token: %s\n", shown)
	fmt.Fprintf(out, "Base URL: %s\n", client.BaseURL())
	return nil
}

// maskToken keeps the last four characters
func maskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
