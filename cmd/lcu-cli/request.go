package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rmacdonaldsmith/lcu-go/pkg/lcuclient"
)

// newRequestCommand builds the get, post, put and delete commands
func newRequestCommand(method string) *cobra.Command {
	var (
		body         string
		prettyFormat bool
		output       string
	)

	name := strings.ToLower(method)
	cmd := &cobra.Command{
		Use:   name + " <path>",
		Short: fmt.Sprintf("Send a %s request to the client API", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd.Context(), cmd.OutOrStdout(), method, args[0], body, output, prettyFormat)
		},
	}

	if method == "POST" || method == "PUT" {
		cmd.Flags().StringVar(&body, "body", "", "JSON request body (defaults to {})")
	}
	cmd.Flags().BoolVar(&prettyFormat, "pretty", false, "Pretty print the JSON response")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")

	return cmd
}

func runRequest(ctx context.Context, out io.Writer, method, path, body, output string, pretty bool) error {
	if err := requireClient(); err != nil {
		return err
	}
	if output != "json" && output != "yaml" {
		return fmt.Errorf("unsupported output format %q", output)
	}

	var payload any
	if body != "" {
		if !json.Valid([]byte(body)) {
			return fmt.Errorf("invalid JSON body: %s", body)
		}
		payload = json.RawMessage(body)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug("sending request", "method", method, "path", lcuclient.NormalizePath(path))

	response, err := client.Do(ctx, method, path, payload)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, lcuclient.NormalizePath(path), err)
	}

	if output == "yaml" {
		return writeYAML(out, response)
	}
	return writeJSON(out, response, pretty)
}

func writeJSON(out io.Writer, raw json.RawMessage, pretty bool) error {
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err == nil {
			raw = buf.Bytes()
		}
	}
	_, err := fmt.Fprintf(out, "%s\n", raw)
	return err
}

// writeYAML re-encodes a JSON document as YAML
func writeYAML(out io.Writer, raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
