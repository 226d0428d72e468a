package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/lcu-go/pkg/lcuclient"
)

func newStreamCommand() *cobra.Command {
	var (
		topics       []string
		bufferSize   int
		prettyFormat bool
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream resource change events in real-time",
		Long: `Stream resource change events from the client's event websocket.
Each --topic is an exact resource path such as /lol-gameflow/v1/gameflow-phase.
Press Ctrl+C to stop streaming.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Handle Ctrl+C gracefully
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStream(ctx, cmd.OutOrStdout(), topics, bufferSize, prettyFormat)
		},
	}

	cmd.Flags().StringArrayVar(&topics, "topic", nil, "Topic to stream (repeatable, required)")
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 100, "Event buffer size")
	cmd.Flags().BoolVar(&prettyFormat, "pretty", false, "Pretty print event data")
	if err := cmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("Failed to mark topic as required: %v", err))
	}

	return cmd
}

func runStream(ctx context.Context, out io.Writer, topics []string, bufferSize int, pretty bool) error {
	if err := requireClient(); err != nil {
		return err
	}
	if bufferSize < 1 {
		bufferSize = 1
	}

	stream, err := client.Events(ctx)
	if err != nil {
		return fmt.Errorf("failed to start streaming: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Debug("close stream", "error", err)
		}
	}()

	// Listeners run on the stream's read goroutine; hand events to this one
	events := make(chan lcuclient.Event, bufferSize)
	forward := func(e lcuclient.Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	for _, topic := range topics {
		stream.On(topic, forward)
	}

	fmt.Fprintf(out, "🌊 Streaming %d topic(s) from %s\n", len(topics), client.BaseURL())
	fmt.Fprintln(out, "Press Ctrl+C to stop streaming")

	// Process events and errors
	eventCount := 0
	frameErrors := stream.Errors()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\n✅ Stream stopped. Received %d events.\n", eventCount)
			return nil

		case event := <-events:
			eventCount++
			printEvent(out, event, eventCount, pretty)

		case err, ok := <-frameErrors:
			if !ok {
				frameErrors = nil
				continue
			}
			fmt.Fprintf(out, "❌ Dropped frame: %v\n", err)

		case <-stream.Done():
			for drained := false; !drained; {
				select {
				case event := <-events:
					eventCount++
					printEvent(out, event, eventCount, pretty)
				default:
					drained = true
				}
			}
			fmt.Fprintf(out, "\n🔌 Stream finished. Received %d events.\n", eventCount)
			return stream.Err()
		}
	}
}

func printEvent(out io.Writer, event lcuclient.Event, count int, pretty bool) {
	fmt.Fprintf(out, "📨 Event #%d:\n", count)
	fmt.Fprintf(out, "   URI: %s\n", event.URI)
	fmt.Fprintf(out, "   Type: %s\n", event.EventType)
	fmt.Fprint(out, "   Data: ")
	if len(event.Data) == 0 {
		fmt.Fprintln(out, "null")
	} else if err := writeJSON(out, event.Data, pretty); err != nil {
		fmt.Fprintf(out, "%s\n", event.Data)
	}
	fmt.Fprintln(out)
}
