package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/chipsock/chipsock/client"
	"github.com/chipsock/chipsock/mcp"
)

func main() {
	url := flag.String("url", "ws://localhost:9002", "Command server URL")
	usePrefix := flag.Bool("prefix", false, "Emit the json: framing variant")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-request read timeout")
	flag.Parse()

	// stdout carries the MCP stream, so logs go to stderr.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	opts := []client.Option{client.WithTimeout(*timeout)}
	if *usePrefix {
		opts = append(opts, client.WithPrefix())
	}

	c := client.New(client.NewWebSocketTransport(), opts...)
	if err := c.Connect(*url); err != nil {
		slog.Error("Failed to connect to command server", "url", *url, "error", err.Error())
		os.Exit(1)
	}

	bridge := mcp.NewBridge(c, mcp.NewMCPServer())
	defer bridge.Shutdown()

	if err := bridge.Start(); err != nil {
		slog.Error("MCP bridge exited with error", "error", err.Error())
		os.Exit(1)
	}
}
