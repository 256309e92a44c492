package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chipsock/chipsock/server"
	"github.com/chipsock/chipsock/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			slog.Error("Failed to load config", "path", *configPath, "error", err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		slog.Error("Invalid log level", "error", err.Error())
		os.Exit(1)
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	srv := server.New(server.Options{Config: cfg})

	wsServer := server.NewWSTransport(cfg.ListenAddr)
	wsServer.SetName("Command server")
	wsServer.SetDescription("WebSocket command/response endpoint")
	if cfg.MaxClients > 0 {
		wsServer.SetMaxClients(cfg.MaxClients)
	}
	srv.RegisterTransport(wsServer)

	var status *web.StatusServer
	if cfg.StatusAddr != "" {
		status = web.NewStatusServer(cfg.StatusAddr, srv.Registry())
		go func() {
			if err := status.Start(); err != nil {
				slog.Error("Status server exited with error", "error", err.Error())
			}
		}()
		defer status.Shutdown()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		slog.Error("Error running server", "error", err.Error())
		os.Exit(1)
	}
}
