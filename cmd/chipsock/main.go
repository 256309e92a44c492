package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/chipsock/chipsock/client"
	"github.com/chipsock/chipsock/proto"
)

func main() {
	url := flag.String("url", "ws://localhost:9002", "Server URL")
	discover := flag.Bool("discover", false, "Find the server via mDNS instead of -url")
	cluster := flag.String("cluster", "", "Cluster name, e.g. onoff")
	command := flag.String("command", "", "Command name, e.g. read")
	specifier := flag.String("specifier", "", "Optional command specifier, e.g. on-time")
	arguments := flag.String("arguments", "{}", "Arguments as inline JSON object")
	usePrefix := flag.Bool("prefix", false, "Emit the json: framing variant")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-request read timeout")
	expect := flag.String("expect", "success", "Expected outcome: success, empty or any")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	slog.SetDefault(slog.New(handler))

	if *cluster == "" || *command == "" {
		fmt.Fprintln(os.Stderr, "both -cluster and -command are required")
		flag.Usage()
		os.Exit(2)
	}

	var argValue map[string]any
	if err := json.Unmarshal([]byte(*arguments), &argValue); err != nil {
		fmt.Fprintf(os.Stderr, "-arguments must be a JSON object: %v\n", err)
		os.Exit(2)
	}

	addr := *url
	if *discover {
		service, err := client.DiscoverServer(*timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "discovery failed: %v\n", err)
			os.Exit(1)
		}
		addr = service.URL()
	}

	opts := []client.Option{client.WithTimeout(*timeout)}
	if *usePrefix {
		opts = append(opts, client.WithPrefix())
	}

	c := client.New(client.NewWebSocketTransport(), opts...)
	if err := c.Connect(addr); err != nil {
		fmt.Fprintf(os.Stderr, "connect failed: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	cmd, err := proto.NewCommand(*cluster, *command, *specifier, proto.ArgumentsValue(argValue))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid command: %v\n", err)
		os.Exit(2)
	}

	resp, err := c.Do(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}

	body, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(body))

	for _, entry := range resp.Logs {
		text, err := entry.DecodeMessage()
		if err != nil {
			fmt.Fprintf(os.Stderr, "undecodable log entry: %v\n", err)
			continue
		}
		fmt.Printf("[%s] %s\n", entry.Category, text)
	}

	var want proto.Outcome
	switch *expect {
	case "success":
		want = proto.Success
	case "empty":
		want = proto.EmptyResult
	case "any":
		if proto.Classify(resp) == proto.PartialFailure {
			os.Exit(1)
		}
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown -expect value %q\n", *expect)
		os.Exit(2)
	}

	if err := client.Expect(resp, want); err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		os.Exit(1)
	}
}
