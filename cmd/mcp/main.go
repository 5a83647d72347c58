package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/seamless-agent/console/internal/mcp"
)

func main() {
	port := flag.Int("port", 0, "port of the running Agent Console bridge")
	token := flag.String("token", "", "session token issued by the console")
	flag.Parse()

	// The console writes these into the host registration as flags, but
	// allow env for hand-launched debugging sessions.
	if *port == 0 {
		if v, err := strconv.Atoi(os.Getenv("SEAMLESS_PORT")); err == nil {
			*port = v
		}
	}
	if *token == "" {
		*token = os.Getenv("SEAMLESS_TOKEN")
	}

	if *port == 0 || *token == "" {
		fmt.Fprintln(os.Stderr, "usage: seamless-agent-mcp --port <port> --token <token>")
		os.Exit(2)
	}

	srv := mcp.NewServer(*port, *token)
	if err := srv.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcp server error:", err)
		os.Exit(1)
	}
}
