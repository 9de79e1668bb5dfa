// Command healthcheck probes the local liveness endpoint and exits non-zero
// when it does not answer 200. It is meant for container HEALTHCHECK use.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const defaultPort = "8000"

func main() {
	os.Exit(check())
}

func check() int {
	addr := probeAddr(os.Getenv("SERVER_HOST"), os.Getenv("SERVER_PORT"))

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}

// probeAddr connects to loopback when the server binds every interface,
// since the probe runs next to the server.
func probeAddr(host, port string) string {
	if port == "" {
		port = defaultPort
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
