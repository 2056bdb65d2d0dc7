// Command trigger calls the cron endpoint once, for use from an external scheduler.
// It exits 1 when the request fails and 2 when any task reported an error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"condo-automation/internal/core/domain"

	"github.com/joho/godotenv"
)

const (
	exitOK        = 0
	exitFailed    = 1
	exitJobErrors = 2
)

// runResponse decodes either a run report or an error envelope.
type runResponse struct {
	domain.RunReport
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("CONDO_TRIGGER_URL", "http://localhost:8080"), "engine base URL")
	task := flag.String("task", "", "run a single task instead of all")
	secret := flag.String("secret", os.Getenv("CONDO_CRON_SECRET"), "cron bearer secret")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	os.Exit(run(ctx, http.DefaultClient, *baseURL, *task, *secret, os.Stdout, os.Stderr))
}

func run(ctx context.Context, client *http.Client, baseURL, task, secret string, stdout, stderr io.Writer) int {
	endpoint := strings.TrimRight(baseURL, "/") + "/api/v1/cron/run"
	if task != "" {
		endpoint += "/" + task
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		fmt.Fprintf(stderr, "building request: %v\n", err)
		return exitFailed
	}
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(stderr, "calling %s: %v\n", endpoint, err)
		return exitFailed
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		fmt.Fprintf(stderr, "reading response: %v\n", err)
		return exitFailed
	}

	var res runResponse
	if err := json.Unmarshal(body, &res); err != nil {
		fmt.Fprintf(stderr, "unexpected response (HTTP %d): %s\n", resp.StatusCode, body)
		return exitFailed
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "HTTP %d %s: %s\n", resp.StatusCode, res.ErrorCode, res.Message)
		return exitFailed
	}

	for _, o := range res.Summary {
		line := fmt.Sprintf("%-24s %-5s %6dms", o.Task, o.Status, o.DurationMS)
		if o.Error != "" {
			line += "  " + o.Error
		}
		fmt.Fprintln(stdout, line)
	}

	if res.HasErrors() {
		return exitJobErrors
	}
	return exitOK
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
