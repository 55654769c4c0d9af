package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fablecraft/backend/internal/infrastructure/monitor"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var healthFlags struct {
	url     string
	fresh   bool
	timeout time.Duration
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running server and print its health report",
	Long:  "Fetches /api/v1/system/health and prints one line per check.\nExits non-zero when the server is unhealthy or unreachable.",
	RunE:  runHealth,
}

func init() {
	f := healthCmd.Flags()
	f.StringVar(&healthFlags.url, "url", "http://localhost:8080", "Base URL of the server")
	f.BoolVar(&healthFlags.fresh, "fresh", false, "Run the checks now instead of reading the cached report")
	f.DurationVar(&healthFlags.timeout, "timeout", 10*time.Second, "Request timeout")
}

var errUnhealthy = errors.New("server is unhealthy")

func runHealth(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), healthFlags.timeout)
	defer cancel()

	body, err := fetchHealth(ctx, http.DefaultClient, healthFlags.url, healthFlags.fresh)
	if err != nil {
		return err
	}
	return printHealth(cmd.OutOrStdout(), body)
}

func fetchHealth(ctx context.Context, client *http.Client, baseURL string, fresh bool) ([]byte, error) {
	url := strings.TrimRight(baseURL, "/") + "/api/v1/system/health"
	if fresh {
		url += "?fresh=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read health response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("unexpected health response (HTTP %d)", resp.StatusCode)
	}
	return body, nil
}

// printHealth renders the report envelope and fails on an unhealthy server
func printHealth(w io.Writer, body []byte) error {
	report := gjson.GetBytes(body, "data")
	status := report.Get("status").String()
	fmt.Fprintf(w, "Status:  %s\n", status)
	if v := report.Get("version").String(); v != "" {
		fmt.Fprintf(w, "Version: %s\n", v)
	}
	if up := report.Get("uptime").String(); up != "" {
		fmt.Fprintf(w, "Uptime:  %s\n", up)
	}

	report.Get("checks").ForEach(func(_, check gjson.Result) bool {
		line := fmt.Sprintf("  %-8s %-9s %6.1fms", check.Get("name").String(), check.Get("status").String(), check.Get("latency_ms").Float())
		if msg := check.Get("message").String(); msg != "" {
			line += "  " + msg
		}
		fmt.Fprintln(w, line)
		return true
	})

	if status == "" || status == string(monitor.StatusUnhealthy) {
		return errUnhealthy
	}
	return nil
}
