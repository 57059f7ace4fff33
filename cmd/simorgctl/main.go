// Command simorgctl is a thin HTTP client for simorgd, grounded on slctl's
// apiClient pattern: one flag.FlagSet per subcommand, bearer auth from a
// flag or SIMORG_TOKEN, JSON in and out.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	defaultAddr := getenv("SIMORG_ADDR", "http://localhost:8080")
	defaultToken := os.Getenv("SIMORG_TOKEN")

	root := flag.NewFlagSet("simorgctl", flag.ContinueOnError)
	root.SetOutput(io.Discard)
	addrFlag := root.String("addr", defaultAddr, "simorgd base URL (env SIMORG_ADDR)")
	tokenFlag := root.String("token", defaultToken, "Bearer token for authentication (env SIMORG_TOKEN)")
	timeoutFlag := root.Duration("timeout", 15*time.Second, "HTTP request timeout")
	if err := root.Parse(args); err != nil {
		return usageError(err)
	}

	remaining := root.Args()
	if len(remaining) == 0 {
		return usageError(errors.New("no command specified"))
	}

	client := &apiClient{
		baseURL: strings.TrimRight(*addrFlag, "/"),
		token:   strings.TrimSpace(*tokenFlag),
		http:    &http.Client{Timeout: *timeoutFlag},
	}

	switch remaining[0] {
	case "append":
		return handleAppend(ctx, client, remaining[1:])
	case "projection":
		return handleProjection(ctx, client, remaining[1:])
	case "drift":
		return handleDrift(ctx, client, remaining[1:])
	case "verify":
		return handleVerify(ctx, client, remaining[1:])
	case "export":
		return handleExport(ctx, client, remaining[1:])
	case "import":
		return handleImport(ctx, client, remaining[1:])
	case "classify":
		return handleClassify(ctx, client, remaining[1:])
	case "version":
		return handleVersion(ctx, client)
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		return usageError(fmt.Errorf("unknown command %q", remaining[0]))
	}
}

func usageError(err error) error {
	printRootUsage()
	return err
}

func printRootUsage() {
	fmt.Println(`simorg CLI (simorgctl)

Usage:
  simorgctl [global flags] <command> [flags]

Global Flags:
  --addr     simorgd base URL (env SIMORG_ADDR, default http://localhost:8080)
  --token    API bearer token (env SIMORG_TOKEN)
  --timeout  HTTP timeout (default 15s)

Commands:
  append      Append one event from a JSON file to a project's log
  projection  Print a project's current state projection
  drift       Print a project's declared-vs-structural drift report
  verify      Re-run determinism verification for a project
  export      Print a project's full exported event log
  import      Replay an exported event log into an empty project
  classify    Push role classifications / declared departments for a project
  version     Show the server's kernel version info`)
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *apiClient) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		var parsed map[string]any
		if err := json.Unmarshal(data, &parsed); err == nil {
			if code, ok := parsed["code"].(string); ok && code != "" {
				msg = code
			}
			if field, ok := parsed["field"].(string); ok && field != "" {
				msg = fmt.Sprintf("%s (field %s)", msg, field)
			}
		}
		return nil, fmt.Errorf("%s %s: %s (status %d)", method, path, msg, resp.StatusCode)
	}
	return data, nil
}

func printJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Println(string(data))
		return nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func handleAppend(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	file := fs.String("file", "", "path to a JSON event envelope")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" || *file == "" {
		return errors.New("append requires --project and --file")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read event file: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("event file is not valid JSON: %w", err)
	}

	data, err := c.request(ctx, http.MethodPost, "/projects/"+*project+"/events", payload)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleProjection(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("projection", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" {
		return errors.New("projection requires --project")
	}
	data, err := c.request(ctx, http.MethodGet, "/projects/"+*project+"/projection", nil)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleDrift(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("drift", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" {
		return errors.New("drift requires --project")
	}
	data, err := c.request(ctx, http.MethodGet, "/projects/"+*project+"/drift", nil)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleVerify(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" {
		return errors.New("verify requires --project")
	}
	data, err := c.request(ctx, http.MethodGet, "/projects/"+*project+"/verify", nil)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleExport(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	out := fs.String("out", "", "write exported log to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" {
		return errors.New("export requires --project")
	}
	data, err := c.request(ctx, http.MethodGet, "/projects/"+*project+"/export", nil)
	if err != nil {
		return err
	}
	if *out == "" {
		return printJSON(data)
	}
	return os.WriteFile(*out, data, 0o644)
}

func handleImport(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	file := fs.String("file", "", "path to a previously exported log (simorgctl export --out)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" || *file == "" {
		return errors.New("import requires --project and --file")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read export file: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("export file is not valid JSON: %w", err)
	}

	data, err := c.request(ctx, http.MethodPost, "/projects/"+*project+"/import", payload)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleClassify(ctx context.Context, c *apiClient, args []string) error {
	fs := flag.NewFlagSet("classify", flag.ContinueOnError)
	project := fs.String("project", "", "project id")
	file := fs.String("file", "", `path to JSON {"classifications": {...}, "declared_departments": {...}}`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *project == "" || *file == "" {
		return errors.New("classify requires --project and --file")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read classifications file: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("classifications file is not valid JSON: %w", err)
	}

	data, err := c.request(ctx, http.MethodPut, "/projects/"+*project+"/classifications", payload)
	if err != nil {
		return err
	}
	return printJSON(data)
}

func handleVersion(ctx context.Context, c *apiClient) error {
	data, err := c.request(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return err
	}
	return printJSON(data)
}
