// main.go is the process bootstrap: configuration loading and validation,
// logging setup, TES connectivity check, and MCP server wiring. No business
// logic lives here.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// version is set at build time via ldflags.
var version = "1.0.0"

const serverInstructions = `A TES MCP server that provides access to GA4GH Task Execution Service (TES)
functionality.

This server enables you to:
- Create computational tasks with containerized workflows
- Monitor task execution progress with intelligent polling
- Retrieve detailed task information including logs and outputs
- Handle task failures with comprehensive error information

USAGE PATTERNS:

1. Basic task execution:
   - Use create_tes_task to submit a new computational task
   - Use wait_for_task_completion to monitor progress
   - Use get_tes_task with view='FULL' to retrieve results

2. Task monitoring:
   - Use wait_for_task_completion for intelligent progress monitoring
   - Follow the next_action guidance in responses
   - Re-check after the recommended interval for efficient resource usage

3. Debugging failed tasks:
   - Always use get_tes_task with view='FULL' for failed tasks
   - Examine the logs section for detailed error information
   - Check resource requirements if tasks fail to start

The server handles authentication, retries, and error cases automatically.
All tools provide structured responses with clear guidance for next steps.`

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	app := &cli.App{
		Name:    "tes-mcp",
		Usage:   "MCP server exposing a GA4GH Task Execution Service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Usage:   "MCP transport: stdio or http",
				Value:   "stdio",
				EnvVars: []string{"MCP_TRANSPORT"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "print debug information",
				EnvVars: []string{"DEBUG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	setupLogging(cfg.LogLevel, c.Bool("debug"))

	log.Infof("starting TES MCP server v%s", version)
	logConfig(cfg)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error(e)
		}
		return fmt.Errorf("environment validation failed: fix the above issues before starting the server")
	}
	if cfg.TokenMissing() {
		log.Warn("TES_TOKEN environment variable should be set for secure authentication")
	}

	client, err := NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize TES client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !client.HealthCheck(ctx) {
		return fmt.Errorf("TES service at %s is not accessible", cfg.URL)
	}
	log.WithField("tes_url", cfg.URL).Info("TES service is accessible")

	server := newServer(cfg, client)
	log.Info("available tools: create_tes_task, wait_for_task_completion, get_tes_task")

	switch strings.ToLower(c.String("transport")) {
	case "stdio":
		log.Info("serving on stdio")
		return server.Run(ctx, &mcp.StdioTransport{})
	case "http":
		return serveHTTP(ctx, server, cfg)
	}
	return fmt.Errorf("unknown transport %q: must be stdio or http", c.String("transport"))
}

// newServer builds the MCP server and registers the three tools.
func newServer(cfg Config, tes taskService) *mcp.Server {
	h := newToolHandlers(tes, cfg)

	s := mcp.NewServer(
		&mcp.Implementation{Name: "tes-mcp", Title: "TES MCP Server", Version: version},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "create_tes_task",
		Title:       "Create TES Computational Task",
		Description: createTaskDescription,
	}, h.createTask)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_tes_task",
		Title:       "Get TES Task Details",
		Description: getTaskDescription,
	}, h.getTask)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "wait_for_task_completion",
		Title:       "Monitor TES Task Progress",
		Description: waitDescription,
	}, h.waitForTask)

	return s
}

// serveHTTP exposes the MCP server over the streamable HTTP transport and
// shuts down cleanly when the context is cancelled.
func serveHTTP(ctx context.Context, server *mcp.Server, cfg Config) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	srv := &http.Server{Addr: addr, Handler: handler}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("serving streamable HTTP")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func setupLogging(level string, debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// logConfig dumps the masked configuration in a stable order.
func logConfig(cfg Config) {
	masked := cfg.Masked()
	keys := make([]string, 0, len(masked))
	for k := range masked {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Infof("  %s: %s", k, masked[k])
	}
}
