package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"reviewd/internal/assist"
	"reviewd/internal/common/fsutil"
	"reviewd/internal/config"
	"reviewd/internal/httpapi"
	"reviewd/internal/ollama"
)

const defaultModel = "llama3"

// options holds the resolved runtime settings: flags > env > config file > defaults.
type options struct {
	configPath string
	endpoint   string
	model      string
	timeoutSec int
	connectSec int
	logLevel   string
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// resolve fills unset options from the config file, then defaults.
func (o *options) resolve() (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("loading config: %w", err)
		}
		cfg = c
	}
	if o.endpoint == "" {
		o.endpoint = cfg.Endpoint
	}
	if o.endpoint == "" {
		o.endpoint = ollama.DefaultEndpoint
	}
	if o.model == "" {
		o.model = cfg.Model
	}
	if o.model == "" {
		o.model = defaultModel
	}
	if o.timeoutSec == 0 {
		o.timeoutSec = cfg.RequestTimeoutSec
	}
	if o.timeoutSec == 0 {
		o.timeoutSec = 120
	}
	if o.connectSec == 0 {
		o.connectSec = cfg.ConnectTimeoutSec
	}
	if o.connectSec == 0 {
		o.connectSec = 10
	}
	if o.logLevel == "" {
		o.logLevel = cfg.LogLevel
	}
	if o.logLevel == "" {
		o.logLevel = "info"
	}
	return cfg, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

// newService wires config into the client and service.
func (o *options) newService(log zerolog.Logger) *assist.Service {
	client := ollama.New(ollama.Config{
		Endpoint:       o.endpoint,
		Model:          o.model,
		RequestTimeout: time.Duration(o.timeoutSec) * time.Second,
		ConnectTimeout: time.Duration(o.connectSec) * time.Second,
	}, log)
	return assist.New(client, os.Stdout, log)
}

func buildRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "reviewd",
		Short:         "Code review and test-case generation backed by a local Ollama server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", envOr("REVIEWD_CONFIG", ""), "Path to config file (.yaml/.json/.toml)")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", envOr("REVIEWD_ENDPOINT", ""), "Inference server base URL (defaults REVIEWD_ENDPOINT or http://localhost:11434)")
	root.PersistentFlags().StringVar(&opts.model, "model", envOr("REVIEWD_MODEL", ""), "Model name sent with every request (defaults REVIEWD_MODEL or llama3)")
	root.PersistentFlags().IntVar(&opts.timeoutSec, "timeout", envOrInt("REVIEWD_TIMEOUT_SEC", 0), "Request timeout in seconds (0 = config default)")
	root.PersistentFlags().IntVar(&opts.connectSec, "connect-timeout", envOrInt("REVIEWD_CONNECT_TIMEOUT_SEC", 0), "Dial timeout in seconds (0 = config default)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("REVIEWD_LOG_LEVEL", ""), "Log level: debug|info|warn|error")

	// review
	var focus, language string
	reviewCmd := &cobra.Command{
		Use:     "review <code-file>",
		Short:   "Ask the model for review suggestions on a code file",
		Example: "  reviewd review main.go --focus readability --language go",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.resolve(); err != nil {
				return err
			}
			log := newLogger(opts.logLevel)
			code, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			svc := opts.newService(log)
			return svc.PrintCodeSuggestions(cmd.Context(), code, focus, language)
		},
	}
	reviewCmd.Flags().StringVar(&focus, "focus", "correctness and readability", "Aspect the review should concentrate on")
	reviewCmd.Flags().StringVar(&language, "language", "go", "Programming language of the code")
	root.AddCommand(reviewCmd)

	// testcases
	var formatFile string
	var count int
	testcasesCmd := &cobra.Command{
		Use:     "testcases <question-file>",
		Short:   "Generate test cases for a problem description",
		Example: "  reviewd testcases problem.txt --format-file case.json --count 10",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.resolve(); err != nil {
				return err
			}
			log := newLogger(opts.logLevel)
			question, err := readFileArg(args[0])
			if err != nil {
				return err
			}
			format := defaultCaseFormat
			if formatFile != "" {
				format, err = readFileArg(formatFile)
				if err != nil {
					return err
				}
			}
			svc := opts.newService(log)
			return svc.PrintTestCases(cmd.Context(), question, format, count)
		},
	}
	testcasesCmd.Flags().StringVar(&formatFile, "format-file", "", "File holding the JSON template of one test case")
	testcasesCmd.Flags().IntVar(&count, "count", 10, "Number of cases to request (passed to the model verbatim)")
	root.AddCommand(testcasesCmd)

	// ask
	askCmd := &cobra.Command{
		Use:     "ask <prompt...>",
		Short:   "Send a free-form prompt and print the reply",
		Example: "  reviewd ask write a haiku about the ocean",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.resolve(); err != nil {
				return err
			}
			log := newLogger(opts.logLevel)
			svc := opts.newService(log)
			out, err := svc.Generate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	root.AddCommand(askCmd)

	// serve
	var addr, corsOrigins string
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Expose the operations over HTTP",
		Example: "  reviewd serve --addr :8080",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Addr
			}
			if addr == "" {
				addr = ":8080"
			}
			if corsOrigins == "" {
				corsOrigins = cfg.CORSOrigins
			}
			return runServe(opts, addr, corsOrigins)
		},
	}
	serveCmd.Flags().StringVar(&addr, "addr", envOr("REVIEWD_ADDR", ""), "HTTP listen address, e.g. :8080")
	serveCmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (empty disables CORS)")
	root.AddCommand(serveCmd)

	return root
}

// defaultCaseFormat is used when no format template file is supplied.
const defaultCaseFormat = `{"id": 0, "hidden": false, "input": "", "expected_output": ""}`

// readFileArg loads a file named on the command line, with an existence
// check up front so a typo fails with the path spelled out rather than a
// bare read error.
func readFileArg(path string) (string, error) {
	p, err := fsutil.ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !fsutil.PathExists(p) {
		return "", fmt.Errorf("no such file: %s", p)
	}
	return fsutil.ReadString(p)
}

func runServe(opts *options, addr, corsOrigins string) error {
	log := newLogger(opts.logLevel)
	svc := opts.newService(log)

	if origins := splitCSV(corsOrigins); len(origins) > 0 {
		httpapi.SetCORSOptions(true, origins,
			[]string{http.MethodGet, http.MethodPost},
			[]string{"Accept", "Content-Type"})
	}
	httpapi.SetLogger(log)

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("endpoint", opts.endpoint).Str("model", opts.model).Msg("reviewd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
