// Package main is the yomu CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/yomu/internal/cli"
	"github.com/hyperjump/yomu/internal/config"
	"github.com/hyperjump/yomu/internal/extract"
	"github.com/hyperjump/yomu/internal/generation"
	"github.com/hyperjump/yomu/internal/models"
	"github.com/hyperjump/yomu/internal/prompt"
	"github.com/hyperjump/yomu/internal/server"
	"github.com/hyperjump/yomu/internal/session"
	"github.com/hyperjump/yomu/internal/watcher"
	"github.com/hyperjump/yomu/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/yomu/config.yaml"
	defaultServerURL  = "http://localhost:8080"
	clientTimeout     = 3 * time.Minute
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// A missing file at the default path yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	config.LoadDotEnv()
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "summarize":
		runSummarize()
	case "chat":
		runChat()
	case "extract":
		runExtract()
	case "ask":
		runAsk()
	case "submit":
		runSubmit()
	case "history":
		runHistory()
	case "status":
		runStatus()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("yomu version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "yomu ask what is this --server URL"
// would otherwise leave --server unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// buildQuestion joins all positional args with spaces so multi-word questions
// work the same with or without shell quoting.
func buildQuestion(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func parseOutput(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fatalf("%v", err)
	}
	return format
}

// components is everything a local session needs.
type components struct {
	Extractor *extract.Orchestrator
	Generator generation.Generator
	Session   *session.Session
}

func (c *components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
}

// newOrchestrator wires the extraction strategies from config. OCR is only attached when enabled.
func newOrchestrator(cfg *config.Config, logger *zap.Logger) *extract.Orchestrator {
	opts := []extract.Option{
		extract.WithMinContent(cfg.Extraction.MinContentChars),
		extract.WithLogger(logger),
	}
	if cfg.Extraction.OCR.EnabledOrDefault() {
		opts = append(opts, extract.WithFallback(extract.NewOCRExtractor(
			float64(cfg.Extraction.OCR.DPI),
			extract.WithLanguage(cfg.Extraction.OCR.Language),
			extract.WithOCRLogger(logger),
		)))
	}
	return extract.NewOrchestrator(opts...)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	orch := newOrchestrator(cfg, logger)
	gen, err := generation.New(ctx, &cfg.Generation, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation backend: %w", err)
	}
	sess := session.New(orch, gen,
		session.WithLogger(logger),
		session.WithRejectConcurrent(cfg.Session.RejectConcurrent),
		session.WithBuilder(prompt.NewBuilder(cfg.Context.MaxDocumentChars)),
	)
	return &components{Extractor: orch, Generator: gen, Session: sess}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (extraction, prompts, inbox events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("generation_backend", cfg.Generation.Backend),
		zap.String("generation_model", cfg.Generation.Model),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	g, gctx := errgroup.WithContext(ctx)

	var watchSvc server.WatchService
	if cfg.Watch.Directory != "" {
		w := watcher.NewWatcher(cfg.Watch.Directory, cfg.Watch.Extensions,
			inboxSubmitter(comps.Session, logger),
			watcher.WithLogger(logger),
		)
		watchSvc = w
		g.Go(func() error { return w.Run(gctx) })
		g.Go(func() error {
			if _, err := w.SubmitLatest(gctx); err != nil {
				logger.Warn("inbox scan failed", zap.String("dir", w.Directory()), zap.Error(err))
			}
			return nil
		})
	}

	srv := server.NewServer(comps.Session, cfg, watchSvc, logger)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// inboxSubmitter reads a dropped file and processes it as the new active document.
func inboxSubmitter(sess *session.Session, logger *zap.Logger) watcher.SubmitFunc {
	return func(ctx context.Context, path string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		resp, err := sess.Process(ctx, path, content)
		if err != nil {
			return errors.New(session.Diagnostic(err))
		}
		logger.Info("inbox document processed",
			zap.String("path", path),
			zap.String("id", resp.Document.ID),
			zap.String("summary", utils.Truncate(resp.Summary, 200)),
		)
		return nil
	}
}

// localSession loads config and builds a session for one-shot commands.
func localSession(fs *flag.FlagSet, configPath string, debug bool) (*components, *zap.Logger, string) {
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	comps, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fatalf("%v", err)
	}
	return comps, logger, fs.Arg(0)
}

// processFile submits path to sess and prints the summary, exiting on failure.
func processFile(ctx context.Context, sess *session.Session, path string, format cli.OutputFormat) {
	content, err := os.ReadFile(path)
	if err != nil {
		fatalf("Failed to read %s: %v", path, err)
	}
	resp, err := sess.Process(ctx, path, content)
	if err != nil {
		fatalf("%s", session.Diagnostic(err))
	}
	if err := cli.WriteSubmit(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSummarize() {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu summarize [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := parseOutput(*output)

	comps, logger, path := localSession(fs, *configPath, *debug)
	defer logger.Sync()
	defer comps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	processFile(ctx, comps.Session, path, format)
}

func runChat() {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu chat [flags] <file>\n\nAsk questions about the file, one per line. Type \"exit\" or press Ctrl-D to quit.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))

	comps, logger, path := localSession(fs, *configPath, *debug)
	defer logger.Sync()
	defer comps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	processFile(ctx, comps.Session, path, cli.OutputText)
	fmt.Println()
	if err := chatLoop(ctx, os.Stdin, os.Stdout, comps.Session.Ask); err != nil {
		fatalf("Input failed: %v", err)
	}
}

// chatLoop reads one question per line from in and writes each answer to out until EOF,
// "exit"/"quit", or ctx is cancelled. Blank lines are skipped.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, ask func(context.Context, string) (*models.AnswerResponse, bool)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "Q> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		resp, asked := ask(ctx, line)
		if !asked {
			continue
		}
		fmt.Fprintf(out, "%s\n\n", resp.Answer)
	}
}

func runExtract() {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu extract [flags] <file>\n\nPrints the extracted text; no generation service is needed.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := parseOutput(*output)
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewCLILogger(cfg.Debug || *debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := newOrchestrator(cfg, logger).ExtractFile(ctx, path)
	if err != nil {
		fatalf("%s", session.Diagnostic(err))
	}
	out := &cli.ExtractionOutput{
		Name:       filepath.Base(path),
		Format:     extract.DetectFormat(path),
		Method:     res.Method,
		Pages:      res.Pages,
		Characters: len([]rune(res.Text)),
		Text:       res.Text,
	}
	if err := cli.WriteExtraction(os.Stdout, os.Stderr, out, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu ask [flags] <question>\n\nThe question is all remaining arguments joined by spaces.\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := parseOutput(*output)

	req := models.QuestionRequest{Query: buildQuestion(fs.Args())}
	if err := req.Validate(); err != nil {
		fs.Usage()
		os.Exit(1)
	}
	resp, err := cli.NewClient(*serverURL, clientTimeout).Ask(context.Background(), req.Query)
	if errors.Is(err, cli.ErrNotAsked) {
		fatalf("%s", session.MsgNoDocument)
	}
	if err != nil {
		fatalf("Ask failed: %v", err)
	}
	if err := cli.WriteAnswer(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runSubmit() {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	summarize := fs.Bool("summarize", true, "ask the server for a summary of the new document")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: yomu submit [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(argsReorder(os.Args[2:]))
	format := parseOutput(*output)
	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}
	resp, err := cli.NewClient(*serverURL, clientTimeout).Upload(context.Background(), fs.Arg(0), *summarize)
	if err != nil {
		fatalf("Submit failed: %v", err)
	}
	if err := cli.WriteSubmit(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*output)

	resp, err := cli.NewClient(*serverURL, 10*time.Second).History(context.Background())
	if err != nil {
		fatalf("History failed: %v", err)
	}
	if err := cli.WriteHistory(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseOutput(*output)

	st, err := cli.NewClient(*serverURL, 10*time.Second).Status(context.Background())
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, st, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "where to write the config file")
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fatalf("Init failed: %v", err)
	}
	fmt.Printf("Wrote %s\nSet %s (or generation.api_key) before running yomu server.\n", *configPath, config.EnvAPIKey)
}

// writeDefaultConfig writes the default configuration to path without any API key.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func printUsage() {
	fmt.Println(`yomu - Read a document, summarize it and answer questions about it

Usage:
  yomu server [flags]               Start the HTTP server (and the inbox watcher when configured)
  yomu summarize [flags] <file>     Extract and summarize a document locally
  yomu chat [flags] <file>          Summarize a document, then answer questions from stdin
  yomu extract [flags] <file>       Print the text extracted from a document
  yomu submit [flags] <file>        Upload a document to a running server
  yomu ask [flags] <question>       Ask a running server about its active document
  yomu history [flags]              Show the questions asked on a running server
  yomu status [flags]               Show server status
  yomu init [flags]                 Write a default config file
  yomu version                      Show version
  yomu help                         Show this help

Supported formats: .pdf (with OCR fallback), .docx, .txt

Server/Local Flags:
  --config string    Config file path (default: /usr/local/etc/yomu/config.yaml,
                     or ./config.yaml when present)
  --debug            Enable debug logging
  --output string    Output format: text or json (default: text)

Client Flags:
  --server string    Server URL (default: http://localhost:8080)
  --summarize        submit only: request a summary (default: true)

Environment:
  GEMINI_API_KEY            API key for the generation service (also read from .env)
  YOMU_GENERATION_MODEL     Override generation.model
  YOMU_GENERATION_BACKEND   Override generation.backend (rest or sdk)

Examples:
  yomu summarize report.pdf
  yomu chat notes.docx
  yomu extract --output json scan.pdf
  yomu submit report.pdf
  yomu ask what are the main findings
  yomu ask "who wrote it?" --server http://localhost:9000`)
}
