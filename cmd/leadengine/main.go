package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coachlingua/leadengine/internal/cache"
	"github.com/coachlingua/leadengine/internal/dialogue"
	"github.com/coachlingua/leadengine/internal/handler"
	appI18n "github.com/coachlingua/leadengine/internal/i18n"
	"github.com/coachlingua/leadengine/internal/quiz"
	"github.com/coachlingua/leadengine/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "leadengine",
		Short: "Lead qualification and scoring engine for CoachLingua",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `leadengine --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP lead engine server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "leadengine.db", "SQLite database path")
	f.StringP("lang", "l", "it", "Default language (it, en)")
	f.Bool("chat", true, "Enable the chatbot endpoint")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL for the chatbot")
	f.String("llm-key", "ollama", "API key for the chatbot backend")
	f.String("llm-model", "llama3.2", "Chatbot model name")
	f.String("redis-addr", "", "Redis address for content caching (empty = no cache)")
	f.Duration("cache-ttl", 5*time.Minute, "TTL for cached content responses")
	f.Duration("session-idle", 30*time.Minute, "Idle expiry for level-test sessions")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-leads",
		Short: "Export captured leads, bookings and quote requests as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "leadengine.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LEADENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("leadengine")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/leadengine")
	v.AddConfigPath("/etc/leadengine")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	// Open database.
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// Seed default testimonials and clients on first run.
	if err := db.SeedContent(); err != nil {
		return fmt.Errorf("seed content: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Pick the chatbot backend. The LLM backend is preferred; when it is not
	// reachable the scripted backend keeps the widget working offline.
	chatEnabled := v.GetBool("chat")
	var backend dialogue.Backend = dialogue.NewScriptBackend()
	if chatEnabled {
		llmBackend := dialogue.NewOpenAIBackend(
			v.GetString("llm-url"),
			v.GetString("llm-key"),
			v.GetString("llm-model"),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := llmBackend.Ping(ctx)
		cancel()
		if err != nil {
			slog.Warn("LLM backend unreachable, using scripted chatbot", "url", v.GetString("llm-url"), "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
			backend = llmBackend
		}
	}
	chatEngine := dialogue.NewEngine(backend)

	// Optional redis cache for content endpoints.
	var contentCache cache.ContentCache = cache.Disabled{}
	if addr := v.GetString("redis-addr"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			slog.Warn("redis unreachable, content caching disabled", "addr", addr, "error", err)
		} else {
			slog.Info("redis cache enabled", "addr", addr, "ttl", v.GetDuration("cache-ttl"))
			contentCache = cache.New(client, v.GetDuration("cache-ttl"))
		}
	}

	h, err := handler.New(db, quiz.Default(), chatEngine, contentCache, handler.Config{
		DefaultLang: lang,
		ChatEnabled: chatEnabled,
		SessionIdle: v.GetDuration("session-idle"),
		CacheTTL:    v.GetDuration("cache-ttl"),
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"chat", chatEnabled,
		"redis", v.GetString("redis-addr"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAll()
	if err != nil {
		return fmt.Errorf("export leads: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
