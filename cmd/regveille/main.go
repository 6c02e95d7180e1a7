// CLAUDE:SUMMARY Entry point for the regveille MCP server — stdio by default, HTTP and QUIC transports optional.
package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/regveille/audit"
	"github.com/hazyhaar/regveille/dbopen"
	"github.com/hazyhaar/regveille/ecfr"
	"github.com/hazyhaar/regveille/mcpquic"
	"github.com/hazyhaar/regveille/regdiff"
)

const version = "1.0.0"

// fileConfig is the optional YAML config file (REGVEILLE_CONFIG).
// Environment variables override nothing here; the file fills in what
// env leaves unset.
type fileConfig struct {
	ECFR struct {
		BaseURL        string `yaml:"base_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		UserAgent      string `yaml:"user_agent"`
	} `yaml:"ecfr"`
	Regdiff regdiff.Config `yaml:"regdiff"`
}

func main() {
	transport := env("MCP_TRANSPORT", "stdio")
	logLevel := env("LOG_LEVEL", "info")
	auditPath := os.Getenv("AUDIT_DB")
	configPath := os.Getenv("REGVEILLE_CONFIG")

	// Logging goes to stderr: on the stdio transport stdout carries the
	// JSON-RPC stream.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg fileConfig
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			slog.Error("read config file", "path", configPath, "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			slog.Error("parse config file", "path", configPath, "error", err)
			os.Exit(1)
		}
	}
	if base := os.Getenv("ECFR_BASE_URL"); base != "" {
		cfg.ECFR.BaseURL = base
	}

	client := ecfr.New(ecfr.Config{
		BaseURL:   cfg.ECFR.BaseURL,
		Timeout:   time.Duration(cfg.ECFR.TimeoutSeconds) * time.Second,
		UserAgent: cfg.ECFR.UserAgent,
	})

	// Audit log is opt-in: set AUDIT_DB to a SQLite path.
	var opts []regdiff.ServiceOption
	if auditPath != "" {
		auditDB, err := dbopen.Open(auditPath, dbopen.WithMkdirAll())
		if err != nil {
			slog.Error("audit db", "error", err)
			os.Exit(1)
		}
		defer auditDB.Close()

		auditLogger := audit.NewSQLiteLogger(auditDB)
		if err := auditLogger.Init(); err != nil {
			slog.Error("audit init", "error", err)
			os.Exit(1)
		}
		defer auditLogger.Close()
		opts = append(opts, regdiff.WithAudit(auditLogger))
	}

	svc := regdiff.New(client, &cfg.Regdiff, logger, opts...)

	mcpSrv := mcp.NewServer(&mcp.Implementation{
		Name:    "regveille",
		Version: version,
	}, nil)
	svc.RegisterMCP(mcpSrv)

	var err error
	switch transport {
	case "stdio":
		err = serveStdio(ctx, mcpSrv)
	case "http":
		err = serveHTTP(ctx, mcpSrv, logger)
	case "quic":
		err = serveQUIC(ctx, mcpSrv, logger)
	default:
		slog.Error("unknown MCP_TRANSPORT", "transport", transport)
		os.Exit(1)
	}
	if err != nil && ctx.Err() == nil {
		slog.Error("server", "transport", transport, "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func serveStdio(ctx context.Context, srv *mcp.Server) error {
	slog.Info("serving MCP on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func serveHTTP(ctx context.Context, srv *mcp.Server, logger *slog.Logger) error {
	addr := env("HTTP_ADDR", ":8086")

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil))

	httpSrv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving MCP over HTTP", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func serveQUIC(ctx context.Context, srv *mcp.Server, logger *slog.Logger) error {
	addr := env("MCP_QUIC_ADDR", ":9444")
	certFile := env("TLS_CERT", "")
	keyFile := env("TLS_KEY", "")

	var tlsCfg *tls.Config
	var err error
	if certFile != "" && keyFile != "" {
		tlsCfg, err = mcpquic.ServerTLSConfig(certFile, keyFile)
	} else {
		logger.Warn("no TLS_CERT/TLS_KEY set, using a self-signed certificate")
		tlsCfg, err = mcpquic.SelfSignedTLSConfig()
	}
	if err != nil {
		return err
	}

	ql, err := mcpquic.NewListener(addr, tlsCfg, srv, logger)
	if err != nil {
		return err
	}
	defer ql.Close()

	logger.Info("serving MCP over QUIC", "addr", addr)
	return ql.Serve(ctx)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
