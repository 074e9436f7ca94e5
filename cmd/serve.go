package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/enrich"
	"github.com/sells-group/insight-cli/internal/table"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	outputFilename  = "summarized_insights.xlsx"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the spreadsheet upload server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(cfg)
		if err != nil {
			return err
		}
		if env.Orchestrator == nil {
			zap.L().Warn("anthropic.key not set, /summarize will answer 500")
		}

		return startServer(ctx, buildMux(env, cfg.Server), resolvePort(servePort, cfg.Server.Port))
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the config value.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// buildMux wires the HTTP routes. env may be nil or lack an orchestrator.
func buildMux(env *enrichEnv, sc config.ServerConfig) http.Handler {
	origins := sc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	maxBytes := int64(sc.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if env != nil && env.Gate != nil {
			body["in_flight"] = env.Gate.InFlight()
			body["capacity"] = env.Gate.Capacity()
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Post("/summarize", summarizeHandler(env, maxBytes))

	return r
}

// summarizeHandler accepts a multipart upload ("file" plus optional
// "prompt1".."prompt3" and "mode") and answers with the enriched workbook.
func summarizeHandler(env *enrichEnv, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds %d bytes.", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, "No file part in the request.")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "No file part in the request.")
			return
		}
		defer file.Close() //nolint:errcheck
		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, "No file was selected.")
			return
		}

		if env == nil || env.Orchestrator == nil {
			writeError(w, http.StatusInternalServerError, "Anthropic API key is not configured on the server.")
			return
		}

		mode := env.Orchestrator.Options().Mode
		if m := r.FormValue("mode"); m != "" {
			if mode, err = enrich.ParseMode(m); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		in, err := table.ReadXLSX(file, table.XLSXOptions{})
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not read spreadsheet: "+err.Error())
			return
		}

		tmpl := env.Templates.Merge(enrich.Templates{
			Prompt1: r.FormValue("prompt1"),
			Prompt2: r.FormValue("prompt2"),
			Prompt3: r.FormValue("prompt3"),
		})

		out, err := env.Orchestrator.ProcessMode(r.Context(), in, tmpl, mode)
		if err != nil {
			if errors.Is(err, enrich.ErrMissingColumn) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			zap.L().Error("summarize: process failed", zap.String("file", header.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		data, err := table.XLSXBytes(out)
		if err != nil {
			zap.L().Error("summarize: encode workbook", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		env.logUsage("summarize")

		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputFilename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// startServer serves handler on port until ctx is done, then shuts down.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}

	return nil
}
