// SPDX-License-Identifier: MPL-2.0

// Package api exposes subnet commands over HTTP and provides a reverse proxy.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"modvalidator-cli/internal/module"
	"modvalidator-cli/internal/pyenv"
	"modvalidator-cli/internal/runtime"
	"modvalidator-cli/internal/schema"
)

const (
	// maxRequestBody bounds a command request.
	maxRequestBody = 1 << 20

	shutdownTimeout = 10 * time.Second
)

type (
	// CommandRequest is the body of POST /subnet_command.
	CommandRequest struct {
		Subnet  string         `json:"subnet"`
		Command string         `json:"command"`
		Args    map[string]any `json:"args"`
	}

	// Response is every endpoint's JSON body.
	Response struct {
		Message string `json:"message"`
	}

	// Server runs subnet commands on request.
	Server struct {
		Layout module.Layout
		Envs   *pyenv.Manager
		Exec   *runtime.Executor
	}
)

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /subnet_command", s.handleSubnetCommand)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Response{Message: "ok"})
	})
	return logRequests(mux)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleSubnetCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: "Invalid request: " + err.Error()})
		return
	}

	mod, err := s.Layout.Module(req.Subnet, module.KindSubnet)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		return
	}
	if _, err := os.Stat(mod.SourceRoot); err != nil {
		writeJSON(w, http.StatusNotFound, Response{Message: "Subnet not found: " + req.Subnet})
		return
	}

	cfg, err := schema.Extract(mod.SourceRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Error parsing subnet: " + err.Error()})
		return
	}

	args, err := stringArgs(req.Args)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		return
	}
	inv, err := schema.ValidateRequest(cfg, req.Command, args)
	if err != nil {
		var missing *schema.MissingArgumentError
		switch {
		case errors.Is(err, schema.ErrCommandNotFound):
			writeJSON(w, http.StatusNotFound, Response{Message: "Command not found: " + req.Command})
		case errors.As(err, &missing):
			writeJSON(w, http.StatusBadRequest, Response{Message: missing.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		}
		return
	}

	ctx := r.Context()
	h, err := s.Envs.Ensure(ctx, mod)
	if err == nil {
		_, err = s.Envs.Activate(ctx, h, mod)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Error preparing environment: " + err.Error()})
		return
	}

	argString, err := inv.Args(s.Exec.Shell)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Message: err.Error()})
		return
	}
	entry, err := runtime.EntryPointIn(inv.EntryPoint, mod.SourceRoot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Error executing command: " + err.Error()})
		return
	}
	result := s.Exec.Run(h, entry, argString, mod.SourceRoot)
	if !result.Succeeded() {
		msg := "exit code " + result.ExitCode.String()
		if result.Error != nil {
			msg = result.Error.Error()
		}
		writeJSON(w, http.StatusInternalServerError, Response{Message: "Error executing command: " + msg})
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: "Command result: " + result.Output})
}

// stringArgs renders JSON argument values as command-line words: strings are used
// as-is, everything else in its JSON form.
func stringArgs(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", k, err)
			}
			out[k] = string(b)
		}
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
