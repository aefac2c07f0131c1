package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *assist.Service satisfies it.
type Service interface {
	CodeSuggestions(ctx context.Context, code, focus, language string) (string, error)
	TestCases(ctx context.Context, question, format string, count int) (types.TestCasesResponse, error)
	Generate(ctx context.Context, prompt string) (string, error)
	Ready(ctx context.Context) bool
}

// NewMux builds the router: /v1/review, /v1/testcases, /v1/generate,
// /healthz, /readyz, /metrics.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)

	r.Post("/v1/review", func(w http.ResponseWriter, r *http.Request) {
		var req types.ReviewRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Code) == "" {
			writeJSONError(w, http.StatusBadRequest, "code is required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		suggestions, err := svc.CodeSuggestions(ctx, req.Code, req.Focus, req.Language)
		if err != nil {
			writeServiceError(w, r, "review", err, start)
			return
		}
		writeJSON(w, types.ReviewResponse{Suggestions: suggestions})
		logEnd(r, "review", http.StatusOK, start)
	})

	r.Post("/v1/testcases", func(w http.ResponseWriter, r *http.Request) {
		var req types.TestCasesRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			writeJSONError(w, http.StatusBadRequest, "question is required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		resp, err := svc.TestCases(ctx, req.Question, req.Format, req.Count)
		if err != nil {
			writeServiceError(w, r, "testcases", err, start)
			return
		}
		writeJSON(w, resp)
		logEnd(r, "testcases", http.StatusOK, start)
	})

	r.Post("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		out, err := svc.Generate(ctx, req.Prompt)
		if err != nil {
			writeServiceError(w, r, "generate", err, start)
			return
		}
		writeJSON(w, types.GenerateResponse{Response: out})
		logEnd(r, "generate", http.StatusOK, start)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("backend unreachable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSONBody enforces content type and size, then decodes into dst.
// Writes the error response itself and returns false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		// If exceeded size, MaxBytesReader may cause an error; still return 400 to avoid size leak details
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// writeServiceError maps service failures onto status codes: context
// cancellation → 499-style client close (408 here), HTTPError-carrying
// errors (e.g. upstream failures) → their code, everything else → 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error, start time.Time) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		var he HTTPError
		if errors.As(err, &he) {
			status = he.StatusCode()
		}
	}
	if status == http.StatusBadGateway {
		IncrementUpstreamFailure(op)
	}
	writeJSONError(w, status, err.Error())
	if zlog != nil {
		z := zlog.Error().Str("op", op).Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Err(err).Msg("request failed")
	} else {
		log.Printf("%s end status=%d dur=%s err=%v", op, status, time.Since(start), err)
	}
}

func logEnd(r *http.Request, op string, status int, start time.Time) {
	if zlog != nil {
		z := zlog.Info().Str("op", op).Int("status", status).Dur("dur", time.Since(start))
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("request_id", rid)
		}
		z.Msg("request end")
	} else {
		log.Printf("%s end status=%d dur=%s", op, status, time.Since(start))
	}
}
