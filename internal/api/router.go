package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/justinas/alice"
	"github.com/rs/cors"
)

func Router(h *Handler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", h.Health)

	mux.HandleFunc("GET /v1/reminders/suggestions", h.Suggestions)
	mux.HandleFunc("GET /v1/reminders/history", h.History)
	mux.HandleFunc("GET /v1/invoices/{id}/reminder", h.Preview)
	mux.HandleFunc("POST /v1/invoices/{id}/reminder", h.Send)

	mux.HandleFunc("GET /v1/dashboard/stats", h.Stats)

	mux.HandleFunc("GET /v1/alerts/status", h.AlertsStatus)
	mux.HandleFunc("POST /v1/alerts/start", h.AlertsStart)
	mux.HandleFunc("POST /v1/alerts/stop", h.AlertsStop)

	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("cashflow-reminders"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	return alice.New(recoverPanic, c.Handler).Then(mux)
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("handler panic recovered", "path", r.URL.Path, "panic", fmt.Sprint(rec))
				w.Header().Set("Connection", "close")
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
