package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cashflowguard/reminders/internal/dashboard"
	"github.com/cashflowguard/reminders/internal/dispatch"
	"github.com/cashflowguard/reminders/internal/model"
	"github.com/cashflowguard/reminders/internal/reminder"
	"github.com/cashflowguard/reminders/internal/repo"
	"github.com/cashflowguard/reminders/internal/scheduler"
	"github.com/cashflowguard/reminders/internal/service"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc   *service.Reminders
	sched *scheduler.Scheduler
	now   func() time.Time
}

func NewHandler(svc *service.Reminders, s *scheduler.Scheduler) *Handler {
	return &Handler{svc: svc, sched: s, now: time.Now}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type suggestionView struct {
	reminder.Suggestion
	Risk dashboard.Risk `json:"risk"`
}

// Suggestions lists reminders ready to send. all=true also returns invoices
// that are not yet late enough or still cooling down.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	items, err := h.svc.Suggestions(r.Context(), now)
	if err != nil {
		writeError(w, err)
		return
	}
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); !all {
		items = reminder.Sendable(items)
	}

	out := make([]suggestionView, 0, len(items))
	for _, s := range items {
		out = append(out, suggestionView{Suggestion: s, Risk: dashboard.RiskFor(s.Invoice, now)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	s, err := h.svc.Preview(r.Context(), r.PathValue("id"), now)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionView{Suggestion: s, Risk: dashboard.RiskFor(s.Invoice, now)})
}

type sendRequest struct {
	Channel string `json:"channel"`
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var body sendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	ch, err := model.ParseChannel(body.Channel)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	res, err := h.svc.Send(r.Context(), service.SendRequest{InvoiceID: r.PathValue("id"), Channel: ch}, h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repo.HistoryFilter{
		ClientName: q.Get("client"),
		Limit:      parseInt(q.Get("limit"), 50),
		Offset:     parseInt(q.Get("offset"), 0),
	}

	var errs []error
	if raw := q.Get("tone"); raw != "" {
		t, err := model.ParseTone(raw)
		errs = append(errs, err)
		f.Tone = t
	}
	var err error
	f.From, err = parseDate("from", q.Get("from"))
	errs = append(errs, err)
	f.To, err = parseDate("to", q.Get("to"))
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	items, err := h.svc.History(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []model.ReminderEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context(), h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) AlertsStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) AlertsStart(w http.ResponseWriter, r *http.Request) {
	h.sched.Start()
	writeJSON(w, http.StatusOK, h.sched.Status())
}

func (h *Handler) AlertsStop(w http.ResponseWriter, r *http.Request) {
	h.sched.Stop()
	writeJSON(w, http.StatusOK, h.sched.Status())
}

// writeError maps service and dispatch failures onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var ce *service.CooldownError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
		return
	case errors.Is(err, service.ErrNotEligible):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	case errors.As(err, &ce):
		body := map[string]any{"error": err.Error(), "cooldownDaysRemaining": ce.Remaining}
		if !ce.LastSentAt.IsZero() {
			body["lastSentAt"] = ce.LastSentAt
		}
		writeJSON(w, http.StatusConflict, body)
		return
	case errors.Is(err, service.ErrSendInFlight):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		return
	case errors.Is(err, service.ErrUnknownChannel):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch dispatch.KindOf(err) {
	case dispatch.KindMissingRecipient, dispatch.KindChannelUnavailable:
		status = http.StatusBadRequest
	case dispatch.KindTimeout:
		status = http.StatusGatewayTimeout
	case dispatch.KindTransport:
		status = http.StatusBadGateway
	default:
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]any{"error": err.Error(), "kind": dispatch.KindOf(err)})
}

func parseDate(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q, want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
