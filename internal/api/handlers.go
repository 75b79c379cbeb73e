// Package api is the HTTP shell around the send pipeline: multipart form
// in, JSON summary plus per-row results out. Batch setup failures map to
// 400s; a batch with per-recipient failures is still a 200 with failed>0.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/lucasandrade/disparador/internal/batch"
	"github.com/lucasandrade/disparador/internal/config"
	"github.com/lucasandrade/disparador/internal/contacts"
	"github.com/lucasandrade/disparador/internal/delivery"
	"github.com/lucasandrade/disparador/internal/pkg/logger"
	"github.com/lucasandrade/disparador/internal/render"
)

// maxUploadBytes bounds the multipart form parse; contact sheets are
// small CSVs, not bulk list uploads.
const maxUploadBytes = 10 << 20

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	cfg *config.Config

	// newBackend is delivery.New in production; tests swap in a mock
	// transport.
	newBackend func(*config.Config, delivery.Credentials) (delivery.Backend, error)
}

// NewHandlers creates the handler set for the given configuration.
func NewHandlers(cfg *config.Config) *Handlers {
	return &Handlers{cfg: cfg, newBackend: delivery.New}
}

// HealthCheck reports liveness for deploy platforms.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendResponse is the wire shape of a finished batch.
type sendResponse struct {
	Summary batch.Summary   `json:"summary"`
	Results []batch.Outcome `json:"results"`
}

// Send runs one batch: parse the uploaded sheet, select eligible
// contacts up to the cap, and dispatch them through the configured
// transport.
func (h *Handlers) Send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "campo 'file' (planilha CSV) é obrigatório")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "arquivo vazio")
		return
	}

	subject := strings.TrimSpace(r.FormValue("subject"))
	if subject == "" {
		respondError(w, http.StatusBadRequest, "'subject' é obrigatório")
		return
	}
	textTemplate := strings.TrimSpace(r.FormValue("text_template"))
	if textTemplate == "" {
		respondError(w, http.StatusBadRequest, "'text_template' é obrigatório")
		return
	}
	htmlTemplate := strings.TrimSpace(r.FormValue("html_template"))

	creds := delivery.Credentials{
		Login:     strings.TrimSpace(r.FormValue("smtp_user")),
		Password:  r.FormValue("smtp_pass"),
		Host:      strings.TrimSpace(r.FormValue("smtp_server")),
		Port:      formInt(r, "smtp_port", h.cfg.SMTP.Port),
		FromEmail: strings.TrimSpace(r.FormValue("from_email")),
		FromName:  strings.TrimSpace(r.FormValue("from_name")),
		ReplyTo:   strings.TrimSpace(r.FormValue("reply_to")),
	}
	if creds.FromName == "" {
		creds.FromName = h.cfg.Sending.FromName
	}
	if creds.ReplyTo == "" {
		creds.ReplyTo = h.cfg.Sending.ReplyTo
	}

	limit := clamp(formInt(r, "daily_limit", h.cfg.Sending.DailyLimit), 0, config.MaxDailyLimit)
	constrained := h.cfg.Runtime.Serverless
	if constrained && limit > h.cfg.Runtime.ServerlessCap {
		limit = h.cfg.Runtime.ServerlessCap
	}

	// Templates are batch-wide; a substitution error would fail every
	// contact, so it is a setup failure, not fifty failed outcomes.
	if _, err := render.Message(textTemplate, htmlTemplate, "", h.cfg.Sending.TextOnly); err != nil {
		respondError(w, http.StatusBadRequest, "template inválido: "+err.Error())
		return
	}

	backend, err := h.newBackend(h.cfg, creds)
	if err != nil {
		if errors.Is(err, delivery.ErrMissingCredentials) {
			respondError(w, http.StatusBadRequest, "credenciais de envio ausentes ou incompletas")
			return
		}
		logger.Error("backend setup failed", "err", err.Error())
		respondError(w, http.StatusInternalServerError, "falha ao configurar o transporte de envio")
		return
	}

	recs, err := contacts.Read(data, limit)
	switch {
	case errors.Is(err, contacts.ErrMissingEmailColumn):
		respondError(w, http.StatusBadRequest, "planilha inválida: coluna de e-mail ausente")
		return
	case errors.Is(err, contacts.ErrEmptySource):
		respondError(w, http.StatusBadRequest, "planilha sem dados")
		return
	case err != nil:
		respondError(w, http.StatusBadRequest, "planilha ilegível: "+err.Error())
		return
	}

	logger.Info("batch starting",
		"selected", strconv.Itoa(len(recs)),
		"limit", strconv.Itoa(limit),
		"constrained", strconv.FormatBool(constrained))

	req := batch.Request{
		Subject:         subject,
		TextTemplate:    textTemplate,
		HTMLTemplate:    htmlTemplate,
		TextOnly:        h.cfg.Sending.TextOnly,
		ListUnsubscribe: h.cfg.Sending.ListUnsubscribe,
		Interval:        h.cfg.Sending.Interval(),
		SkipPacing:      constrained,
	}

	runner := batch.NewRunner(backend)
	outcomes, summary := batch.Collect(runner.Run(r.Context(), recs, req), limit, constrained)

	respondJSON(w, http.StatusOK, sendResponse{Summary: summary, Results: outcomes})
}

func formInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	if err != nil {
		return fallback
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
