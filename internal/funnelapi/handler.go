// Package funnelapi exposes the funnel wizard to a browser as a small JSON
// API. Each visitor gets a session id; every call returns the session view.
package funnelapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/internal/catalog"
	"github.com/wolfman30/fitness-funnel/internal/funnel"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

// Uploader stores payment screenshots.
type Uploader interface {
	Enabled() bool
	Put(ctx context.Context, sessionID, filename, contentType string, body io.ReadSeeker) (booking.Attachment, error)
}

// screenshotField is the multipart file field of the booking form.
const screenshotField = "payment_screenshot"

// HandlerConfig configures the API handler.
type HandlerConfig struct {
	Registry       *Registry
	Uploads        Uploader
	Gatherer       prometheus.Gatherer
	WhatsAppNumber string
	UPIID          string
	UPIPayee       string
	MaxUploadBytes int64
	Logger         *logging.Logger
}

// Handler serves the session API.
type Handler struct {
	cfg    HandlerConfig
	logger *logging.Logger
}

// NewHandler creates the API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Registry == nil {
		panic("funnelapi: registry required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.UPIPayee == "" {
		cfg.UPIPayee = "FitnessCoach"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Handler{cfg: cfg, logger: cfg.Logger}
}

type catalogResponse struct {
	Questions catalog.Questions `json:"questions"`
	Plans     catalog.Plans     `json:"plans"`
	TimeSlots []string          `json:"time_slots"`
}

// Catalog returns the questionnaire, plans and slots.
// GET /api/catalog
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	// A throwaway wizard resolves the configured catalogs and defaults.
	wiz := h.cfg.Registry.factory()
	writeJSON(w, http.StatusOK, catalogResponse{
		Questions: wiz.Questions(),
		Plans:     wiz.Plans(),
		TimeSlots: wiz.TimeSlots(),
	})
}

// CreateSession opens a session on the landing step.
// POST /api/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, wiz := h.cfg.Registry.Create()
	writeJSON(w, http.StatusCreated, h.view(id, wiz))
}

// GetSession returns the session view. Clients poll it while a delivery is
// pending.
// GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(id, wiz))
}

// Start leaves the landing page.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*funnel.Wizard).Start)
}

// Next advances the questionnaire.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*funnel.Wizard).Next)
}

// Previous rewinds the questionnaire.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*funnel.Wizard).Previous)
}

// Back returns from the booking form to the plan menu.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*funnel.Wizard).Back)
}

// Restart begins a new run in the same session.
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*funnel.Wizard).Restart)
}

type answerRequest struct {
	QuestionID string    `json:"question_id"`
	Value      string    `json:"value"`
	Values     *[]string `json:"values"`
}

// Answer records the answer to the current question.
// POST /api/sessions/{id}/answers
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	answer := funnel.Scalar(strings.TrimSpace(req.Value))
	if req.Values != nil {
		answer = funnel.MultiSelect(*req.Values...)
	}
	h.act(w, r, func(wiz *funnel.Wizard) error {
		return wiz.Answer(strings.TrimSpace(req.QuestionID), answer)
	})
}

// SelectPlan picks a plan.
// POST /api/sessions/{id}/plan
func (h *Handler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan catalog.PlanID `json:"plan"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	h.act(w, r, func(wiz *funnel.Wizard) error {
		return wiz.SelectPlan(req.Plan)
	})
}

// SubmitAppointment takes the booking form, as JSON or as a multipart form
// carrying the payment screenshot, and dispatches the submission.
// POST /api/sessions/{id}/appointment
func (h *Handler) SubmitAppointment(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := h.session(w, r)
	if !ok {
		return
	}
	unlock, ok := h.cfg.Registry.lockSubmission(id)
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	defer unlock()

	if st := wiz.State(); st.Submitted {
		h.fail(w, funnel.ErrAlreadySubmitted)
		return
	} else if st.Step != funnel.StepAppointment {
		h.fail(w, funnel.ErrWrongStep)
		return
	}

	var form booking.Appointment
	var upload func() error
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))
		if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				jsonError(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			jsonError(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()
		form = booking.Appointment{
			Name:  r.FormValue("name"),
			Email: r.FormValue("email"),
			Phone: r.FormValue("phone"),
			Date:  r.FormValue("date"),
			Time:  r.FormValue("time"),
		}
		if file, header, err := r.FormFile(screenshotField); err == nil {
			defer file.Close()
			if header.Size > h.cfg.MaxUploadBytes {
				jsonError(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			contentType := header.Header.Get("Content-Type")
			form.Screenshot = &booking.Attachment{
				Filename:    header.Filename,
				ContentType: contentType,
				Size:        header.Size,
			}
			if h.cfg.Uploads != nil && h.cfg.Uploads.Enabled() {
				upload = func() error {
					att, err := h.cfg.Uploads.Put(r.Context(), id, header.Filename, contentType, file)
					if err != nil {
						return err
					}
					form.Screenshot = &att
					return nil
				}
			}
		}
	} else if !decodeBody(w, r, &form) {
		return
	}

	if res := wiz.Validate(form); !res.Valid {
		h.fail(w, &funnel.ValidationError{Errors: res.Errors})
		return
	}
	if upload != nil {
		if err := upload(); err != nil {
			h.logger.Error("screenshot upload failed", "session_id", id, "error", err)
			jsonError(w, "failed to store payment screenshot", http.StatusBadGateway)
			return
		}
	}

	if err := wiz.Submit(r.Context(), form); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.view(id, wiz))
}

// Stats reports funnel counters gathered from the metrics registry.
// GET /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot(h.cfg.Gatherer))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.cfg.Registry.Len(),
		"uploads":  h.cfg.Uploads != nil && h.cfg.Uploads.Enabled(),
	})
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(*funnel.Wizard) error) {
	id, wiz, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := fn(wiz); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(id, wiz))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *funnel.Wizard, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	wiz, ok := h.cfg.Registry.Get(id)
	if !ok {
		jsonError(w, "session not found", http.StatusNotFound)
		return "", nil, false
	}
	return id, wiz, true
}

type errorResponse struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *funnel.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "appointment is invalid", Errors: verr.Errors})
	case errors.Is(err, funnel.ErrWrongStep), errors.Is(err, funnel.ErrAlreadySubmitted):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, funnel.ErrUnknownQuestion),
		errors.Is(err, funnel.ErrNotCurrentQuestion),
		errors.Is(err, funnel.ErrKindMismatch),
		errors.Is(err, funnel.ErrUnknownOption),
		errors.Is(err, funnel.ErrAnswerRequired),
		errors.Is(err, funnel.ErrNoPreviousQuestion),
		errors.Is(err, funnel.ErrUnknownPlan):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("funnel action failed", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
