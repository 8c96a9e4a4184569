// Package relay implements the notification relay: a small HTTP service that
// takes a ready-made email from the funnel and hands it to the delivery
// provider. It performs no caller authentication and relies on its
// deployment network boundary.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/fitness-funnel/internal/http/middleware"
	"github.com/wolfman30/fitness-funnel/internal/notify"
	"github.com/wolfman30/fitness-funnel/internal/observability/metrics"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

var relayTracer = otel.Tracer("fitfunnel.internal.relay")

const maxBodyBytes = 1 << 20

const requestSchema = `{
  "type": "object",
  "required": ["from", "to", "subject"],
  "properties": {
    "from":    {"type": "string", "minLength": 1},
    "to": {
      "oneOf": [
        {"type": "string", "minLength": 1},
        {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
      ]
    },
    "subject": {"type": "string", "minLength": 1},
    "text":    {"type": "string"},
    "html":    {"type": "string"}
  },
  "anyOf": [
    {"required": ["text"]},
    {"required": ["html"]}
  ]
}`

// recipients accepts "to" as a single address or a list.
type recipients []string

func (r *recipients) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*r = recipients{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("relay: to must be a string or a list of strings")
	}
	*r = many
	return nil
}

type sendRequest struct {
	From    string     `json:"from"`
	To      recipients `json:"to"`
	Subject string     `json:"subject"`
	Text    string     `json:"text"`
	HTML    string     `json:"html"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler serves POST /submit-email.
type Handler struct {
	provider notify.Provider
	throttle *Throttle
	schema   *gojsonschema.Schema
	logger   *logging.Logger
	metrics  *metrics.RelayMetrics
}

// NewHandler wires a relay handler. throttle and m may be nil.
func NewHandler(provider notify.Provider, throttle *Throttle, logger *logging.Logger, m *metrics.RelayMetrics) (*Handler, error) {
	if provider == nil {
		return nil, errors.New("relay: provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("relay: compile request schema: %w", err)
	}
	return &Handler{
		provider: provider,
		throttle: throttle,
		schema:   schema,
		logger:   logger,
		metrics:  m,
	}, nil
}

// SubmitEmail forwards one email to the provider.
func (h *Handler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		h.respond(w, http.StatusInternalServerError, sendResponse{Error: "failed to read request body"})
		return
	}
	if len(body) > maxBodyBytes {
		h.respond(w, http.StatusRequestEntityTooLarge, sendResponse{Error: "request body too large"})
		return
	}
	if !json.Valid(body) {
		h.logger.Warn("relay: malformed request body", "remote_ip", middleware.ClientIP(r))
		h.respond(w, http.StatusInternalServerError, sendResponse{Error: "invalid JSON in request body"})
		return
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		h.respond(w, http.StatusInternalServerError, sendResponse{Error: fmt.Sprintf("validate request: %v", err)})
		return
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		h.respond(w, http.StatusBadRequest, sendResponse{Error: "invalid request: " + strings.Join(msgs, "; ")})
		return
	}

	var req sendRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respond(w, http.StatusBadRequest, sendResponse{Error: err.Error()})
		return
	}

	client := middleware.ClientIP(r)
	if res := h.throttle.Check(r.Context(), client); !res.Allowed {
		h.metrics.ObserveThrottled()
		retry := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		h.respond(w, http.StatusTooManyRequests, sendResponse{
			Error: fmt.Sprintf("send limit of %d emails reached, try again later", res.Max),
		})
		return
	}

	msg := notify.Email{
		From:    req.From,
		To:      []string(req.To),
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
	}

	ctx, span := relayTracer.Start(r.Context(), "relay.provider.send")
	span.SetAttributes(
		attribute.String("relay.provider", h.provider.Name()),
		attribute.Int("relay.recipients", len(msg.To)),
	)
	start := time.Now()
	id, err := h.provider.Send(ctx, msg)
	h.metrics.ObserveProviderLatency(h.provider.Name(), time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if err != nil {
		var rej *notify.RejectedError
		if errors.As(err, &rej) {
			h.respond(w, http.StatusBadRequest, sendResponse{Error: rej.Message})
			return
		}
		h.logger.Error("relay: provider call failed", "error", err, "provider", h.provider.Name())
		h.respond(w, http.StatusInternalServerError, sendResponse{Error: err.Error()})
		return
	}

	h.logger.Info("relay: email forwarded", "provider", h.provider.Name(), "message_id", id, "to", msg.To)
	h.respond(w, http.StatusOK, sendResponse{Success: true, ID: id})
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": h.provider.Name(),
	})
}

func (h *Handler) respond(w http.ResponseWriter, status int, resp sendResponse) {
	h.metrics.ObserveRequest(h.provider.Name(), strconv.Itoa(status))
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
