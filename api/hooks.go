package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/renderrelay/signature"
	"github.com/xraph/renderrelay/webhook"
)

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "eventType")
	if !h.config.Catalog.Has(eventType) {
		writeError(w, http.StatusNotFound, "event type not found")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if v := h.config.Verifier; v != nil {
		err := v.VerifyHeaders(body,
			r.Header.Get(signature.HeaderTimestamp),
			r.Header.Get(signature.HeaderSignature),
		)
		if err != nil {
			h.logger.WarnContext(r.Context(), "delivery signature rejected",
				"event_type", eventType, "error", err)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	ev, err := h.normalizer(eventType).HandleDelivery(r.Context(), body)
	if err != nil {
		writeError(w, rejectionStatus(err), err.Error())
		return
	}

	if h.config.Recent != nil {
		if err := h.config.Recent.RecordDelivery(r.Context(), eventType, body); err != nil {
			h.logger.WarnContext(r.Context(), "failed to cache delivery",
				"event_type", eventType, "event_id", ev.ID, "error", err)
		}
	}

	if h.config.Sink != nil {
		if err := h.config.Sink(r.Context(), ev); err != nil {
			h.logger.ErrorContext(r.Context(), "delivery sink failed",
				"event_type", eventType, "event_id", ev.ID, "error", err)
			writeError(w, http.StatusBadGateway, "delivery not accepted by host")
			return
		}
	}

	writeJSON(w, http.StatusOK, ev)
}

func (h *Handler) listSamples(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "eventType")
	if !h.config.Catalog.Has(eventType) {
		writeError(w, http.StatusNotFound, "event type not found")
		return
	}

	fallback, err := h.config.Catalog.ExampleFor(eventType)
	if err != nil {
		h.logger.WarnContext(r.Context(), "example unavailable",
			"event_type", eventType, "error", err)
	}

	var recent webhook.RecentSource
	if h.config.Recent != nil {
		recent = h.config.Recent
	}

	samples := h.normalizer(eventType).ListSamples(r.Context(), recent, fallback)
	writeJSON(w, http.StatusOK, samples)
}

// rejectionStatus maps a normalization failure to an HTTP status.
func rejectionStatus(err error) int {
	switch {
	case errors.Is(err, webhook.ErrTypeMismatch), errors.Is(err, webhook.ErrSchemaViolation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
