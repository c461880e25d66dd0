// Package handler exposes the checkout-facing HTTP endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/validation"
	"storefront-workers/internal/shipping"
)

const maxRequestBytes = 64 << 10

// Quoter is the shipping quote gateway.
type Quoter interface {
	Quote(ctx context.Context, req shipping.QuoteRequest) (shipping.QuoteResponse, error)
}

type ErrorPayload struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ShippingHandler serves POST /shipping-quotes.
type ShippingHandler struct {
	quoter         Quoter
	allowedOrigins []string
	timeout        time.Duration
	logger         logger.Logger
}

func NewShippingHandler(quoter Quoter, allowedOrigins []string, timeout time.Duration, log logger.Logger) *ShippingHandler {
	return &ShippingHandler{
		quoter:         quoter,
		allowedOrigins: allowedOrigins,
		timeout:        timeout,
		logger:         log.WithFields(map[string]interface{}{"component": "shipping-handler"}),
	}
}

func (h *ShippingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w, r)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, ErrorPayload{Error: "method_not_allowed", Message: "Method not allowed"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(w, apperrors.NewInvalidPayloadError("request body too large or unreadable"), nil)
		return
	}

	result, err := validation.ShippingQuoteRequest.ValidateBytes(body)
	if err != nil {
		h.writeError(w, apperrors.NewInvalidPayloadError("invalid JSON"), nil)
		return
	}
	if !result.Valid {
		h.writeError(w, apperrors.NewInvalidPayloadError("missing or invalid fields"), result.GetErrorMessages())
		return
	}

	var req shipping.QuoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, apperrors.NewInvalidPayloadError(err.Error()), nil)
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.quoter.Quote(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			h.logger.Info("client went away before quote completed", nil)
			return
		}
		h.writeError(w, err, nil)
		return
	}

	w.Header().Set("X-Quote-Source", resp.Source)
	writeJSON(w, http.StatusOK, resp)
}

func (h *ShippingHandler) writeError(w http.ResponseWriter, err error, details []string) {
	stdErr := apperrors.AsStandard(err)
	status := apperrors.HTTPStatus(err)

	fields := map[string]interface{}{
		"errorCode": stdErr.Code,
		"status":    status,
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("shipping quote failed", fields)
	} else {
		h.logger.Warn("shipping quote rejected", fields)
	}

	msg := stdErr.Message
	if stdErr.Details != "" {
		msg = msg + ": " + stdErr.Details
	}
	writeJSON(w, status, ErrorPayload{Error: apperrors.Kind(err), Message: msg, Details: details})
}

func (h *ShippingHandler) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := "*"
	if len(h.allowedOrigins) > 0 {
		origin = ""
		reqOrigin := r.Header.Get("Origin")
		for _, o := range h.allowedOrigins {
			if o == "*" || strings.EqualFold(o, reqOrigin) {
				origin = o
				if o != "*" {
					origin = reqOrigin
				}
				break
			}
		}
	}

	hdr := w.Header()
	if origin != "" {
		hdr.Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			hdr.Add("Vary", "Origin")
		}
	}
	hdr.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
	hdr.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	hdr.Set("Access-Control-Max-Age", "86400")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
