package server

import (
	"encoding/json"
	"net/http"
)

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Meta    any  `json:"meta,omitempty"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
	Meta    any       `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Error codes.
const (
	codeBadRequest    = "bad_request"
	codeValidation    = "validation_error"
	codeUnknownScen   = "unknown_scenario"
	codeUnavailable   = "ads_unavailable"
	codeTooLarge      = "file_too_large"
	codeInvalidAction = "invalid_action"
	codeUpstream      = "upstream_error"
	codeInternal      = "internal_error"
)

func buildMeta(r *http.Request, extra map[string]any) map[string]any {
	meta := make(map[string]any, len(extra)+1)
	if id := RequestIDFrom(r); id != "" {
		meta["request_id"] = id
	}

	for k, v := range extra {
		meta[k] = v
	}

	if len(meta) == 0 {
		return nil
	}

	return meta
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonSuccess(w http.ResponseWriter, r *http.Request, data any, extra map[string]any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data, Meta: buildMeta(r, extra)})
}

func jsonError(w http.ResponseWriter, r *http.Request, status int, code, message, field string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   errorBody{Code: code, Message: message, Field: field},
		Meta:    buildMeta(r, nil),
	})
}
