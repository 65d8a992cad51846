// Package httpapi exposes the nine endpoints of the formulation core over
// net/http's method-pattern ServeMux routing, wrapped in the teacher's exact
// middleware stack (pkg/mid.Recover, Logger, CORS, OTel) and responding with
// a uniform success/error envelope.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

const apiVersion = "1.0.0"

// Metadata accompanies every envelope.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	ExecutionMs int64     `json:"executionTime_ms"`
	Version     string    `json:"version"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// ErrorBody is the error half of the envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// Envelope is the uniform response shape for every endpoint.
type Envelope struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorBody  `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// writeSuccess writes a 2xx envelope with data and optional warnings.
func writeSuccess(w http.ResponseWriter, status int, data interface{}, warnings []string, start time.Time) {
	writeEnvelope(w, status, Envelope{
		Success: true,
		Data:    data,
		Metadata: Metadata{
			Timestamp: time.Now().UTC(), ExecutionMs: time.Since(start).Milliseconds(),
			Version: apiVersion, Warnings: warnings,
		},
	})
}

// writeError writes an error envelope at the given HTTP status.
func writeError(w http.ResponseWriter, status int, code, message, details, field string, start time.Time) {
	writeEnvelope(w, status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details, Field: field},
		Metadata: Metadata{
			Timestamp: time.Now().UTC(), ExecutionMs: time.Since(start).Milliseconds(),
			Version: apiVersion,
		},
	})
}
