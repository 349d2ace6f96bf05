// Package handlers implements the HTTP handlers of the view API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	pkgerrors "kgview/pkg/errors"
	"kgview/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   bool                   `json:"error"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps application errors onto their HTTP status
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := pkgerrors.HTTPStatus(err)
	body := ErrorResponse{Error: true, Type: string(pkgerrors.ErrorTypeInternal), Message: "internal error"}

	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		body.Type = string(appErr.Type)
		body.Message = appErr.Message
		body.Code = appErr.Code
		body.Details = appErr.Details
	}
	if status >= 500 {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, logger, status, body)
}

// decodeJSON reads a JSON body into dst and validates its tags
func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	if err := utils.ValidateStruct(dst); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return nil
}
