package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/ledger-core/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// Specific errors come before the category they wrap.
var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrSelfTransfer, ErrSelfTransfer},
	{domain.ErrCurrencyMismatch, ErrCurrencyMismatch},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
	{domain.ErrValidation, ErrValidationFailed},
	{domain.ErrForbidden, ErrForbidden},
	{domain.ErrAccountNotFound, ErrAccountNotFound},
	{domain.ErrGoalNotFound, ErrGoalNotFound},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrAccountFrozen, ErrAccountFrozen},
	{domain.ErrAccountClosed, ErrAccountClosed},
	{domain.ErrAccountNotActive, ErrAccountNotActive},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrDuplicateOperation, ErrDuplicateOp},
	{domain.ErrAccountBusy, ErrAccountBusy},
	{domain.ErrOperationFailed, ErrOperationFailed},
}

func RespondDomainError(w http.ResponseWriter, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			RespondAppError(w, m.appErr, nil)
			return
		}
	}
	slog.Error("unhandled domain error", "error", err)
	RespondAppError(w, ErrInternalError, nil)
}
