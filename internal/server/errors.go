package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicedesk/internal/auth/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type      string            `json:"type"`
	Message   string            `json:"message"`
	Errors    []ValidationError `json:"errors,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	InvoiceID string            `json:"invoice_id,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("too many login attempts")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// validationCodes lists the client errors answered with 400, by field.
var validationCodes = []struct {
	err   error
	field string
	code  string
}{
	{ErrInvalidRequest, "request", "invalid_request"},
	{authdomain.ErrInvalidRequest, "request", "invalid_request"},
	{pagination.ErrInvalidSize, "numberOfItems", "invalid_size"},
	{pagination.ErrInvalidOffset, "offset", "invalid_offset"},
	{invoicedomain.ErrInvalidDateRange, "startDate", "invalid_date_range"},
	{invoicedomain.ErrInvalidInvoiceID, "id", "invalid_id"},
	{invoicedomain.ErrEmptyUpdate, "request", "empty_update"},
	{invoicedomain.ErrNoRecipients, "recipientEmails", "required"},
	{invoicedomain.ErrInvalidRecipient, "recipientEmails", "invalid_email"},
	{invoicedomain.ErrNoInvoices, "invoiceIds", "required"},
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var fieldErr *invoicedomain.FieldError
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{Field: fieldErr.Field, Code: "invalid_value", Message: fieldErr.Reason},
			},
		}
	}

	for _, v := range validationCodes {
		if errors.Is(err, v.err) {
			return http.StatusBadRequest, errorPayload{
				Type:    "validation_error",
				Message: "validation error",
				Errors: []ValidationError{
					{Field: v.field, Code: v.code, Message: err.Error()},
				},
			}
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrMissingToken),
		errors.Is(err, authdomain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: err.Error(),
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, authdomain.ErrUserExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}
	}

	var pipelineErr *invoicedomain.PipelineError
	if errors.As(err, &pipelineErr) {
		return http.StatusInternalServerError, errorPayload{
			Type:      "pipeline_error",
			Message:   pipelineErr.Error(),
			Stage:     string(pipelineErr.Stage),
			InvoiceID: pipelineErr.InvoiceID,
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: err.Error(),
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, invoicedomain.ErrNotFoundOrUnchanged),
		errors.Is(err, invoicedomain.ErrFileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound):
		return invoicedomain.ErrInvoiceNotFound.Error()
	case errors.Is(err, invoicedomain.ErrNotFoundOrUnchanged),
		errors.Is(err, invoicedomain.ErrFileNotFound),
		errors.Is(err, authdomain.ErrUserNotFound):
		return err.Error()
	default:
		return "not found"
	}
}

// classifyErrorForLog reports the response type and code logged with a
// failed request.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if payload.Stage != "" {
		code = payload.Stage
	}
	if status >= http.StatusInternalServerError {
		return "server", code
	}
	return "client", code
}
