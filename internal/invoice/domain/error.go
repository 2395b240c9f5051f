package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange    = errors.New("startDate and endDate are required and startDate must not be after endDate")
	ErrEmptyUpdate         = errors.New("no updatable fields provided")
	ErrInvalidFieldValue   = errors.New("invalid field value")
	ErrInvalidInvoiceID    = errors.New("invoice id is required")
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrNotFoundOrUnchanged = errors.New("invoice not found or no changes applied")
	ErrFileNotFound        = errors.New("file not found")

	ErrNoRecipients     = errors.New("at least one recipient email is required")
	ErrInvalidRecipient = errors.New("invalid recipient email")
	ErrNoInvoices       = errors.New("at least one invoice id is required")

	ErrTemplateMissing   = errors.New("invoice template could not be read")
	ErrRender            = errors.New("document rendering failed")
	ErrAttachmentMissing = errors.New("attachment file does not exist")
	ErrMerge             = errors.New("document merge failed")
	ErrTransport         = errors.New("email delivery failed")
)

// FieldError reports a partial update value that could not be converted.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrInvalidFieldValue }

// Stage names one step of PDF generation.
type Stage string

const (
	StageFetch            Stage = "fetch"
	StageRenderTemplate   Stage = "render_template"
	StageRasterize        Stage = "rasterize"
	StageLocateAttachment Stage = "locate_attachment"
	StageMerge            Stage = "merge"
	StageEncode           Stage = "encode"
	StageSend             Stage = "send"
)

// PipelineError is the terminal failure of one PDF generation or send.
type PipelineError struct {
	Stage     Stage
	InvoiceID string
	Err       error
}

func (e *PipelineError) Error() string {
	if e.InvoiceID == "" {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed for invoice %s: %v", e.Stage, e.InvoiceID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// StageError wraps cause under sentinel so both stay matchable with errors.Is.
func StageError(stage Stage, invoiceID string, sentinel, cause error) error {
	err := sentinel
	if cause != nil && !errors.Is(cause, sentinel) {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &PipelineError{Stage: stage, InvoiceID: invoiceID, Err: err}
}
