package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// GeneratePDF produces the merged invoice document for id: the rendered
// invoice sheet followed by the stored attachment. Steps run in order and the
// first failure ends the run. The store is only read.
func (s *Service) GeneratePDF(ctx context.Context, id string) (invoicedomain.PDFResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return invoicedomain.PDFResult{}, invoicedomain.ErrInvalidInvoiceID
	}

	ctx, span := tracing.StartSpan(ctx, "invoice.pdf", attribute.String("invoice.id", id))
	defer span.End()

	started := time.Now()
	result, err := s.runPipeline(ctx, id)

	var stage string
	var perr *invoicedomain.PipelineError
	if errors.As(err, &perr) {
		stage = string(perr.Stage)
	}
	s.metrics.RecordPipelineRun(ctx, stage, time.Since(started))

	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, stage)
		logger.WithInvoice(logger.WithContext(ctx, s.log), id).
			Warn("invoice pdf failed", zap.String("stage", stage), zap.Error(err))
		return invoicedomain.PDFResult{}, err
	}
	return result, nil
}

func (s *Service) runPipeline(ctx context.Context, id string) (invoicedomain.PDFResult, error) {
	var (
		inv        *invoicedomain.Invoice
		markup     string
		sheet      []byte
		attachment []byte
		merged     []byte
	)

	err := stage(ctx, invoicedomain.StageFetch, func(ctx context.Context) error {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return &invoicedomain.PipelineError{Stage: invoicedomain.StageFetch, InvoiceID: id, Err: err}
		}
		if found == nil {
			return invoicedomain.StageError(invoicedomain.StageFetch, id, invoicedomain.ErrInvoiceNotFound, nil)
		}
		inv = found
		return nil
	})
	if err != nil {
		return invoicedomain.PDFResult{}, err
	}

	err = stage(ctx, invoicedomain.StageRenderTemplate, func(ctx context.Context) error {
		out, err := s.renderer.Render(ctx, inv)
		if err != nil {
			return invoicedomain.StageError(invoicedomain.StageRenderTemplate, id, invoicedomain.ErrTemplateMissing, err)
		}
		markup = out
		return nil
	})
	if err != nil {
		return invoicedomain.PDFResult{}, err
	}

	err = stage(ctx, invoicedomain.StageRasterize, func(ctx context.Context) error {
		out, err := s.rasterize(ctx, markup)
		if err != nil {
			return invoicedomain.StageError(invoicedomain.StageRasterize, id, invoicedomain.ErrRender, err)
		}
		sheet = out
		return nil
	})
	if err != nil {
		return invoicedomain.PDFResult{}, err
	}

	err = stage(ctx, invoicedomain.StageLocateAttachment, func(ctx context.Context) error {
		data, err := s.readStored(inv.AttachmentsPath)
		if err != nil {
			if errors.Is(err, invoicedomain.ErrFileNotFound) {
				err = nil
			}
			return invoicedomain.StageError(invoicedomain.StageLocateAttachment, id, invoicedomain.ErrAttachmentMissing, err)
		}
		attachment = data
		return nil
	})
	if err != nil {
		return invoicedomain.PDFResult{}, err
	}

	err = stage(ctx, invoicedomain.StageMerge, func(ctx context.Context) error {
		out, err := s.merger.Merge(sheet, attachment)
		if err != nil {
			return invoicedomain.StageError(invoicedomain.StageMerge, id, invoicedomain.ErrMerge, err)
		}
		merged = out
		return nil
	})
	if err != nil {
		return invoicedomain.PDFResult{}, err
	}

	return invoicedomain.PDFResult{
		Invoice:  inv,
		Document: merged,
		Base64:   base64.StdEncoding.EncodeToString(merged),
	}, nil
}

// rasterize holds a render context only for the duration of one print.
func (s *Service) rasterize(ctx context.Context, markup string) ([]byte, error) {
	rc, err := s.rasterizer.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Release()

	return rc.Print(ctx, markup)
}

func stage(ctx context.Context, name invoicedomain.Stage, fn func(context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "invoice.pdf."+string(name))
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, string(name))
	}
	return err
}
