package service

import (
	"context"
	"encoding/base64"
	"strings"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// OriginalPDF returns the source document stored for an invoice.
func (s *Service) OriginalPDF(ctx context.Context, id string) (string, error) {
	return s.storedPDF(ctx, id, func(inv *invoicedomain.Invoice) *string { return inv.OriginalPath })
}

// AttachmentPDF returns the attachment document stored for an invoice.
func (s *Service) AttachmentPDF(ctx context.Context, id string) (string, error) {
	return s.storedPDF(ctx, id, func(inv *invoicedomain.Invoice) *string { return inv.AttachmentsPath })
}

func (s *Service) storedPDF(ctx context.Context, id string, pathOf func(*invoicedomain.Invoice) *string) (string, error) {
	inv, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := s.readStored(pathOf(inv))
	if err != nil {
		s.log.Debug("stored document unavailable", zap.String("invoice_id", inv.ID), zap.Error(err))
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// readStored reads a file referenced by an invoice row. A blank or missing
// path is reported as ErrFileNotFound.
func (s *Service) readStored(path *string) ([]byte, error) {
	if path == nil || strings.TrimSpace(*path) == "" {
		return nil, invoicedomain.ErrFileNotFound
	}
	ok, err := afero.Exists(s.fs, *path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invoicedomain.ErrFileNotFound
	}
	return afero.ReadFile(s.fs, *path)
}
