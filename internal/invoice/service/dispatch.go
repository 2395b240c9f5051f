package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/providers/email"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SendInvoices generates every requested invoice and mails them as one
// message. All runs are attempted; if any fails nothing is sent and the
// failure of the earliest invoice in the request is returned.
func (s *Service) SendInvoices(ctx context.Context, req invoicedomain.SendRequest) (invoicedomain.SendResult, error) {
	recipients, err := normalizeRecipients(req.Recipients)
	if err != nil {
		return invoicedomain.SendResult{}, err
	}

	refs := make([]invoicedomain.InvoiceRef, 0, len(req.Invoices))
	for _, ref := range req.Invoices {
		ref.ID = strings.TrimSpace(ref.ID)
		if ref.ID != "" {
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return invoicedomain.SendResult{}, invoicedomain.ErrNoInvoices
	}

	log := logger.WithContext(ctx, s.log)

	results := make([]invoicedomain.PDFResult, len(refs))
	failures := make([]error, len(refs))

	var g errgroup.Group
	if limit := s.renderCfg.Get().Concurrency; limit > 0 {
		g.SetLimit(limit)
	}
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			results[i], failures[i] = s.GeneratePDF(ctx, ref.ID)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range failures {
		if err != nil {
			s.metrics.RecordEmailDispatch(ctx, "aborted", 0)
			log.Warn("invoice email aborted", zap.Int("invoices", len(refs)), zap.Error(err))
			return invoicedomain.SendResult{}, err
		}
	}

	attachments := make([]email.Attachment, 0, len(results))
	for i, res := range results {
		number := strings.TrimSpace(refs[i].Number)
		if number == "" {
			number = res.Invoice.DisplayNumber()
		}
		attachments = append(attachments, email.Attachment{
			Filename:    attachmentName(number),
			ContentType: "application/pdf",
			Data:        res.Document,
		})
	}

	messageID, err := s.mailer.Send(ctx, email.Message{
		To:          recipients,
		Subject:     req.Subject,
		HTMLBody:    req.HTMLBody,
		Attachments: attachments,
	})
	if err != nil {
		s.metrics.RecordEmailDispatch(ctx, "failed", len(attachments))
		log.Error("invoice email delivery failed", zap.Error(err))
		return invoicedomain.SendResult{}, &invoicedomain.PipelineError{
			Stage: invoicedomain.StageSend,
			Err:   fmt.Errorf("%w: %w", invoicedomain.ErrTransport, err),
		}
	}

	s.metrics.RecordEmailDispatch(ctx, "sent", len(attachments))
	log.Info("invoice email sent",
		zap.String("message_id", messageID),
		zap.Int("recipients", len(recipients)),
		zap.Int("invoices", len(attachments)),
	)
	return invoicedomain.SendResult{MessageID: messageID, InvoicesSent: len(attachments)}, nil
}

func normalizeRecipients(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		addr, err := mail.ParseAddress(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", invoicedomain.ErrInvalidRecipient, r)
		}
		out = append(out, addr.Address)
	}
	if len(out) == 0 {
		return nil, invoicedomain.ErrNoRecipients
	}
	return out, nil
}

func attachmentName(number string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '"':
			return '-'
		}
		return r
	}, number)
	return "Invoice_" + safe + ".pdf"
}
