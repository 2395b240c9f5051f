package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg Config
	log *zap.Logger
}

func NewSMTP(cfg Config, log *zap.Logger) *SMTPProvider {
	return &SMTPProvider{cfg: cfg, log: log.Named("email.smtp")}
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}

	sender, err := mail.ParseAddress(p.cfg.From)
	if err != nil {
		return "", fmt.Errorf("invalid sender address: %w", err)
	}

	messageID := newMessageID(p.cfg.Host)
	raw, err := buildMIME(sender.String(), messageID, msg, time.Now())
	if err != nil {
		return "", err
	}

	if err := p.deliver(ctx, sender.Address, msg.To, raw); err != nil {
		return "", err
	}

	p.log.Info("email sent",
		zap.String("message_id", messageID),
		zap.Int("recipients", len(msg.To)),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return messageID, nil
}

func (p *SMTPProvider) deliver(ctx context.Context, from string, to []string, raw []byte) error {
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: p.cfg.Host}); err != nil {
			return err
		}
	}
	if p.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
