package email

import (
	"context"
	"errors"
)

var ErrNoRecipients = errors.New("email has no recipients")

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one email. Every address in To is listed in the To header, so
// recipients see each other.
type Message struct {
	To          []string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Provider delivers a message and returns the Message-ID it was sent with.
type Provider interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoOpProvider accepts every message without delivering it.
type NoOpProvider struct {
	host string
}

func (p *NoOpProvider) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	return newMessageID(p.host), nil
}
