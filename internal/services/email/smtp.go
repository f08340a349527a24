// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"

	"github.com/samber/oops"
	"github.com/wneessen/go-mail"

	"codeberg.org/oliverandrich/shopdesk/internal/config"
)

// SMTPNotifier sends plain text mail through an SMTP server.
type SMTPNotifier struct {
	cfg *config.SMTPConfig
}

// NewSMTPNotifier creates an SMTPNotifier. Host and sender address are required.
func NewSMTPNotifier(cfg *config.SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("SMTP from address is required")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

// Send delivers one message. A new connection is dialled per message.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	msg, err := n.message(recipient, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host, n.options()...)
	if err != nil {
		return oops.Code("smtp_client").With("host", n.cfg.Host).Wrap(err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return oops.Code("smtp_send").With("host", n.cfg.Host, "port", n.cfg.Port).Wrap(err)
	}

	return nil
}

func (n *SMTPNotifier) message(recipient, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if n.cfg.FromName != "" {
		if err := msg.FromFormat(n.cfg.FromName, n.cfg.From); err != nil {
			return nil, oops.Code("smtp_from").Wrapf(err, "setting from address")
		}
	} else if err := msg.From(n.cfg.From); err != nil {
		return nil, oops.Code("smtp_from").Wrapf(err, "setting from address")
	}

	if err := msg.To(recipient); err != nil {
		return nil, oops.Code("smtp_to").Wrapf(err, "setting to address")
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (n *SMTPNotifier) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
	}

	// Implicit TLS on 465, STARTTLS everywhere else.
	if n.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if n.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}

	return opts
}
