package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/sony/gobreaker"

	"club-notification-service/pkg/config"
	"club-notification-service/pkg/logger"
)

// Sender renders a named template and hands the MIME message to a Transport
// guarded by a circuit breaker, so a dead relay is not hammered by every
// notification.
type Sender struct {
	from      *gomail.Address
	loader    *TemplateLoader
	transport Transport
	breaker   *gobreaker.CircuitBreaker
	now       func() time.Time
}

// NewSender fails when cfg.From is not a valid RFC 5322 address. A display
// name is allowed ("Club <no-reply@example.com>").
func NewSender(cfg config.MailConfig, loader *TemplateLoader, transport Transport) (*Sender, error) {
	from, err := gomail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid from address %q: %w", cfg.From, err)
	}
	limit := cfg.BreakerLimit
	st := gobreaker.Settings{
		Name:    "smtp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= limit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("mail: circuit breaker %s changed from %s to %s", name, from, to)
		},
	}
	return &Sender{
		from:      from,
		loader:    loader,
		transport: transport,
		breaker:   gobreaker.NewCircuitBreaker(st),
		now:       time.Now,
	}, nil
}

// LoadTemplate exposes the loader so callers can probe for a template.
func (s *Sender) LoadTemplate(name string) (string, error) {
	return s.loader.LoadTemplate(name)
}

// SendTemplatedEmail renders templateName with data and sends it to to.
func (s *Sender) SendTemplatedEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	body, err := s.render(templateName, data)
	if err != nil {
		return err
	}
	msg, err := s.compose(to, subject, body)
	if err != nil {
		return err
	}
	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.transport.Send(ctx, s.from.Address, []string{to}, msg)
	})
	if err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func (s *Sender) render(name string, data interface{}) ([]byte, error) {
	src, err := s.loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tpl, err := template.New(name).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("mail: parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("mail: render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Sender) compose(to, subject string, body []byte) ([]byte, error) {
	var h gomail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*gomail.Address{s.from})
	h.SetAddressList("To", []*gomail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("mail: create message: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return nil, fmt.Errorf("mail: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("mail: close message: %w", err)
	}
	return buf.Bytes(), nil
}
