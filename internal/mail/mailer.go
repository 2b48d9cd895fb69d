package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"users/internal/domain"
	"users/internal/observability/metrics"
	"users/internal/observability/middleware"

	gomail "github.com/wneessen/go-mail"
)

var ErrNoSMTPHost = errors.New("mail: no SMTP host or known service configured")

type SMTPConfig struct {
	Host     string
	Port     int
	Service  string // well-known provider, used when Host is empty
	Username string
	Password string
	From     string
	FromName string
	Brand    string
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer renders a template and delivers it over SMTP, one connection per message.
type SMTPMailer struct {
	client   sender
	renderer *Renderer
	from     string
	fromName string
	brand    string
}

func NewSMTPMailer(cfg SMTPConfig, renderer *Renderer) (*SMTPMailer, error) {
	host, port := cfg.Host, cfg.Port
	if host == "" {
		ep, ok := resolveService(cfg.Service)
		if !ok {
			return nil, ErrNoSMTPHost
		}
		host, port = ep.Host, ep.Port
	}
	if port == 0 {
		port = 587
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if port == 465 {
		opts = append(opts, gomail.WithSSL())
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return newSMTPMailer(client, renderer, from, cfg.FromName, cfg.Brand), nil
}

func newSMTPMailer(client sender, renderer *Renderer, from, fromName, brand string) *SMTPMailer {
	if brand == "" {
		brand = fromName
	}
	return &SMTPMailer{client: client, renderer: renderer, from: from, fromName: fromName, brand: brand}
}

func (m *SMTPMailer) SendMail(ctx context.Context, msg domain.MailMessage) (err error) {
	defer func() {
		metrics.EmailsSentTotal.WithLabelValues(msg.Template, metrics.Result(err)).Inc()
	}()

	body, err := m.renderer.Render(ctx, msg.Template, templateData(msg, m.brand))
	if err != nil {
		return err
	}

	out := gomail.NewMsg()
	if err = out.FromFormat(m.fromName, m.from); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err = out.To(msg.To); err != nil {
		return fmt.Errorf("mail: recipient: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(gomail.TypeTextHTML, body)

	if err = m.client.DialAndSendWithContext(ctx, out); err != nil {
		slog.Error("mail delivery failed", append(middleware.LogAttrs(ctx), "template", msg.Template, "error", err)...)
		return fmt.Errorf("mail: send: %w", err)
	}
	slog.Info("mail sent", append(middleware.LogAttrs(ctx), "template", msg.Template)...)
	return nil
}

// LogMailer renders messages and writes them to the log instead of sending them.
// It is used when no SMTP server is configured.
type LogMailer struct {
	renderer *Renderer
	brand    string
}

func NewLogMailer(renderer *Renderer, brand string) *LogMailer {
	return &LogMailer{renderer: renderer, brand: brand}
}

func (l *LogMailer) SendMail(ctx context.Context, msg domain.MailMessage) (err error) {
	defer func() {
		metrics.EmailsSentTotal.WithLabelValues(msg.Template, metrics.Result(err)).Inc()
	}()

	body, err := l.renderer.Render(ctx, msg.Template, templateData(msg, l.brand))
	if err != nil {
		return err
	}
	slog.Warn("smtp not configured, mail not delivered", append(middleware.LogAttrs(ctx), "template", msg.Template)...)
	slog.Debug("undelivered mail", "subject", msg.Subject, "body", body)
	return nil
}

func templateData(msg domain.MailMessage, brand string) map[string]any {
	data := map[string]any{
		"name":    msg.Name,
		"subject": msg.Subject,
		"brand":   brand,
	}
	maps.Copy(data, msg.Data)
	return data
}
