package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/smtp"
	"strings"
	"time"
)

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPEmailService sends order notices via SMTP.
//
// This implementation works with:
// - Mailhog (development): No authentication required
// - Any standard SMTP server with PLAIN auth (production)
//
// Templates are read from email/*.html in the given file system and
// rendered with html/template.
type SMTPEmailService struct {
	config    SMTPConfig
	templates *template.Template
	sendMail  sendMailFunc
	logger    *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// Parameters:
// - config: SMTP server configuration, To is required
// - fsys: Template tree containing email/*.html
// - logger: Structured logger for error reporting
func NewSMTPEmailService(config SMTPConfig, fsys fs.FS, logger *slog.Logger) (*SMTPEmailService, error) {
	if config.To == "" {
		return nil, fmt.Errorf("notification recipient is required")
	}
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseFS(fsys, "email/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:    config,
		templates: templates,
		sendMail:  smtp.SendMail,
		logger:    logger,
	}, nil
}

// =============================================================================
// Notifier Interface Implementation
// =============================================================================

// SendOrderPlaced emails the shop owner the details of a new order.
func (s *SMTPEmailService) SendOrderPlaced(ctx context.Context, order OrderPlaced) error {
	data := map[string]interface{}{
		"Order": order,
		"Shop":  s.config.FromName,
	}

	htmlBody, err := s.renderTemplate("order_placed.html", data)
	if err != nil {
		return fmt.Errorf("failed to render order email template: %w", err)
	}

	email := Email{
		To:       s.config.To,
		Subject:  fmt.Sprintf("New order #%s from %s", order.Reference, order.CustomerName),
		HTMLBody: htmlBody,
		TextBody: orderText(order),
	}

	return s.send(ctx, email)
}

// orderText is the plain text part of the order email.
func orderText(order OrderPlaced) string {
	var b strings.Builder

	fmt.Fprintf(&b, "New order #%s\n\n", order.Reference)
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "- %d x %s", line.Quantity, line.Name)
		if line.Color != "" {
			fmt.Fprintf(&b, " (%s)", line.Color)
		}
		if line.Size != "" {
			fmt.Fprintf(&b, ", %s", line.Size)
		}
		fmt.Fprintf(&b, ": %s\n", line.Amount)
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", order.Total)
	fmt.Fprintf(&b, "Customer: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", order.CustomerPhone)
	if order.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", order.Notes)
	}
	if order.AdminURL != "" {
		fmt.Fprintf(&b, "\n%s\n", order.AdminURL)
	}

	return b.String()
}

// =============================================================================
// Internal Methods
// =============================================================================

// send sends an email via SMTP.
func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Create auth if credentials are provided (not needed for Mailhog)
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := s.sendMail(addr, auth, s.config.From, []string{email.To}, msg); err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw email message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s <%s>\r\n", s.config.FromName, s.config.From)
	fmt.Fprintf(&buf, "To: %s\r\n", email.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", email.Subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := "===============DRAPERY_BOUNDARY==============="
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	buf.WriteString("\r\n")

	// Plain text part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	return buf.Bytes()
}

// renderTemplate renders an email template with the given data.
func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// =============================================================================
// Template Functions
// =============================================================================

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ Notifier = (*SMTPEmailService)(nil)
