package mailer

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"reportbot/internal/config"
	"reportbot/internal/report"
)

// Mailer delivers report results and failure notices over SMTP.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
	send   func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (m *Mailer) auth() smtp.Auth {
	if m.cfg.Username == "" {
		return nil
	}
	return smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
}

func (m *Mailer) addr() string {
	return fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
}

// SendReport mails a shaped query result. Small result sets render as an
// inline HTML table, large ones go as the spreadsheet attachment already
// carried in the shape.
func (m *Mailer) SendReport(to, subject string, shaped report.Shaped) error {
	var msg []byte
	switch shaped.Type {
	case report.TypeFile:
		body := fmt.Sprintf("<p>%s</p>", html.EscapeString(shaped.Message))
		msg = buildMultipart(m.cfg.From, to, subject, body, shaped.Filename, shaped.File)
	case report.TypeRows:
		msg = buildHTML(m.cfg.From, to, subject, renderTable(shaped.Rows))
	default:
		msg = buildHTML(m.cfg.From, to, subject,
			fmt.Sprintf("<p>%s</p>", html.EscapeString(shaped.Message)))
	}

	if err := m.send(m.addr(), m.auth(), m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending report mail failed: %w", err)
	}
	m.logger.Info("Report mail sent", zap.String("to", to), zap.String("type", shaped.Type))
	return nil
}

// SendErrorNotification mails a plain failure notice for a job run.
func (m *Mailer) SendErrorNotification(to, jobID, reason string) error {
	subject := fmt.Sprintf("Scheduled report %s failed", jobID)
	body := fmt.Sprintf("<p>Your scheduled report <b>%s</b> failed to run.</p><p>%s</p>",
		html.EscapeString(jobID), html.EscapeString(reason))
	msg := buildHTML(m.cfg.From, to, subject, body)

	if err := m.send(m.addr(), m.auth(), m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("sending error mail failed: %w", err)
	}
	m.logger.Info("Error mail sent", zap.String("to", to), zap.String("job_id", jobID))
	return nil
}

func renderTable(rows []map[string]any) string {
	if len(rows) == 0 {
		return "<p>No results.</p>"
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	// map order is random, keep headers stable
	sort.Strings(columns)

	var b strings.Builder
	b.WriteString(`<table border="1" cellpadding="4" cellspacing="0"><tr>`)
	for _, col := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", html.EscapeString(col))
	}
	b.WriteString("</tr>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, col := range columns {
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(fmt.Sprint(row[col])))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

func buildHTML(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// buildMultipart assembles an HTML body plus a base64 xlsx attachment.
// The attachment content is already base64, it only needs line wrapping.
func buildMultipart(from, to, subject, body, filename, fileB64 string) []byte {
	const boundary = "reportbot-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: application/vnd.openxmlformats-officedocument.spreadsheetml.sheet\r\n")
	b.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=\"%s\"\r\n", filename)
	b.WriteString("\r\n")
	b.WriteString(wrapBase64(fileB64))
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func wrapBase64(s string) string {
	// normalize first so wrapping stays at 76 chars even if the input
	// already carried line breaks
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		s = base64.StdEncoding.EncodeToString(decoded)
	}

	var b strings.Builder
	for len(s) > 76 {
		b.WriteString(s[:76])
		b.WriteString("\r\n")
		s = s[76:]
	}
	b.WriteString(s)
	return b.String()
}
