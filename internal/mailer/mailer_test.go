package mailer

import (
	"encoding/base64"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reportbot/internal/config"
	"reportbot/internal/report"
)

func newCapturingMailer() (*Mailer, *[]byte) {
	m := New(config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "reports@example.com",
	}, zap.NewNop())

	var captured []byte
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		captured = append([]byte(nil), msg...)
		return nil
	}
	return m, &captured
}

func TestSendReportInlineTable(t *testing.T) {
	m, captured := newCapturingMailer()

	err := m.SendReport("user@example.com", "Your report", report.Shaped{
		Type: report.TypeRows,
		Rows: []map[string]any{
			{"id": 1, "name": "alpha"},
			{"id": 2, "name": "beta"},
		},
	})
	require.NoError(t, err)

	msg := string(*captured)
	assert.Contains(t, msg, "To: user@example.com")
	assert.Contains(t, msg, "Subject: Your report")
	assert.Contains(t, msg, "<table")
	assert.Contains(t, msg, "<td>alpha</td>")
	// stable header order regardless of map iteration
	assert.Less(t, strings.Index(msg, "<th>id</th>"), strings.Index(msg, "<th>name</th>"))
}

func TestSendReportAttachment(t *testing.T) {
	m, captured := newCapturingMailer()

	blob := base64.StdEncoding.EncodeToString([]byte("fake xlsx bytes"))
	err := m.SendReport("user@example.com", "Your report", report.Shaped{
		Type:     report.TypeFile,
		File:     blob,
		Filename: "query_results_20260310_140000.xlsx",
		Message:  "Query returned 25 rows.",
	})
	require.NoError(t, err)

	msg := string(*captured)
	assert.Contains(t, msg, "multipart/mixed")
	assert.Contains(t, msg, `filename="query_results_20260310_140000.xlsx"`)
	assert.Contains(t, msg, "Content-Transfer-Encoding: base64")
	assert.Contains(t, msg, "Query returned 25 rows.")
}

func TestSendReportEscapesHTML(t *testing.T) {
	m, captured := newCapturingMailer()

	err := m.SendReport("user@example.com", "r", report.Shaped{
		Type: report.TypeRows,
		Rows: []map[string]any{{"name": "<script>alert(1)</script>"}},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(*captured), "<script>")
}

func TestSendErrorNotification(t *testing.T) {
	m, captured := newCapturingMailer()

	err := m.SendErrorNotification("user@example.com", "report_20260310_100000_abc123", "table vanished")
	require.NoError(t, err)

	msg := string(*captured)
	assert.Contains(t, msg, "report_20260310_100000_abc123")
	assert.Contains(t, msg, "table vanished")
	assert.Contains(t, msg, "failed")
}

func TestWrapBase64(t *testing.T) {
	long := base64.StdEncoding.EncodeToString(make([]byte, 200))
	wrapped := wrapBase64(long)
	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(wrapped, "\r\n", ""))
	require.NoError(t, err)
	assert.Len(t, decoded, 200)
}
