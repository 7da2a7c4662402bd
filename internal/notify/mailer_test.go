package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessagePlainText(t *testing.T) {
	msg, err := buildMessage("noreply@cinetick.io", "user@example.com", "Hello", "body text", nil)
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "From: noreply@cinetick.io\r\n")
	assert.Contains(t, s, "To: user@example.com\r\n")
	assert.Contains(t, s, "Subject: Hello\r\n")
	assert.Contains(t, s, "Content-Type: text/plain; charset=UTF-8")
	assert.True(t, strings.HasSuffix(s, "body text"))
}

func TestBuildMessageWithAttachment(t *testing.T) {
	att := []Attachment{{Filename: "ticket.png", Data: []byte{0x89, 'P', 'N', 'G'}}}
	msg, err := buildMessage("noreply@cinetick.io", "user@example.com", "Ticket", "see attachment", att)
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "multipart/mixed")
	assert.Contains(t, s, `attachment; filename="ticket.png"`)
	assert.Contains(t, s, "Content-Transfer-Encoding: base64")
	assert.Contains(t, s, "see attachment")
}

func TestTicketQRProducesPNG(t *testing.T) {
	png, err := TicketQR("4b8f2c1d", []string{"A1", "A2"})
	require.NoError(t, err)
	// PNG magic bytes
	require.True(t, len(png) > 8)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, png[:4])
}
