// Package notify sends customer-facing email: the registration
// verification code and the booking confirmation with the ticket QR.
package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// Attachment is a file included with an outgoing message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Mailer delivers mail over plain SMTP. An empty username skips
// authentication, which suits local catch-all servers like Mailhog.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer constructs a Mailer. from is the sender address placed on
// every message.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers a plain-text message with optional attachments.
func (m *Mailer) Send(to, subject, body string, attachments []Attachment) error {
	msg, err := buildMessage(m.from, to, subject, body, attachments)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// buildMessage assembles the MIME payload. Messages without
// attachments stay simple text/plain; with attachments the body moves
// into a multipart/mixed envelope.
func buildMessage(from, to, subject, body string, attachments []Attachment) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(body)
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", writer.Boundary())

	text, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": []string{"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              []string{"application/octet-stream"},
			"Content-Disposition":       []string{fmt.Sprintf("attachment; filename=%q", a.Filename)},
			"Content-Transfer-Encoding": []string{"base64"},
		})
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		// wrap at 76 chars per RFC 2045
		for i := 0; i < len(encoded); i += 76 {
			end := i + 76
			if end > len(encoded) {
				end = len(encoded)
			}
			if _, err := part.Write([]byte(encoded[i:end] + "\r\n")); err != nil {
				return nil, err
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SendVerificationCode mails the one-time registration code.
func (m *Mailer) SendVerificationCode(to, code string, expiry time.Time) error {
	body := fmt.Sprintf(
		"Welcome to Cinetick!\r\n\r\n"+
			"Your verification code is: %s\r\n\r\n"+
			"The code expires at %s.\r\n",
		code, expiry.UTC().Format("15:04 MST, Jan 2"))
	return m.Send(to, "Verify your Cinetick account", body, nil)
}

// SendBookingConfirmation mails the ticket summary with the QR code
// attached.
func (m *Mailer) SendBookingConfirmation(to, reference, movieTitle, theatre, screen, startsAt string, seats []string, totalCents uint32, qrPNG []byte) error {
	body := fmt.Sprintf(
		"Your booking is confirmed!\r\n\r\n"+
			"Reference: %s\r\n"+
			"Movie:     %s\r\n"+
			"Theatre:   %s (%s)\r\n"+
			"Starts:    %s\r\n"+
			"Seats:     %s\r\n"+
			"Total:     %.2f\r\n\r\n"+
			"Show the attached QR code at the entrance.\r\n",
		reference, movieTitle, theatre, screen, startsAt,
		strings.Join(seats, ", "), float64(totalCents)/100)

	var attachments []Attachment
	if len(qrPNG) > 0 {
		attachments = append(attachments, Attachment{Filename: "ticket.png", Data: qrPNG})
	}
	return m.Send(to, fmt.Sprintf("Booking %s confirmed", reference), body, attachments)
}
