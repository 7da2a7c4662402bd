package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cinetick/movie-booking/internal/notify"
)

// TicketMailer is the slice of the notifier the consumer needs.
type TicketMailer interface {
	SendBookingConfirmation(to, reference, movieTitle, theatre, screen, startsAt string, seats []string, totalCents uint32, qrPNG []byte) error
}

// Consumer drains the booking.confirmed queue: each event gets a
// confirmation email with the ticket QR attached plus an audit line in
// logs/booking.log. mailer may be nil when SMTP is not configured; the
// audit log is still written.
type Consumer struct {
	url    string
	mailer TicketMailer
}

// NewConsumer constructs a Consumer for the given AMQP URL.
func NewConsumer(url string, mailer TicketMailer) *Consumer {
	return &Consumer{url: url, mailer: mailer}
}

// Run connects to the broker and consumes until the process exits. It
// reconnects with exponential backoff after broker failures, so a
// restarting broker never takes the API down with it.
func (c *Consumer) Run() {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("booking-consumer: dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := c.consumeLoop(conn); err != nil {
			log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func (c *Consumer) consumeLoop(conn *amqp.Connection) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			log.Printf("booking-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := appendAuditLine(ev); err != nil {
		return err
	}

	if c.mailer == nil || ev.UserEmail == "" {
		return nil
	}
	qr, err := notify.TicketQR(ev.Reference, ev.SeatLabels)
	if err != nil {
		log.Printf("booking-consumer: qr for %s: %v; sending without attachment", ev.Reference, err)
		qr = nil
	}
	venue := ev.TheatreName
	if ev.TheatreCity != "" {
		venue = fmt.Sprintf("%s, %s", ev.TheatreName, ev.TheatreCity)
	}
	if err := c.mailer.SendBookingConfirmation(
		ev.UserEmail, ev.Reference, ev.MovieTitle, venue, ev.ScreenName,
		ev.StartsAt, ev.SeatLabels, ev.TotalAmountCents, qr,
	); err != nil {
		return fmt.Errorf("send confirmation mail: %w", err)
	}
	return nil
}

// appendAuditLine writes a single human-readable line per confirmed
// booking to logs/booking.log.
func appendAuditLine(ev BookingConfirmedEvent) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "booking.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	seats := "[]"
	if len(ev.SeatLabels) > 0 {
		seats = fmt.Sprintf("[%s]", strings.Join(ev.SeatLabels, ","))
	}
	line := fmt.Sprintf("[%s] Booking confirmed | reference=%s | user_id=%d | showtime_id=%d | theatre=%q | screen=%q | movie=%q | total=%d cents | seats=%s\n",
		ev.ConfirmedAt, ev.Reference, ev.UserID, ev.ShowtimeID, ev.TheatreName, ev.ScreenName, ev.MovieTitle, ev.TotalAmountCents, seats)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
