package notify

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// TicketQR renders the entrance QR for a booking. The payload is the
// booking reference plus the seat labels so gate scanners can verify
// the ticket offline.
func TicketQR(reference string, seats []string) ([]byte, error) {
	payload := fmt.Sprintf("cinetick:%s", reference)
	for _, s := range seats {
		payload += ";" + s
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
