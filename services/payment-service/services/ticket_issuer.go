package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"github.com/google/uuid"
	"github.com/hassansajjadkhan/goaliv2vercel-sub001/services/payment-service/models"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	qrSize        = 256
	captionHeight = 24
	// basicfont.Face7x13 glyphs are 7px wide
	captionMaxChars = (qrSize - 16) / 7
)

// ArtifactUploader stores a rendered ticket and returns its public URL.
type ArtifactUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// TicketPayload is the content of a ticket QR code.
type TicketPayload struct {
	PayerUserID string `json:"payer_user_id"`
	EventID     string `json:"event_id"`
	IssuedAt    string `json:"issued_at"`
}

// TicketIssuer renders ticket QR codes and stores them. With no uploader the
// artifact is inlined as a data URI.
type TicketIssuer struct {
	uploader ArtifactUploader
	now      func() time.Time
}

func NewTicketIssuer(uploader ArtifactUploader) *TicketIssuer {
	return &TicketIssuer{uploader: uploader, now: time.Now}
}

// Issue builds the ticket row for a payment. It does not persist it.
func (t *TicketIssuer) Issue(ctx context.Context, paymentID, payerUserID, eventID uuid.UUID, caption string) (*models.Ticket, error) {
	issuedAt := t.now().UTC().Truncate(time.Second)

	payload, err := EncodeTicketPayload(payerUserID, eventID, issuedAt)
	if err != nil {
		return nil, err
	}

	img, err := RenderTicket(payload, caption)
	if err != nil {
		return nil, err
	}

	url, err := t.store(ctx, fmt.Sprintf("tickets/%s/%s.png", eventID, paymentID), img)
	if err != nil {
		return nil, err
	}

	return &models.Ticket{
		PaymentID:   paymentID,
		PayerUserID: payerUserID,
		EventID:     eventID,
		Payload:     payload,
		ArtifactURL: url,
		IssuedAt:    issuedAt,
	}, nil
}

func (t *TicketIssuer) store(ctx context.Context, key string, img []byte) (string, error) {
	if t.uploader == nil {
		return "data:image/png;base64," + base64.StdEncoding.EncodeToString(img), nil
	}
	url, err := t.uploader.Upload(ctx, key, img, "image/png")
	if err != nil {
		return "", fmt.Errorf("upload ticket artifact: %w", err)
	}
	return url, nil
}

// EncodeTicketPayload returns the scannable encoding of a ticket.
func EncodeTicketPayload(payerUserID, eventID uuid.UUID, issuedAt time.Time) (string, error) {
	b, err := json.Marshal(TicketPayload{
		PayerUserID: payerUserID.String(),
		EventID:     eventID.String(),
		IssuedAt:    issuedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeTicketPayload is the inverse of EncodeTicketPayload, used at the door.
func DecodeTicketPayload(s string) (TicketPayload, error) {
	var p TicketPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return TicketPayload{}, err
	}
	if _, err := uuid.Parse(p.PayerUserID); err != nil {
		return TicketPayload{}, fmt.Errorf("payer_user_id: %w", err)
	}
	if _, err := uuid.Parse(p.EventID); err != nil {
		return TicketPayload{}, fmt.Errorf("event_id: %w", err)
	}
	return p, nil
}

// RenderTicket draws the QR code for payload with caption underneath and
// returns it as PNG.
func RenderTicket(payload, caption string) ([]byte, error) {
	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, qrSize, qrSize+captionHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, qrSize, qrSize), qr.Image(qrSize), image.Point{}, draw.Over)

	caption = fitCaption(caption)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, qrSize+captionHeight-8),
	}
	d.DrawString(caption)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitCaption shortens caption to captionMaxChars runes.
func fitCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= captionMaxChars {
		return caption
	}
	return string(runes[:captionMaxChars-3]) + "..."
}
