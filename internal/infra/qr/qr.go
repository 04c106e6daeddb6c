// Package qr renders share links and subscription URLs as PNG QR codes.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"proxy-admin-bot/internal/domain/ports/adapter"
)

var _ adapter.QREncoder = Encoder{}

const defaultSize = 512

type Encoder struct{}

func (Encoder) Encode(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: empty content")
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
