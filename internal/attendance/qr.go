package attendance

import (
	qrcode "github.com/skip2/go-qrcode"

	"classtrack/internal/apperr"
)

// QRCodePNG renders a session code as a PNG image of the given pixel size.
// Pure pass-through to the encoder; no business rule lives here.
func QRCodePNG(sessionCode string, size int) ([]byte, error) {
	if size <= 0 {
		size = 300
	}
	png, err := qrcode.Encode(sessionCode, qrcode.Medium, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "encoding QR code", err)
	}
	return png, nil
}
