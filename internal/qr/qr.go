package qr

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

// Generator produces the table-tent QR codes that open the self-order menu
// for one room.
type Generator interface {
	Generate(room string) ([]byte, error)
}

type DefaultGenerator struct {
	BaseURL string
}

// Generate encodes the qr-menu entry URL for the room as a 256px PNG.
func (g DefaultGenerator) Generate(room string) ([]byte, error) {
	target := fmt.Sprintf("%s/qr-menu?room=%s", g.BaseURL, url.QueryEscape(room))
	return qrcode.Encode(target, qrcode.Medium, 256)
}
