package tables

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders the printed table QR: a plain URL into the client
// menu, e.g. https://bar.example.com/client/12. No payload beyond the table
// number; the session is resolved server-side on scan.
type QRGenerator struct {
	clientBaseURL string
}

func NewQRGenerator(clientBaseURL string) *QRGenerator {
	return &QRGenerator{clientBaseURL: strings.TrimRight(clientBaseURL, "/")}
}

// TableURL returns the URL a scan of this table's code opens.
func (q *QRGenerator) TableURL(tableID string) string {
	return fmt.Sprintf("%s/%s", q.clientBaseURL, tableID)
}

// GenerateTableQR returns a 256x256 PNG for the table's client URL.
func (q *QRGenerator) GenerateTableQR(tableID string) ([]byte, error) {
	return qrcode.Encode(q.TableURL(tableID), qrcode.Medium, 256)
}
