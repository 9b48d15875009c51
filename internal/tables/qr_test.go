package tables_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/tables"
)

func TestTableURL(t *testing.T) {
	qr := tables.NewQRGenerator("https://bar.example.com/client")
	assert.Equal(t, "https://bar.example.com/client/12", qr.TableURL("12"))

	// Trailing slash on the base URL is normalized away
	qr = tables.NewQRGenerator("https://bar.example.com/client/")
	assert.Equal(t, "https://bar.example.com/client/12", qr.TableURL("12"))
}

func TestGenerateTableQR(t *testing.T) {
	qr := tables.NewQRGenerator("https://bar.example.com/client")

	data, err := qr.GenerateTableQR("42")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}
