package qr

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder(t *testing.T) {
	b, err := Encoder{}.Encode("vless://id@example.com:443?security=tls#alice", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = Encoder{}.Encode("", 0)
	assert.Error(t, err)
}
