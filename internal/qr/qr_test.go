package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	g := DefaultGenerator{BaseURL: "http://localhost:8000"}

	png, err := g.Generate("Meja 3")

	require.NoError(t, err)
	require.True(t, len(png) > 8)
	// PNG signature
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, png[:8])
}

func TestGenerate_EscapesRoom(t *testing.T) {
	g := DefaultGenerator{BaseURL: "http://localhost:8000"}

	png, err := g.Generate("a room/with?chars&")

	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
