package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	msg := "hola mundo ✓ secreto"
	ct, err := box.Seal(msg)
	require.NoError(t, err)
	assert.NotContains(t, ct, msg)

	pt, err := box.Open(ct)
	require.NoError(t, err)
	assert.Equal(t, msg, pt)
}

func TestOpen_DetectsTamper(t *testing.T) {
	box, err := New(testKey())
	require.NoError(t, err)

	ct, err := box.Seal("top secret")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(ct)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF

	_, err = box.Open(base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrOpen)

	_, err = box.Open("corto")
	assert.Error(t, err)
}

func TestOpen_WrongKey(t *testing.T) {
	a, err := New(testKey())
	require.NoError(t, err)
	other := testKey()
	other[0] ^= 0xFF
	b, err := New(other)
	require.NoError(t, err)

	ct, err := a.Seal("x")
	require.NoError(t, err)
	_, err = b.Open(ct)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestParseKey(t *testing.T) {
	raw := testKey()

	for name, in := range map[string]string{
		"base64":     base64.StdEncoding.EncodeToString(raw),
		"base64-raw": base64.RawStdEncoding.EncodeToString(raw),
		"hex":        hex.EncodeToString(raw),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParseKey(in)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}

	_, err := ParseKey("demasiado-corta")
	assert.Error(t, err)

	_, err = New([]byte("short"))
	assert.Error(t, err)
}
