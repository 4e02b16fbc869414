// Package secretbox cifra valores cortos (tokens temporales) con
// nacl/secretbox: XSalsa20 + Poly1305 con nonce aleatorio de 24 bytes.
//
// Formato del texto cifrado: base64url(nonce || sealed), sin padding.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize es el largo requerido de la clave (32 bytes).
	KeySize   = 32
	nonceSize = 24
)

// ErrOpen se retorna cuando el texto cifrado fue alterado o la clave no coincide.
var ErrOpen = errors.New("secretbox: autenticación fallida")

// Box cifra y descifra con una clave fija.
type Box struct {
	key [KeySize]byte
}

// New crea un Box a partir de una clave cruda de 32 bytes.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("secretbox: clave inválida: %d bytes (requiere %d)", len(key), KeySize)
	}
	b := &Box{}
	copy(b.key[:], key)
	return b, nil
}

// ParseKey acepta la clave en base64 (std o raw), hex (64 chars) o cruda.
func ParseKey(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if b, err := base64.StdEncoding.DecodeString(key); err == nil && len(b) == KeySize {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(key); err == nil && len(b) == KeySize {
		return b, nil
	}
	if len(key) == 2*KeySize {
		if h, err := hex.DecodeString(key); err == nil {
			return h, nil
		}
	}
	if len(key) == KeySize {
		return []byte(key), nil
	}
	return nil, fmt.Errorf("secretbox: clave inválida: se esperan %d bytes en base64, hex o crudos", KeySize)
}

// Seal cifra plainText.
func (b *Box) Seal(plainText string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secretbox: nonce random: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plainText), &nonce, &b.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open descifra un valor producido por Seal.
func (b *Box) Open(cipherText string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("secretbox: decode: %w", err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	pt, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrOpen
	}
	return string(pt), nil
}
