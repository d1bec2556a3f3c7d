package discount

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	saltHeader = "Salted__"
	saltLen    = 8
	keyLen     = 32
)

var ErrMalformed = errors.New("discount: malformed ciphertext")

// Sealer encrypts with a passphrase the way CryptoJS.AES does by default:
// an OpenSSL "Salted__" envelope, MD5 EVP_BytesToKey derivation, AES-256-CBC
// with PKCS#7 padding, base64 encoded.
type Sealer struct {
	passphrase []byte
	rand       io.Reader
}

func NewSealer(passphrase string) *Sealer {
	return &Sealer{passphrase: []byte(passphrase), rand: rand.Reader}
}

func (s *Sealer) Seal(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(s.rand, salt); err != nil {
		return "", fmt.Errorf("discount: salt: %w", err)
	}
	key, iv := deriveKey(s.passphrase, salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(saltHeader)+saltLen+len(padded))
	copy(out, saltHeader)
	copy(out[len(saltHeader):], salt)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(saltHeader)+saltLen:], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	head := len(saltHeader) + saltLen
	if len(raw) < head+aes.BlockSize || !bytes.HasPrefix(raw, []byte(saltHeader)) {
		return "", ErrMalformed
	}
	body := raw[head:]
	if len(body)%aes.BlockSize != 0 {
		return "", ErrMalformed
	}

	key, iv := deriveKey(s.passphrase, raw[len(saltHeader):head])
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)
	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// deriveKey is OpenSSL's EVP_BytesToKey with MD5 and a single iteration.
func deriveKey(passphrase, salt []byte) (key, iv []byte) {
	var out, prev []byte
	for len(out) < keyLen+aes.BlockSize {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		out = append(out, prev...)
	}
	return out[:keyLen], out[keyLen : keyLen+aes.BlockSize]
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrMalformed
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrMalformed
	}
	for _, v := range b[len(b)-n:] {
		if int(v) != n {
			return nil, ErrMalformed
		}
	}
	return b[:len(b)-n], nil
}
