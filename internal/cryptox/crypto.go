// Package cryptox implements the at-rest cipher: a keyed, reversible,
// non-randomized XOR transform with a standard base64 text encoding.
//
// This is obfuscation, not confidentiality. The same input and key always
// produce the same output and a wrong key is not detected here; it decodes to
// different bytes that the caller's JSON layer then rejects.
package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
)

// KeyLength is the working key length. Shorter keys are repeated, longer
// keys are truncated.
const KeyLength = 32

// chunkSize bounds how much of the payload is transformed per step.
const chunkSize = 8192

// deriveKey expands key into the KeyLength-byte working key.
func deriveKey(key string) ([]byte, error) {
	if key == "" {
		return nil, common.ErrEmptyKey
	}
	src := []byte(key)
	k := make([]byte, KeyLength)
	for i := range k {
		k[i] = src[i%len(src)]
	}
	return k, nil
}

// xorStream keeps the key position across chunks so chunking never changes
// the output.
type xorStream struct {
	key []byte
	pos int
}

func (x *xorStream) apply(b []byte) {
	for i := range b {
		b[i] ^= x.key[x.pos]
		x.pos = (x.pos + 1) % len(x.key)
	}
}

// Encrypt XORs plaintext with the working key derived from key and returns
// the base64 text.
//
// Example:
//
//	ct, err := cryptox.Encrypt(`[{"id":"e1"}]`, "1234")
//	if err != nil {
//	    return err
//	}
//	pt, err := cryptox.Decrypt(ct, "1234") // pt == `[{"id":"e1"}]`
func Encrypt(plaintext, key string) (string, error) {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(plaintext)))
	if err := EncryptStream(&sb, strings.NewReader(plaintext), key); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Decrypt reverses Encrypt. It returns common.ErrDecryptionFailed when the
// input is not valid base64.
func Decrypt(ciphertext, key string) (string, error) {
	var sb strings.Builder
	sb.Grow(base64.StdEncoding.DecodedLen(len(ciphertext)))
	if err := DecryptStream(&sb, strings.NewReader(ciphertext), key); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// EncryptStream reads src in chunks, XORs each chunk and writes base64 text
// to dst.
func EncryptStream(dst io.Writer, src io.Reader, key string) error {
	k, err := deriveKey(key)
	if err != nil {
		return err
	}

	stream := &xorStream{key: k}
	enc := base64.NewEncoder(base64.StdEncoding, dst)
	buf := make([]byte, chunkSize)

	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			stream.apply(buf[:n])
			if _, err := enc.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write ciphertext: %w", err)
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read plaintext: %w", rerr)
		}
	}

	return enc.Close()
}

// DecryptStream decodes base64 text from src in chunks, XORs it and writes
// the plaintext to dst. Malformed input is reported as
// common.ErrDecryptionFailed.
func DecryptStream(dst io.Writer, src io.Reader, key string) error {
	k, err := deriveKey(key)
	if err != nil {
		return err
	}

	stream := &xorStream{key: k}
	dec := base64.NewDecoder(base64.StdEncoding, src)
	buf := make([]byte, chunkSize)

	for {
		n, rerr := dec.Read(buf)
		if n > 0 {
			stream.apply(buf[:n])
			if _, err := dst.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write plaintext: %w", err)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("%w: %v", common.ErrDecryptionFailed, rerr)
		}
	}
}
