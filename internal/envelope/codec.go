package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// Version prefix of the envelope format. Bump when the layout changes so old
// envelopes fail decryption cleanly instead of being misparsed.
const envelopePrefix = "fugata.redirect.v1:"

const algorithm = "aes-256-gcm"

func additionalData(keyID, alg string) []byte {
	return []byte(keyID + "|" + alg)
}

// strict decoding rejects non-canonical base64, so no two distinct envelope
// strings decode to the same payload
var (
	urlEncoding = base64.RawURLEncoding.Strict()
	stdEncoding = base64.StdEncoding.Strict()
)

var _ core.ActionCodec = (*Codec)(nil)

// Codec authenticated-encrypts redirect actions so they can transit through
// a browser or a partner POST-back without being readable or forgeable.
// The key is held by trusted backend processes only; Decrypt never runs in
// a browser context.
type Codec struct {
	key   []byte
	keyID string
}

type sealed struct {
	KeyID      string `json:"kid"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// NewCodec derives a 256-bit AES key from the configured secret. An empty
// secret is a configuration error, fatal at startup.
func NewCodec(secret []byte, keyID string) (*Codec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: no envelope secret configured", core.ErrConfiguration)
	}
	if keyID == "" {
		keyID = "redirect-key"
	}
	key := sha256.Sum256(secret)
	return &Codec{
		key:   key[:],
		keyID: keyID,
	}, nil
}

// Encrypt seals the action into a URL-safe opaque string.
func (c *Codec) Encrypt(action *core.RedirectAction) (string, error) {
	if action == nil {
		return "", fmt.Errorf("%w: action is required", core.ErrValidation)
	}
	if err := action.Validate(); err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("encoding action: %w", err)
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	// key id and algorithm ride along as additional data, tampering with
	// either breaks authentication
	ciphertext := gcm.Seal(nil, nonce, plaintext, additionalData(c.keyID, algorithm))
	data, err := json.Marshal(sealed{
		KeyID:      c.keyID,
		Algorithm:  algorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	})
	if err != nil {
		return "", fmt.Errorf("encoding envelope: %w", err)
	}

	return urlEncoding.EncodeToString(append([]byte(envelopePrefix), data...)), nil
}

// Decrypt opens an envelope and returns the redirect action it carries.
// Every failure mode (corruption, truncation, wrong key, bad padding, an
// action that does not validate) surfaces as ErrDecrypt; a failed decrypt
// never returns a partial action.
func (c *Codec) Decrypt(envelope string) (*core.RedirectAction, error) {
	if envelope == "" {
		return nil, fmt.Errorf("%w: empty envelope", core.ErrDecrypt)
	}

	raw, err := urlEncoding.DecodeString(envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}
	if !strings.HasPrefix(string(raw), envelopePrefix) {
		return nil, fmt.Errorf("%w: unknown envelope format", core.ErrDecrypt)
	}

	var env sealed
	if err := json.Unmarshal(raw[len(envelopePrefix):], &env); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}

	nonce, err := stdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}
	ciphertext, err := stdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}

	gcm, err := c.aead()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", core.ErrDecrypt, len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData(env.KeyID, env.Algorithm))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}

	var action core.RedirectAction
	if err := json.Unmarshal(plaintext, &action); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}
	if err := action.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDecrypt, err)
	}
	return &action, nil
}

func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating gcm: %w", err)
	}
	return gcm, nil
}
