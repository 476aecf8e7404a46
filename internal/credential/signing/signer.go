// Package signing holds the service's RSA keypair and signs credential
// payloads as RS256 JWTs.
package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"

	"trustbridge/internal/credential"
)

const keyBits = 2048

// Payload is the canonical credential payload. Assertions are sorted by claim
// type before signing so the same claim set always signs to the same bytes.
type Payload struct {
	HolderID   string                 `json:"holder_id"`
	HolderName string                 `json:"holder_name"`
	Assertions []credential.Assertion `json:"claims"`
	jwt.RegisteredClaims
}

// Context is a loaded signing keypair. The private key never leaves this
// package.
type Context struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
}

// Load reads the PEM keypair at the given paths, generating and persisting a
// fresh one when the private key does not exist yet. Key rotation is a
// deliberate non-feature: replacing the key invalidates every outstanding
// credential.
func Load(privatePath, publicPath string) (*Context, error) {
	raw, err := os.ReadFile(privatePath)
	switch {
	case err == nil:
		key, err := parsePrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %w", privatePath, err)
		}
		return &Context{private: key, public: &key.PublicKey}, nil
	case errors.Is(err, os.ErrNotExist):
		return generate(privatePath, publicPath)
	default:
		return nil, fmt.Errorf("read private key %s: %w", privatePath, err)
	}
}

// NewEphemeral generates an in-memory keypair. Tests and memory-backed runs
// use this; nothing is written to disk.
func NewEphemeral() (*Context, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Context{private: key, public: &key.PublicKey}, nil
}

func generate(privatePath, publicPath string) (*Context, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(privatePath), 0o750); err != nil {
		return nil, fmt.Errorf("create key dir: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: mustMarshalPKCS8(key),
	})
	if err := os.WriteFile(privatePath, privPEM, 0o600); err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	if err := os.WriteFile(publicPath, pubPEM, 0o644); err != nil {
		return nil, fmt.Errorf("write public key: %w", err)
	}
	return &Context{private: key, public: &key.PublicKey}, nil
}

func parsePrivateKey(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("not an RSA private key")
		}
		return rsaKey, nil
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func mustMarshalPKCS8(key *rsa.PrivateKey) []byte {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		// MarshalPKCS8PrivateKey cannot fail for a key we just generated.
		panic(err)
	}
	return der
}

// Sign produces the compact RS256 JWT for a canonical payload.
func (c *Context) Sign(payload Payload) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, payload)
	signed, err := token.SignedString(c.private)
	if err != nil {
		return "", fmt.Errorf("sign credential: %w", err)
	}
	return signed, nil
}

// Verify checks the JWT signature with the public key and returns the payload
// it carries. Expiry is deliberately not enforced here: the caller reports an
// expired-but-authentic credential differently from a forged one.
func (c *Context) Verify(signedJWT string) (*Payload, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	var payload Payload
	if _, err := parser.ParseWithClaims(signedJWT, &payload, func(*jwt.Token) (any, error) {
		return c.public, nil
	}); err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	return &payload, nil
}
