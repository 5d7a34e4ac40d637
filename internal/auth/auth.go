// Package auth holds exchange login credentials and the client certificate used
// for certificate-based login.
package auth

import (
	"crypto/tls"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// ErrEmptyCredential is returned when a username or password decodes to nothing.
var ErrEmptyCredential = errors.New("credential is empty")

// Credentials is a decoded username/password pair.
type Credentials struct {
	Username string
	Password string
}

// DecodeCredentials decodes base64-encoded username and password.
func DecodeCredentials(username, password string) (Credentials, error) {
	u, err := DecodeSecret(username)
	if err != nil {
		return Credentials{}, fmt.Errorf("decode username: %w", err)
	}
	p, err := DecodeSecret(password)
	if err != nil {
		return Credentials{}, fmt.Errorf("decode password: %w", err)
	}
	return Credentials{Username: u, Password: p}, nil
}

// DecodeSecret decodes a single base64 value.
func DecodeSecret(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", ErrEmptyCredential
	}
	return string(raw), nil
}

// EncodeSecret base64-encodes a plain value, e.g. a password read from a prompt.
func EncodeSecret(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// Form returns the form-encoded login body.
func (c Credentials) Form() []byte {
	v := url.Values{}
	v.Set("username", c.Username)
	v.Set("password", c.Password)
	return []byte(v.Encode())
}

// LoadCertificate loads the client certificate and private key from PEM files.
func LoadCertificate(certPath, keyPath string) (tls.Certificate, error) {
	if certPath == "" {
		return tls.Certificate{}, fmt.Errorf("certificate path is required")
	}
	if keyPath == "" {
		return tls.Certificate{}, fmt.Errorf("key path is required")
	}

	certPEM, err := readPEM(certPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load certificate: %w", err)
	}
	keyPEM, err := readPEM(keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("load key: %w", err)
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("parse key pair: %w", err)
	}
	return cert, nil
}

// readPEM reads a file and checks that it holds at least one PEM block.
func readPEM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	return data, nil
}
