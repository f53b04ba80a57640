// Package cryptoroot provisions the issuing authority's IACA root and the
// document signer key whose certificate chain goes into x5chain.
package cryptoroot

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kokukuma/mdoc-issuance/pkg/pki"
)

const (
	rootKeyFile  = "rootKey.pem"
	rootCertFile = "rootCert.pem"
)

type DocumentSigner struct {
	Key *ecdsa.PrivateKey
	// Chain is DER, document signer certificate first.
	Chain [][]byte
	Root  *x509.Certificate
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// NewDocumentSigner returns a fresh document signer under the IACA root
// stored in dir. The root is created and written to dir when missing. An
// empty dir keeps the root in memory only.
func NewDocumentSigner(dir string) (*DocumentSigner, error) {
	rootKey, rootCert, err := loadOrCreateRoot(dir)
	if err != nil {
		return nil, err
	}

	dsKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	_, dsDer, err := createDocumentSignerCertificate(dsKey, rootCert, rootKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create document signer certificate: %w", err)
	}

	return &DocumentSigner{
		Key:   dsKey,
		Chain: [][]byte{dsDer, rootCert.Raw},
		Root:  rootCert,
	}, nil
}

func loadOrCreateRoot(dir string) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	keyPath := filepath.Join(dir, rootKeyFile)
	certPath := filepath.Join(dir, rootCertFile)

	if dir != "" && fileExists(keyPath) && fileExists(certPath) {
		rootKey, err := pki.LoadPrivateKey(keyPath)
		if err != nil {
			return nil, nil, err
		}
		chain, err := pki.LoadCertificateChain(certPath)
		if err != nil {
			return nil, nil, err
		}
		rootCert, err := x509.ParseCertificate(chain[0])
		if err != nil {
			return nil, nil, err
		}
		return rootKey, rootCert, nil
	}

	rootKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	rootCert, _, err := createRootCertificate(rootKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create root certificate: %w", err)
	}

	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, nil, err
		}
		err := errors.Join(pki.WritePrivateKey(rootKey, keyPath), pki.WriteCertificate(rootCert, certPath))
		if err != nil {
			return nil, nil, err
		}
	}
	return rootKey, rootCert, nil
}

// CalcKID is the SHA-1 key identifier of RFC 5280 section 4.2.1.2 (1).
func CalcKID(pub *ecdsa.PublicKey) []byte {
	h := sha1.Sum(elliptic.Marshal(pub.Curve, pub.X, pub.Y))
	return h[:]
}
