// Package signer produces detached OpenPGP signatures for rendered reports.
package signer

import (
	"fmt"

	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/utils"
)

// Signer signs rendered metadata
type Signer interface {
	// SignDetached creates an armored detached signature
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the public key
	GetPublicKey() ([]byte, error)
}

// SignatureSuffix is appended to the signed file's path
const SignatureSuffix = ".asc"

// WriteSignature signs data and writes the signature next to path
func WriteSignature(s Signer, path string, data []byte) (string, error) {
	sig, err := s.SignDetached(data)
	if err != nil {
		return "", &models.Error{Type: models.ErrSigning, Entry: path, Err: err}
	}

	sigPath := path + SignatureSuffix
	if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
		return "", &models.Error{Type: models.ErrFileOp, Entry: sigPath, Err: fmt.Errorf("failed to write signature: %w", err)}
	}
	return sigPath, nil
}
