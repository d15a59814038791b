package signer

// Signer interface for signing repository manifests
type Signer interface {
	// SignDetached creates an armored detached signature (packages.json.asc)
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the public key
	GetPublicKey() ([]byte, error)
}
