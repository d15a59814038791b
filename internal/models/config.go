package models

import "time"

// SyncConfig contains configuration for a repository sync run
type SyncConfig struct {
	// Manifests
	PackagesFile   string
	RepositoryFile string

	// Upstream
	Owner     string
	Repo      string
	Token     string
	UserAgent string
	APIURL    string // empty uses api.github.com

	// Asset matching
	AssetPrefix string
	AssetSuffix string

	// Downloads
	TempDir     string
	HTTPTimeout time.Duration // 0 keeps the transport default

	// Signing
	GPGKeyPath    string
	GPGPassphrase string

	DryRun bool
}
