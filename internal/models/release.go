package models

// Asset is a single downloadable file attached to a release
type Asset struct {
	Name        string
	DownloadURL string
}

// Release is a tagged publication on the upstream host
type Release struct {
	Tag    string
	Assets []Asset
}

// Status values accepted by the KiCad package manager
const (
	StatusStable      = "stable"
	StatusTesting     = "testing"
	StatusDevelopment = "development"
	StatusDeprecated  = "deprecated"
)

// Defaults used when an archive carries no usable metadata for its version
const (
	DefaultStatus       = StatusStable
	DefaultKiCadVersion = "8.0"
)

// ValidStatus reports whether s is a known package status
func ValidStatus(s string) bool {
	switch s {
	case StatusStable, StatusTesting, StatusDevelopment, StatusDeprecated:
		return true
	default:
		return false
	}
}

// AssetMetadata is derived from a downloaded archive
type AssetMetadata struct {
	SHA256       string
	DownloadSize int64
	InstallSize  int64
	Status       string
	KiCadVersion string
}

// VersionRecord is one entry of a package's versions list.
// Field order matches the serialized key order.
type VersionRecord struct {
	Version        string `json:"version"`
	Status         string `json:"status"`
	KiCadVersion   string `json:"kicad_version"`
	DownloadSHA256 string `json:"download_sha256"`
	DownloadSize   int64  `json:"download_size"`
	InstallSize    int64  `json:"install_size"`
	DownloadURL    string `json:"download_url"`
}

// NewVersionRecord builds the record for tag from its asset and metadata
func NewVersionRecord(tag string, asset Asset, meta AssetMetadata) VersionRecord {
	return VersionRecord{
		Version:        tag,
		Status:         meta.Status,
		KiCadVersion:   meta.KiCadVersion,
		DownloadSHA256: meta.SHA256,
		DownloadSize:   meta.DownloadSize,
		InstallSize:    meta.InstallSize,
		DownloadURL:    asset.DownloadURL,
	}
}
