package processor

import (
	"encoding/json"
	"fmt"

	"github.com/CDFER/cd-fer-kicad-repository/internal/archive"
	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"
)

// MetadataFile is the package metadata document at the archive root
const MetadataFile = "metadata.json"

// embeddedMetadata is the subset of metadata.json the processor reads
type embeddedMetadata struct {
	Versions []struct {
		Version      string `json:"version"`
		Status       string `json:"status"`
		KiCadVersion string `json:"kicad_version"`
	} `json:"versions"`
}

// lookupVersionInfo returns the status and kicad_version the archive declares
// for tag. Every failure falls back to the defaults.
func lookupVersionInfo(archivePath string, format archive.Format, tag string) (status, kicadVersion string) {
	status, kicadVersion = models.DefaultStatus, models.DefaultKiCadVersion

	data, err := archive.ReadMember(archivePath, format, MetadataFile)
	if err != nil {
		logrus.Warnf("No usable %s for %s, using defaults: %v", MetadataFile, tag, err)
		return
	}

	s, k, err := parseVersionInfo(data, tag)
	if err != nil {
		logrus.Warnf("Ignoring %s for %s, using defaults: %v", MetadataFile, tag, err)
		return
	}

	if s != "" {
		if models.ValidStatus(s) {
			status = s
		} else {
			logrus.Warnf("Unknown status %q for %s, using %q", s, tag, status)
		}
	}

	if k != "" {
		if _, err := version.NewVersion(k); err == nil {
			kicadVersion = k
		} else {
			logrus.Warnf("Invalid kicad_version %q for %s, using %q", k, tag, kicadVersion)
		}
	}

	return status, kicadVersion
}

// parseVersionInfo finds the versions entry matching tag
func parseVersionInfo(data []byte, tag string) (status, kicadVersion string, err error) {
	var meta embeddedMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", "", fmt.Errorf("failed to parse: %w", err)
	}

	for _, v := range meta.Versions {
		if v.Version == tag {
			return v.Status, v.KiCadVersion, nil
		}
	}

	return "", "", fmt.Errorf("no entry for version %s", tag)
}
