package updater

import (
	"slices"
	"strings"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/sirupsen/logrus"
)

// Default asset naming of the JLCPCB KiCad library releases
const (
	DefaultAssetPrefix = "JLCPCB-KiCad-Library-"
	DefaultAssetSuffix = ".zip"
)

// Candidate is a release selected for processing together with its archive
type Candidate struct {
	Tag   string
	Asset models.Asset
}

// Differ selects the releases whose versions are not recorded yet
type Differ struct {
	prefix string
	suffix string
}

// NewDiffer creates a new differ matching assets named prefix*suffix
func NewDiffer(prefix, suffix string) *Differ {
	return &Differ{
		prefix: prefix,
		suffix: suffix,
	}
}

// Match returns the first asset named like a library archive
func (d *Differ) Match(assets []models.Asset) (models.Asset, bool) {
	for _, a := range assets {
		if strings.HasPrefix(a.Name, d.prefix) && strings.HasSuffix(a.Name, d.suffix) {
			return a, true
		}
	}
	return models.Asset{}, false
}

// Pending returns the releases to process, oldest first. releases is in
// upstream order (newest first); prepending the candidates in the returned
// order leaves the newest version at the front.
func (d *Differ) Pending(releases []models.Release, existing map[string]struct{}) []Candidate {
	seen := make(map[string]struct{}, len(releases))
	var pending []Candidate

	for _, r := range releases {
		if r.Tag == "" {
			logrus.Debug("Skipping release without a tag")
			continue
		}
		if _, ok := existing[r.Tag]; ok {
			logrus.Debugf("Skipping %s: already recorded", r.Tag)
			continue
		}
		if _, ok := seen[r.Tag]; ok {
			logrus.Debugf("Skipping %s: duplicate tag", r.Tag)
			continue
		}

		asset, ok := d.Match(r.Assets)
		if !ok {
			logrus.Debugf("Skipping %s: no asset matching %s*%s", r.Tag, d.prefix, d.suffix)
			continue
		}

		seen[r.Tag] = struct{}{}
		pending = append(pending, Candidate{Tag: r.Tag, Asset: asset})
	}

	slices.Reverse(pending)
	return pending
}
