package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/utils"
)

// PackagesKey is the top-level key holding the package list
const PackagesKey = "packages"

const versionsKey = "versions"

var (
	errNoPackagesKey = errors.New(`missing top-level "packages" array`)
	errNoPackages    = errors.New(`"packages" array is empty`)
)

// PackageManifest is a parsed packages.json. Only the version lists are
// interpreted; everything else is carried through unchanged.
type PackageManifest struct {
	doc      *Object
	packages []*Object
	// versions[i] holds the raw version records of packages[i]
	versions [][]json.RawMessage
	// ids[i] holds the version identifiers of versions[i], in the same order
	ids [][]string
}

// ParsePackages parses a package manifest and validates its structure
func ParsePackages(data []byte) (*PackageManifest, error) {
	doc := NewObject()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var packages []*Object
	found, err := doc.Decode(PackagesKey, &packages)
	if err != nil {
		return nil, err
	}
	if !found || packages == nil {
		return nil, errNoPackagesKey
	}
	if len(packages) == 0 {
		return nil, errNoPackages
	}

	m := &PackageManifest{
		doc:      doc,
		packages: packages,
		versions: make([][]json.RawMessage, len(packages)),
		ids:      make([][]string, len(packages)),
	}

	for i, pkg := range packages {
		if pkg == nil {
			return nil, fmt.Errorf("package %d is not an object", i)
		}

		var records []json.RawMessage
		if _, err := pkg.Decode(versionsKey, &records); err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}

		ids := make([]string, len(records))
		for j, raw := range records {
			var rec struct {
				Version string `json:"version"`
			}
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, fmt.Errorf("package %d: version %d: %w", i, j, err)
			}
			ids[j] = rec.Version
		}

		m.versions[i] = records
		m.ids[i] = ids
	}

	return m, nil
}

// LoadPackages reads and parses the package manifest at path
func LoadPackages(path string) (*PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewError(models.ErrManifest, path, err)
	}

	m, err := ParsePackages(data)
	if err != nil {
		return nil, models.NewError(models.ErrManifest, path, err)
	}

	return m, nil
}

// SavePackages rewrites the whole manifest at path
func SavePackages(path string, m *PackageManifest) error {
	data, err := m.Marshal()
	if err != nil {
		return models.NewError(models.ErrManifest, path, err)
	}

	if err := utils.WriteFile(path, data, utils.FileMode(path, 0644)); err != nil {
		return models.NewError(models.ErrManifest, path, fmt.Errorf("failed to write manifest: %w", err))
	}

	return nil
}

// NumPackages returns the number of packages in the manifest
func (m *PackageManifest) NumPackages() int {
	return len(m.packages)
}

// Versions returns the version identifiers of package i, newest first
func (m *PackageManifest) Versions(i int) []string {
	return append([]string(nil), m.ids[i]...)
}

// ExistingVersions returns every version identifier recorded in any package
func (m *PackageManifest) ExistingVersions() map[string]struct{} {
	set := make(map[string]struct{})
	for _, ids := range m.ids {
		for _, id := range ids {
			set[id] = struct{}{}
		}
	}
	return set
}

// Prepend inserts rec at the front of the first package's version list
func (m *PackageManifest) Prepend(rec models.VersionRecord) error {
	raw, err := marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode version %s: %w", rec.Version, err)
	}

	m.versions[0] = append([]json.RawMessage{raw}, m.versions[0]...)
	m.ids[0] = append([]string{rec.Version}, m.ids[0]...)
	return nil
}

// Marshal renders the manifest with four-space indentation
func (m *PackageManifest) Marshal() ([]byte, error) {
	for i, pkg := range m.packages {
		// Leave packages without a versions key untouched unless one was added
		if m.versions[i] == nil && !pkg.Has(versionsKey) {
			continue
		}
		records := m.versions[i]
		if records == nil {
			records = []json.RawMessage{}
		}
		if err := pkg.SetValue(versionsKey, records); err != nil {
			return nil, err
		}
	}

	if err := m.doc.SetValue(PackagesKey, m.packages); err != nil {
		return nil, err
	}

	return Encode(m.doc)
}
