package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/utils"
)

// UpdateTimeLayout formats packages.update_time_utc
const UpdateTimeLayout = "2006-01-02 15:04:05"

const (
	updateTimeKey      = "update_time_utc"
	updateTimestampKey = "update_timestamp"
	packagesSHA256Key  = "sha256"
)

var errNoPackagesObject = errors.New(`missing "packages" object`)

// Stamp sets the update time of a repository descriptor to now. When the
// descriptor already records a packages.sha256 and packagesSHA256 is not
// empty, that digest is refreshed as well.
func Stamp(data []byte, now time.Time, packagesSHA256 string) ([]byte, error) {
	doc := NewObject()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse repository descriptor: %w", err)
	}

	raw, ok := doc.Get(PackagesKey)
	if !ok {
		return nil, errNoPackagesObject
	}
	packages := NewObject()
	if err := json.Unmarshal(raw, packages); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoPackagesObject, err)
	}

	now = now.UTC()
	if err := packages.SetValue(updateTimeKey, now.Format(UpdateTimeLayout)); err != nil {
		return nil, err
	}
	if err := packages.SetValue(updateTimestampKey, now.Unix()); err != nil {
		return nil, err
	}
	if packagesSHA256 != "" && packages.Has(packagesSHA256Key) {
		if err := packages.SetValue(packagesSHA256Key, packagesSHA256); err != nil {
			return nil, err
		}
	}

	if err := doc.SetValue(PackagesKey, packages); err != nil {
		return nil, err
	}

	return Encode(doc)
}

// StampRepository rewrites the repository descriptor at path with the
// update time set to now
func StampRepository(path string, now time.Time, packagesSHA256 string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewError(models.ErrManifest, path, err)
	}

	stamped, err := Stamp(data, now, packagesSHA256)
	if err != nil {
		return models.NewError(models.ErrManifest, path, err)
	}

	if err := utils.WriteFile(path, stamped, utils.FileMode(path, 0644)); err != nil {
		return models.NewError(models.ErrManifest, path, fmt.Errorf("failed to write repository descriptor: %w", err))
	}

	return nil
}
