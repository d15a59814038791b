package updater

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/CDFER/cd-fer-kicad-repository/internal/manifest"
	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/processor"
	"github.com/CDFER/cd-fer-kicad-repository/internal/releases"
	"github.com/CDFER/cd-fer-kicad-repository/internal/signer"
	"github.com/CDFER/cd-fer-kicad-repository/internal/utils"
	"github.com/sirupsen/logrus"
)

// Suffixes appended to the manifest path for its detached signature and the
// public key that verifies it
const (
	SignatureSuffix = ".asc"
	PublicKeySuffix = ".pub"
)

// Updater runs one synchronization of the package repository
type Updater struct {
	config    *models.SyncConfig
	source    releases.Source
	processor processor.Processor
	differ    *Differ
	signer    signer.Signer

	// now is replaceable in tests
	now func() time.Time
}

// Result summarizes a run
type Result struct {
	Added   []string
	Skipped []string
}

// New creates a new updater. s may be nil for unsigned manifests.
func New(config *models.SyncConfig, source releases.Source, proc processor.Processor, s signer.Signer) *Updater {
	return &Updater{
		config:    config,
		source:    source,
		processor: proc,
		differ:    NewDiffer(config.AssetPrefix, config.AssetSuffix),
		signer:    s,
		now:       time.Now,
	}
}

// Run fetches the upstream releases, records every new version in the
// package manifest and stamps the repository descriptor
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	// Step 1: Fetch releases
	rels, err := u.source.Releases(ctx)
	if err != nil {
		return nil, err
	}

	// Step 2: Diff against the manifest
	m, err := manifest.LoadPackages(u.config.PackagesFile)
	if err != nil {
		return nil, err
	}

	if n := m.NumPackages(); n > 1 {
		logrus.Warnf("%s lists %d packages, new versions are only added to the first", u.config.PackagesFile, n)
	}

	pending := u.differ.Pending(rels, m.ExistingVersions())
	logrus.Infof("Found %d new versions", len(pending))

	// Step 3: Process each new release
	result := &Result{}
	for _, c := range pending {
		meta, err := u.processor.Process(ctx, c.Tag, c.Asset)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// The version stays unrecorded and is retried on the next run
			logrus.Warnf("Skipping %s: %v", c.Tag, err)
			result.Skipped = append(result.Skipped, c.Tag)
			continue
		}

		if err := m.Prepend(models.NewVersionRecord(c.Tag, c.Asset, *meta)); err != nil {
			return nil, models.NewError(models.ErrManifest, u.config.PackagesFile, err)
		}
		result.Added = append(result.Added, c.Tag)
	}

	if u.config.DryRun {
		logrus.Infof("Dry run: would add %v and stamp %s", result.Added, u.config.RepositoryFile)
		return result, nil
	}

	// Step 4: Write manifests
	if err := manifest.SavePackages(u.config.PackagesFile, m); err != nil {
		return nil, err
	}
	logrus.Infof("Wrote %s", u.config.PackagesFile)

	if err := u.sign(); err != nil {
		return nil, err
	}

	if err := u.Stamp(); err != nil {
		return nil, err
	}

	return result, nil
}

// Stamp refreshes the repository descriptor's update time
func (u *Updater) Stamp() error {
	sum := ""
	if checksum, err := utils.CalculateChecksums(u.config.PackagesFile); err == nil {
		sum = checksum.SHA256
	} else {
		logrus.Debugf("Not refreshing packages digest: %v", err)
	}

	now := u.now()
	if err := manifest.StampRepository(u.config.RepositoryFile, now, sum); err != nil {
		return err
	}

	logrus.Infof("Stamped %s at %s UTC", u.config.RepositoryFile, now.UTC().Format(manifest.UpdateTimeLayout))
	return nil
}

func (u *Updater) sign() error {
	if u.signer == nil {
		return nil
	}

	data, err := os.ReadFile(u.config.PackagesFile)
	if err != nil {
		return models.NewError(models.ErrManifest, u.config.PackagesFile, err)
	}

	sig, err := u.signer.SignDetached(data)
	if err != nil {
		return models.NewError(models.ErrSigning, u.config.PackagesFile, err)
	}

	sigPath := u.config.PackagesFile + SignatureSuffix
	if err := utils.WriteFile(sigPath, sig, 0644); err != nil {
		return models.NewError(models.ErrSigning, sigPath, fmt.Errorf("failed to write signature: %w", err))
	}

	pub, err := u.signer.GetPublicKey()
	if err != nil {
		return models.NewError(models.ErrSigning, u.config.PackagesFile, fmt.Errorf("failed to export public key: %w", err))
	}

	pubPath := u.config.PackagesFile + PublicKeySuffix
	if err := utils.WriteFile(pubPath, pub, 0644); err != nil {
		return models.NewError(models.ErrSigning, pubPath, fmt.Errorf("failed to write public key: %w", err))
	}

	logrus.Infof("Signed %s", u.config.PackagesFile)
	return nil
}
