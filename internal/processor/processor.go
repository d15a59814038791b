package processor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/CDFER/cd-fer-kicad-repository/internal/archive"
	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
	"github.com/CDFER/cd-fer-kicad-repository/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Processor turns a release asset into version metadata
type Processor interface {
	// Process downloads and inspects asset, the archive published for tag
	Process(ctx context.Context, tag string, asset models.Asset) (*models.AssetMetadata, error)
}

// AssetProcessor implements Processor by downloading assets over HTTP
type AssetProcessor struct {
	client  *http.Client
	tempDir string
}

// NewAssetProcessor creates a new asset processor. An empty tempDir uses the
// system default.
func NewAssetProcessor(client *http.Client, tempDir string) *AssetProcessor {
	if client == nil {
		client = http.DefaultClient
	}
	return &AssetProcessor{
		client:  client,
		tempDir: tempDir,
	}
}

// Process downloads the asset to a temporary file, hashes it and measures
// its sizes. The temporary file is removed before Process returns.
func (p *AssetProcessor) Process(ctx context.Context, tag string, asset models.Asset) (*models.AssetMetadata, error) {
	logrus.Infof("Processing %s (%s)", tag, asset.Name)

	path, cleanup, err := Download(ctx, p.client, p.tempDir, asset.DownloadURL)
	if err != nil {
		return nil, models.NewError(models.ErrAsset, tag, err)
	}
	defer cleanup()

	meta, err := inspect(path, asset.Name, tag)
	if err != nil {
		return nil, models.NewError(models.ErrAsset, tag, err)
	}

	logrus.Infof("Processed %s: sha256=%s download=%s install=%s status=%s kicad=%s",
		tag, meta.SHA256,
		humanize.Bytes(uint64(meta.DownloadSize)), humanize.Bytes(uint64(meta.InstallSize)),
		meta.Status, meta.KiCadVersion)

	return meta, nil
}

// inspect computes the metadata of the archive at path. name is the asset
// name, which decides the archive format before magic bytes are consulted.
func inspect(path, name, tag string) (*models.AssetMetadata, error) {
	checksum, err := utils.CalculateChecksums(path)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	format, err := detectFormat(path, name)
	if err != nil {
		return nil, err
	}

	installSize, err := archive.InstallSize(path, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s archive: %w", format, err)
	}

	status, kicadVersion := lookupVersionInfo(path, format, tag)

	return &models.AssetMetadata{
		SHA256:       checksum.SHA256,
		DownloadSize: checksum.Size,
		InstallSize:  installSize,
		Status:       status,
		KiCadVersion: kicadVersion,
	}, nil
}

func detectFormat(path, name string) (archive.Format, error) {
	// The temp file name carries no extension, so try the asset name first
	if format := archive.FormatFromName(name); format != archive.FormatUnknown {
		return format, nil
	}

	format, err := archive.DetectFormat(path)
	if err != nil {
		return archive.FormatUnknown, fmt.Errorf("failed to detect archive format: %w", err)
	}
	if format == archive.FormatUnknown {
		return archive.FormatUnknown, fmt.Errorf("unrecognized archive format for %s", name)
	}

	return format, nil
}
