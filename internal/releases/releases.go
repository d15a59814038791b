package releases

import (
	"context"

	"github.com/CDFER/cd-fer-kicad-repository/internal/models"
)

// Source lists the published releases of the upstream library
type Source interface {
	// Releases returns every release in upstream order, newest first
	Releases(ctx context.Context) ([]models.Release, error)
}
