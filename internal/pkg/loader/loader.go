// Package loader defines the Source boundary the composer's caller
// depends on: something that produces a validated, timescale-resolved
// model.System. Two backends exist (loader/csv and loader/postgres);
// neither is imported by the core.
package loader

import (
	"context"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// Source loads a complete System. Implementations are responsible for
// calling timescale.Resolve and model.System.Validate before
// returning; a Source never returns a System that still needs either.
type Source interface {
	Load(ctx context.Context) (*model.System, error)
}
