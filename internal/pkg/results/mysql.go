package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// CostLedger inserts one itemized cost row per run component
// (CostPerTimepoint[t], CostPerPeriod, TotalCost) into a MySQL table,
// for fleets that already warehouse cost reporting relationally
// instead of (or alongside) CSV output.
type CostLedger struct {
	DSN   string
	Table string
}

func (l CostLedger) Write(ctx context.Context, runID string, sys *model.System, res *composer.Result) error {
	db, err := sql.Open("mysql", l.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (run_id VARCHAR(64), component VARCHAR(64), cost DOUBLE)`, l.Table)); err != nil {
		return err
	}

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stmt, err := db.PrepareContext(insertCtx, fmt.Sprintf(
		`INSERT INTO %s (run_id, component, cost) VALUES (?, ?, ?)`, l.Table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range sys.TimepointOrder {
		component := fmt.Sprintf("CostPerTimepoint[%s]", sys.Timepoints[t].Name)
		if _, err := stmt.ExecContext(insertCtx, runID, component, res.CostPerTimepoint[t]); err != nil {
			return err
		}
	}
	if _, err := stmt.ExecContext(insertCtx, runID, "CostPerPeriod", res.CostPerPeriod); err != nil {
		return err
	}
	if _, err := stmt.ExecContext(insertCtx, runID, "TotalCost", res.TotalCost); err != nil {
		return err
	}
	return nil
}
