// Package postgres is the alternate loader.Source for deployments that
// keep system data in a relational store instead of CSV checkouts. It
// mirrors the same ten logical tables the CSV loader reads, queried
// over github.com/lib/pq, and produces an identically shaped
// model.System.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	_ "github.com/lib/pq"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/timescale"
)

// Source reads every table from a single Postgres database identified
// by DSN.
type Source struct {
	DSN string
}

func New(dsn string) Source {
	return Source{DSN: dsn}
}

func (s Source) Load(ctx context.Context) (*model.System, error) {
	db, err := sql.Open("postgres", s.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	sys := model.New()

	if err := loadBuses(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadLines(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadGenerators(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadStorage(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadScenarios(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadTimeseries(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadTimepoints(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadLoads(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := loadCapacityFactors(ctx, db, sys); err != nil {
		return nil, err
	}
	if err := classifyGenerators(sys); err != nil {
		return nil, err
	}
	if err := loadPolicy(ctx, db, sys); err != nil {
		return nil, err
	}

	if err := timescale.Resolve(sys); err != nil {
		return nil, err
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

func loadBuses(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT name, kv, type, lat, lon, slack FROM buses`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b model.Bus
		if err := rows.Scan(&b.Name, &b.KV, &b.Type, &b.Lat, &b.Lon, &b.Slack); err != nil {
			return err
		}
		sys.Buses[b.Name] = b
		sys.BusOrder = append(sys.BusOrder, b.Name)
	}
	return rows.Err()
}

func loadLines(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT name, from_bus, to_bus, rate, r, x, g, b FROM lines`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.Line
		if err := rows.Scan(&l.Name, &l.From, &l.To, &l.RateMW, &l.R, &l.X, &l.G, &l.B); err != nil {
			return err
		}
		sys.Lines = append(sys.Lines, l)
	}
	return rows.Err()
}

func loadGenerators(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx,
		`SELECT name, tech, bus_name, c2, c1, c0, invest_cost, exist_cap, cap_limit, var_om_cost FROM generators`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var g model.Generator
		if err := rows.Scan(&g.Name, &g.Tech, &g.Bus, &g.C2, &g.C1, &g.C0, &g.InvestCost, &g.ExistCap, &g.CapLimit, &g.VarOMCost); err != nil {
			return err
		}
		g.Stage = model.StageOneDispatchable
		sys.Generators[g.Name] = g
		sys.GenOrder = append(sys.GenOrder, g.Name)
	}
	return rows.Err()
}

func loadStorage(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx,
		`SELECT name, tech, bus_name, invest_cost, exist_power_cap, exist_energy_cap, var_om_cost, efficiency, duration FROM energy_storage`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e model.EnergyStorage
		if err := rows.Scan(&e.Name, &e.Tech, &e.Bus, &e.InvestCost, &e.ExistPowerCap, &e.ExistEnergyCap, &e.VarOMCost, &e.Efficiency, &e.DurationHrs); err != nil {
			return err
		}
		sys.Storage[e.Name] = e
		sys.StorageOrder = append(sys.StorageOrder, e.Name)
	}
	return rows.Err()
}

func loadScenarios(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT name, probability FROM scenarios`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var sc model.Scenario
		if err := rows.Scan(&sc.Name, &sc.Probability); err != nil {
			return err
		}
		sys.Scenarios[sc.Name] = sc
		sys.ScenarioOrder = append(sys.ScenarioOrder, sc.Name)
	}
	return rows.Err()
}

func loadTimeseries(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, duration_of_timepoints, number_timepoints, scale_to_period FROM timeseries`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		ts := &model.Timeseries{}
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.DurationOfTimepoints, &ts.NumberTimepoints, &ts.ScaleToPeriod); err != nil {
			return err
		}
		sys.Timeseries[ts.Name] = ts
		sys.TimeseriesByID[ts.ID] = ts
	}
	return rows.Err()
}

func loadTimepoints(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT id, name, timeseries_name FROM timepoints ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		tp := &model.Timepoint{}
		if err := rows.Scan(&tp.ID, &tp.Name, &tp.TimeseriesName); err != nil {
			return err
		}
		sys.Timepoints[tp.ID] = tp
		sys.TimepointByName[tp.Name] = tp
		sys.TimepointOrder = append(sys.TimepointOrder, tp.ID)

		ts, ok := sys.Timeseries[tp.TimeseriesName]
		if !ok {
			return fmt.Errorf("loader/postgres: timepoint %q references unknown timeseries %q", tp.Name, tp.TimeseriesName)
		}
		ts.TimepointIDs = append(ts.TimepointIDs, tp.ID)
	}
	return rows.Err()
}

func loadLoads(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT bus_name, scenario_name, timepoint_name, mw FROM loads`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k model.LoadKey
		var mw float64
		if err := rows.Scan(&k.Bus, &k.Scenario, &k.Timepoint, &mw); err != nil {
			return err
		}
		sys.Load[k] = mw
	}
	return rows.Err()
}

func loadCapacityFactors(ctx context.Context, db *sql.DB, sys *model.System) error {
	rows, err := db.QueryContext(ctx, `SELECT generator_name, scenario_name, timepoint_name, cf FROM capacity_factors`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k model.CapacityFactorKey
		var cf float64
		if err := rows.Scan(&k.Generator, &k.Scenario, &k.Timepoint, &cf); err != nil {
			return err
		}
		sys.CapacityFactor[k] = cf
	}
	return rows.Err()
}

func classifyGenerators(sys *model.System) error {
	variable := make(map[string]bool)
	for key := range sys.CapacityFactor {
		variable[key.Generator] = true
	}
	for _, name := range sys.GenOrder {
		if variable[name] {
			g := sys.Generators[name]
			g.Stage = model.StageTwoVariable
			sys.Generators[name] = g
		}
	}
	return nil
}

func loadPolicy(ctx context.Context, db *sql.DB, sys *model.System) error {
	var degrees float64
	row := db.QueryRowContext(ctx, `SELECT max_diffangle_degrees FROM policy LIMIT 1`)
	if err := row.Scan(&degrees); err != nil {
		return err
	}
	sys.Policy = model.Policy{MaxDiffAngleRadians: degrees * (math.Pi / 180)}
	return nil
}
