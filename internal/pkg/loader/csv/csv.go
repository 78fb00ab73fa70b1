// Package csv is the required loader.Source: it reads the ten input
// tables named in spec.md §6 from a directory, resolves the
// timepoint/timeseries calendar, validates the result, and returns an
// immutable model.System. No third-party CSV library exists anywhere
// in this lineage's dependency graph, so this reads with the standard
// library's encoding/csv, mapping columns by header name rather than
// position (spec.md §6: "column order arbitrary").
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
	"github.com/REAM-lab/CATEX/internal/pkg/timescale"
)

// Source reads the ten CSV tables from Dir.
type Source struct {
	Dir string
}

func New(dir string) Source {
	return Source{Dir: dir}
}

func (s Source) Load(ctx context.Context) (*model.System, error) {
	sys := model.New()

	if err := s.loadBuses(sys); err != nil {
		return nil, err
	}
	if err := s.loadLines(sys); err != nil {
		return nil, err
	}
	if err := s.loadGenerators(sys); err != nil {
		return nil, err
	}
	if err := s.loadStorage(sys); err != nil {
		return nil, err
	}
	if err := s.loadScenarios(sys); err != nil {
		return nil, err
	}
	if err := s.loadTimeseries(sys); err != nil {
		return nil, err
	}
	if err := s.loadTimepoints(sys); err != nil {
		return nil, err
	}
	if err := s.loadLoads(sys); err != nil {
		return nil, err
	}
	if err := s.loadCapacityFactors(sys); err != nil {
		return nil, err
	}
	if err := s.classifyGenerators(sys); err != nil {
		return nil, err
	}
	if err := s.loadPolicy(sys); err != nil {
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

// table holds one CSV file's header->column index plus its data rows.
type table struct {
	file string
	idx  map[string]int
	rows [][]string
}

func (s Source) readTable(name string) (*table, error) {
	path := filepath.Join(s.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, &MissingFileError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("loader/csv: %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("loader/csv: %s: empty file", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		idx[col] = i
	}
	return &table{file: path, idx: idx, rows: records[1:]}, nil
}

func (t *table) col(row []string, name string) (string, error) {
	i, ok := t.idx[name]
	if !ok {
		return "", fmt.Errorf("loader/csv: %s: missing column %q", t.file, name)
	}
	if i >= len(row) {
		return "", fmt.Errorf("loader/csv: %s: row too short for column %q", t.file, name)
	}
	return row[i], nil
}

func (t *table) float(row []string, name string) (float64, error) {
	s, err := t.col(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("loader/csv: %s: column %q: %w", t.file, name, err)
	}
	return v, nil
}

func (t *table) int(row []string, name string) (int, error) {
	s, err := t.col(row, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("loader/csv: %s: column %q: %w", t.file, name, err)
	}
	return v, nil
}

func (t *table) bool(row []string, name string) (bool, error) {
	s, err := t.col(row, name)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("loader/csv: %s: column %q: %w", t.file, name, err)
	}
	return v, nil
}

func (s Source) loadBuses(sys *model.System) error {
	t, err := s.readTable("buses.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		kv, err := t.float(row, "kv")
		if err != nil {
			return err
		}
		typ, err := t.col(row, "type")
		if err != nil {
			return err
		}
		lat, err := t.float(row, "lat")
		if err != nil {
			return err
		}
		lon, err := t.float(row, "lon")
		if err != nil {
			return err
		}
		slack, err := t.bool(row, "slack")
		if err != nil {
			return err
		}
		sys.Buses[name] = model.Bus{Name: name, KV: kv, Type: typ, Lat: lat, Lon: lon, Slack: slack}
		sys.BusOrder = append(sys.BusOrder, name)
	}
	return nil
}

func (s Source) loadLines(sys *model.System) error {
	t, err := s.readTable("lines.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		from, err := t.col(row, "from_bus")
		if err != nil {
			return err
		}
		to, err := t.col(row, "to_bus")
		if err != nil {
			return err
		}
		rate, err := t.float(row, "rate")
		if err != nil {
			return err
		}
		r, err := t.float(row, "r")
		if err != nil {
			return err
		}
		x, err := t.float(row, "x")
		if err != nil {
			return err
		}
		g, err := t.float(row, "g")
		if err != nil {
			return err
		}
		b, err := t.float(row, "b")
		if err != nil {
			return err
		}
		sys.Lines = append(sys.Lines, model.Line{Name: name, From: from, To: to, RateMW: rate, R: r, X: x, G: g, B: b})
	}
	return nil
}

func (s Source) loadGenerators(sys *model.System) error {
	t, err := s.readTable("generators.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		tech, err := t.col(row, "tech")
		if err != nil {
			return err
		}
		bus, err := t.col(row, "bus_name")
		if err != nil {
			return err
		}
		c2, err := t.float(row, "c2")
		if err != nil {
			return err
		}
		c1, err := t.float(row, "c1")
		if err != nil {
			return err
		}
		c0, err := t.float(row, "c0")
		if err != nil {
			return err
		}
		invest, err := t.float(row, "invest_cost")
		if err != nil {
			return err
		}
		exist, err := t.float(row, "exist_cap")
		if err != nil {
			return err
		}
		capLimit, err := t.float(row, "cap_limit")
		if err != nil {
			return err
		}
		varOM, err := t.float(row, "var_om_cost")
		if err != nil {
			return err
		}
		sys.Generators[name] = model.Generator{
			Name: name, Tech: tech, Bus: bus,
			C2: c2, C1: c1, C0: c0,
			InvestCost: invest, ExistCap: exist, CapLimit: capLimit, VarOMCost: varOM,
			Stage: model.StageOneDispatchable,
		}
		sys.GenOrder = append(sys.GenOrder, name)
	}
	return nil
}

func (s Source) loadStorage(sys *model.System) error {
	t, err := s.readTable("energy_storage.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		tech, err := t.col(row, "tech")
		if err != nil {
			return err
		}
		bus, err := t.col(row, "bus_name")
		if err != nil {
			return err
		}
		invest, err := t.float(row, "invest_cost")
		if err != nil {
			return err
		}
		existPower, err := t.float(row, "exist_power_cap")
		if err != nil {
			return err
		}
		existEnergy, err := t.float(row, "exist_energy_cap")
		if err != nil {
			return err
		}
		varOM, err := t.float(row, "var_om_cost")
		if err != nil {
			return err
		}
		eff, err := t.float(row, "efficiency")
		if err != nil {
			return err
		}
		dur, err := t.float(row, "duration")
		if err != nil {
			return err
		}
		sys.Storage[name] = model.EnergyStorage{
			Name: name, Tech: tech, Bus: bus,
			InvestCost: invest, ExistPowerCap: existPower, ExistEnergyCap: existEnergy,
			VarOMCost: varOM, Efficiency: eff, DurationHrs: dur,
		}
		sys.StorageOrder = append(sys.StorageOrder, name)
	}
	return nil
}

func (s Source) loadScenarios(sys *model.System) error {
	t, err := s.readTable("scenarios.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		prob, err := t.float(row, "probability")
		if err != nil {
			return err
		}
		sys.Scenarios[name] = model.Scenario{Name: name, Probability: prob}
		sys.ScenarioOrder = append(sys.ScenarioOrder, name)
	}
	return nil
}

func (s Source) loadTimeseries(sys *model.System) error {
	t, err := s.readTable("timeseries.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		id, err := t.int(row, "id")
		if err != nil {
			return err
		}
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		durOf, err := t.float(row, "duration_of_timepoints")
		if err != nil {
			return err
		}
		numTP, err := t.int(row, "number_timepoints")
		if err != nil {
			return err
		}
		scale, err := t.float(row, "scale_to_period")
		if err != nil {
			return err
		}
		ts := &model.Timeseries{ID: id, Name: name, DurationOfTimepoints: durOf, NumberTimepoints: numTP, ScaleToPeriod: scale}
		sys.Timeseries[name] = ts
		sys.TimeseriesByID[id] = ts
	}
	return nil
}

func (s Source) loadTimepoints(sys *model.System) error {
	t, err := s.readTable("timepoints.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		id, err := t.int(row, "id")
		if err != nil {
			return err
		}
		name, err := t.col(row, "name")
		if err != nil {
			return err
		}
		tsName, err := t.col(row, "timeseries_name")
		if err != nil {
			return err
		}
		tp := &model.Timepoint{ID: id, Name: name, TimeseriesName: tsName}
		sys.Timepoints[id] = tp
		sys.TimepointByName[name] = tp
		sys.TimepointOrder = append(sys.TimepointOrder, id)

		ts, ok := sys.Timeseries[tsName]
		if !ok {
			return fmt.Errorf("loader/csv: timepoints.csv: timepoint %q references unknown timeseries %q", name, tsName)
		}
		ts.TimepointIDs = append(ts.TimepointIDs, id)
	}
	for _, ts := range sys.Timeseries {
		sort.Ints(ts.TimepointIDs)
	}
	return nil
}

func (s Source) loadLoads(sys *model.System) error {
	t, err := s.readTable("loads.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		bus, err := t.col(row, "bus_name")
		if err != nil {
			return err
		}
		scenario, err := t.col(row, "scenario_name")
		if err != nil {
			return err
		}
		timepoint, err := t.col(row, "timepoint_name")
		if err != nil {
			return err
		}
		mw, err := t.float(row, "mw")
		if err != nil {
			return err
		}
		sys.Load[model.LoadKey{Bus: bus, Scenario: scenario, Timepoint: timepoint}] = mw
	}
	return nil
}

func (s Source) loadCapacityFactors(sys *model.System) error {
	t, err := s.readTable("capacity_factors.csv")
	if err != nil {
		return err
	}
	for _, row := range t.rows {
		gen, err := t.col(row, "generator_name")
		if err != nil {
			return err
		}
		scenario, err := t.col(row, "scenario_name")
		if err != nil {
			return err
		}
		timepoint, err := t.col(row, "timepoint_name")
		if err != nil {
			return err
		}
		cf, err := t.float(row, "cf")
		if err != nil {
			return err
		}
		sys.CapacityFactor[model.CapacityFactorKey{Generator: gen, Scenario: scenario, Timepoint: timepoint}] = cf
	}
	return nil
}

// classifyGenerators tags every generator with Stage: a generator with
// at least one capacity_factors.csv entry is StageTwoVariable, matching
// design note 9.2's "make the implicit classification explicit."
func (s Source) classifyGenerators(sys *model.System) error {
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

func (s Source) loadPolicy(sys *model.System) error {
	t, err := s.readTable("max_diffangle.csv")
	if err != nil {
		return err
	}
	if len(t.rows) == 0 {
		return fmt.Errorf("loader/csv: max_diffangle.csv: no data row")
	}
	degrees, err := t.float(t.rows[0], "max_diffangle_degrees")
	if err != nil {
		return err
	}
	sys.Policy = model.Policy{MaxDiffAngleRadians: degrees * (math.Pi / 180)}
	return nil
}

// MissingFileError reports a required input file absent from the load
// directory, per spec.md §7 category 1 ("missing input files fail fast
// with a diagnostic naming the file").
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("loader/csv: missing input file %s: %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }
