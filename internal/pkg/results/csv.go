package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/REAM-lab/CATEX/internal/pkg/composer"
	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// CSVWriter is the required result sink: one file per spec.md §6 output
// table, written into dir (normally <main_dir>/outputs). DumpModel
// additionally writes a human-readable model.txt when true.
type CSVWriter struct {
	Dir       string
	DumpModel bool
}

func (w CSVWriter) Write(ctx context.Context, runID string, sys *model.System, res *composer.Result) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	if err := writeRows(w.Dir, "gen_cap.csv", []string{"gen_name", "GenCapacity"}, genCapRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "gen_dispatch.csv", []string{"gen_name", "timepoint", "Dispatch"}, genDispatchRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "var_gen_cap.csv", []string{"gen_name", "scenario", "GenCapacity"}, varGenCapRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "var_gen_dispatch.csv", []string{"gen_name", "scenario", "timepoint", "Dispatch"}, varGenDispatchRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "storage_power_cap.csv", []string{"storage_name", "PowerCapacity"}, storagePowerCapRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "storage_dispatch.csv", []string{"storage_name", "scenario", "timepoint", "Charge", "Discharge", "SOE"}, storageDispatchRows(sys, res)); err != nil {
		return err
	}
	if err := writeRows(w.Dir, "costs_itemized.csv", []string{"component", "cost"}, totalCostRows(sys, res)); err != nil {
		return err
	}

	if err := writeRunSnapshot(w.Dir, runID, res); err != nil {
		return err
	}

	if w.DumpModel {
		if err := writeModelDump(w.Dir, runID, sys, res); err != nil {
			return err
		}
	}
	return nil
}

// runSnapshot is the machine-readable counterpart to the CSV tables,
// read back by cmd/catexd so the read-only results server has no
// in-memory dependency on the process that ran the solve.
type runSnapshot struct {
	RunID  string           `json:"run_id"`
	Result *composer.Result `json:"result"`
}

func writeRunSnapshot(dir, runID string, res *composer.Result) error {
	f, err := os.Create(filepath.Join(dir, "run.json"))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(runSnapshot{RunID: runID, Result: res})
}

func writeRows(dir, name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func genCapRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.DispatchableGenerators() {
		rows = append(rows, []string{name, ftoa(res.Cap[name])})
	}
	return rows
}

func genDispatchRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.DispatchableGenerators() {
		for _, t := range sys.TimepointOrder {
			rows = append(rows, []string{name, sys.Timepoints[t].Name, ftoa(res.Gen[name][t])})
		}
	}
	return rows
}

func varGenCapRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.VariableGenerators() {
		for _, scenario := range sys.ScenarioOrder {
			rows = append(rows, []string{name, scenario, ftoa(res.CapV[name][scenario])})
		}
	}
	return rows
}

func varGenDispatchRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.VariableGenerators() {
		for _, scenario := range sys.ScenarioOrder {
			for _, t := range sys.TimepointOrder {
				rows = append(rows, []string{name, scenario, sys.Timepoints[t].Name, ftoa(res.GenV[name][scenario][t])})
			}
		}
	}
	return rows
}

func storagePowerCapRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.StorageOrder {
		rows = append(rows, []string{name, ftoa(res.StoragePowerCap[name])})
	}
	return rows
}

func storageDispatchRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, name := range sys.StorageOrder {
		for _, scenario := range sys.ScenarioOrder {
			for _, t := range sys.TimepointOrder {
				tpName := sys.Timepoints[t].Name
				rows = append(rows, []string{
					name, scenario, tpName,
					ftoa(res.StorageCharge[name][scenario][t]),
					ftoa(res.StorageDischarge[name][scenario][t]),
					ftoa(res.StorageSOE[name][scenario][t]),
				})
			}
		}
	}
	return rows
}

func totalCostRows(sys *model.System, res *composer.Result) [][]string {
	var rows [][]string
	for _, t := range sys.TimepointOrder {
		rows = append(rows, []string{fmt.Sprintf("CostPerTimepoint[%s]", sys.Timepoints[t].Name), ftoa(res.CostPerTimepoint[t])})
	}
	rows = append(rows, []string{"CostPerPeriod", ftoa(res.CostPerPeriod)})
	rows = append(rows, []string{"TotalCost", ftoa(res.TotalCost)})
	return rows
}

func writeModelDump(dir, runID string, sys *model.System, res *composer.Result) error {
	f, err := os.Create(filepath.Join(dir, "model.txt"))
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "run: %s\n", runID)
	fmt.Fprintf(f, "buses: %d lines: %d generators: %d storage: %d scenarios: %d timepoints: %d\n",
		len(sys.BusOrder), len(sys.Lines), len(sys.GenOrder), len(sys.StorageOrder), len(sys.ScenarioOrder), len(sys.TimepointOrder))
	fmt.Fprintf(f, "total cost: %v\n", res.TotalCost)
	return nil
}
