// Package admittance assembles the complex nodal admittance matrix for
// a pi-model transmission network and the per-bus aggregate flow cap
// used by the Aggregate flow formulation. See spec §4.1.
//
// The matrix is dense and backed by a name<->index table built once at
// construction, per design note 9.4 ("dense-with-index is preferred for
// hot loops").
package admittance

import (
	"fmt"

	"github.com/REAM-lab/CATEX/internal/pkg/model"
)

// Matrix is the nodal admittance matrix Y and the derived per-bus
// aggregate flow cap, indexed by a name<->index table built once.
type Matrix struct {
	buses   []string
	index   map[string]int
	y       [][]complex128
	maxFlow []float64
}

// Build assembles Y from lines over the given ordered bus names. If
// includeShunts is true, each line's shunt admittance (g + j*b) is
// added at BOTH endpoints, unconventionally without the usual /2
// factor — this reproduces the source formulation (spec §4.1, §9) and
// is not a bug to silently fix.
func Build(buses []string, lines []model.Line, includeShunts bool) (*Matrix, error) {
	index := make(map[string]int, len(buses))
	for i, name := range buses {
		index[name] = i
	}

	n := len(buses)
	y := make([][]complex128, n)
	for i := range y {
		y[i] = make([]complex128, n)
	}
	maxFlow := make([]float64, n)

	for _, l := range lines {
		f, ok := index[l.From]
		if !ok {
			return nil, fmt.Errorf("admittance: line %q from_bus %q not in bus list", l.Name, l.From)
		}
		t, ok := index[l.To]
		if !ok {
			return nil, fmt.Errorf("admittance: line %q to_bus %q not in bus list", l.Name, l.To)
		}

		z := complex(l.R, l.X)
		if z == 0 {
			return nil, fmt.Errorf("admittance: line %q has zero series impedance", l.Name)
		}
		ySeries := 1 / z

		y[f][t] -= ySeries
		y[t][f] -= ySeries
		y[f][f] += ySeries
		y[t][t] += ySeries

		if includeShunts {
			shunt := complex(l.G, l.B)
			y[f][f] += shunt
			y[t][t] += shunt
		}

		maxFlow[f] += l.RateMW
		maxFlow[t] += l.RateMW
	}

	return &Matrix{buses: buses, index: index, y: y, maxFlow: maxFlow}, nil
}

// Buses returns the ordered bus names backing this matrix's indices.
func (m *Matrix) Buses() []string { return m.buses }

// IndexOf returns the dense row/column index of a bus name.
func (m *Matrix) IndexOf(bus string) (int, bool) {
	i, ok := m.index[bus]
	return i, ok
}

// B returns the (n,m) entry of the susceptance matrix, Im(Y). The core
// uses only the susceptance matrix for DC flows (spec §4.1).
func (m *Matrix) B(n, mIdx int) float64 {
	return imag(m.y[n][mIdx])
}

// MaxFlow returns the aggregate flow cap at a bus index: the sum of
// rated MW over every line incident to that bus.
func (m *Matrix) MaxFlow(n int) float64 {
	return m.maxFlow[n]
}

// Neighbors returns the indices m != n for which B(n,m) is nonzero.
func (m *Matrix) Neighbors(n int) []int {
	var out []int
	for mIdx := range m.buses {
		if mIdx == n {
			continue
		}
		if m.B(n, mIdx) != 0 {
			out = append(out, mIdx)
		}
	}
	return out
}
