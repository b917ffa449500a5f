// Package matrix keeps the pairwise exchange-ratio grid in memory with a
// dirty-cell set, so the store can persist only what changed. Cell indexes
// map to stable pair identities rebuilt from the enabled pairs, which keeps
// the mapping valid across process restarts.
package matrix

import (
	"fmt"
	"sort"
	"sync"

	"tradestore/pkg/storage/postgres"
)

// Manager implements the postgres.RatioMatrix collaborator contract.
type Manager struct {
	mu      sync.Mutex
	symbols []string
	index   map[string]int
	values  [][]float64
	pairIDs [][]uint
	dirty   map[postgres.Cell]struct{}
}

// NewManager builds the grid from the enabled pairs. Every pair's from and
// to symbol becomes a row/column; cells without a pair (the diagonal) keep
// identity zero and must not be written.
func NewManager(pairs []postgres.Pair) (*Manager, error) {
	seen := make(map[string]bool)
	for _, p := range pairs {
		seen[p.FromCoinSymbol] = true
		seen[p.ToCoinSymbol] = true
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		index[s] = i
	}

	n := len(symbols)
	values := make([][]float64, n)
	pairIDs := make([][]uint, n)
	for i := range values {
		values[i] = make([]float64, n)
		pairIDs[i] = make([]uint, n)
	}

	for _, p := range pairs {
		row, col := index[p.FromCoinSymbol], index[p.ToCoinSymbol]
		if row == col {
			return nil, fmt.Errorf("pair %d relates %s to itself", p.ID, p.FromCoinSymbol)
		}
		if pairIDs[row][col] != 0 {
			return nil, fmt.Errorf("duplicate pair %s->%s (ids %d, %d)",
				p.FromCoinSymbol, p.ToCoinSymbol, pairIDs[row][col], p.ID)
		}
		pairIDs[row][col] = p.ID
		values[row][col] = p.Ratio
	}

	return &Manager{
		symbols: symbols,
		index:   index,
		values:  values,
		pairIDs: pairIDs,
		dirty:   make(map[postgres.Cell]struct{}),
	}, nil
}

// Symbols returns the row/column order of the grid.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.symbols))
	copy(out, m.symbols)
	return out
}

// Index returns the grid index of symbol.
func (m *Manager) Index(symbol string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[symbol]
	return i, ok
}

// Set updates one cell's ratio and marks it dirty.
func (m *Manager) Set(row, col int, ratio float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row == col || m.pairIDs[row][col] == 0 {
		return fmt.Errorf("no pair behind cell (%d,%d)", row, col)
	}
	m.values[row][col] = ratio
	m.dirty[postgres.Cell{Row: row, Col: col}] = struct{}{}
	return nil
}

func (m *Manager) Value(row, col int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[row][col]
}

func (m *Manager) PairID(row, col int) uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairIDs[row][col]
}

// DirtyCells returns the cells mutated since the last Commit.
func (m *Manager) DirtyCells() []postgres.Cell {
	m.mu.Lock()
	defer m.mu.Unlock()
	cells := make([]postgres.Cell, 0, len(m.dirty))
	for cell := range m.dirty {
		cells = append(cells, cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// Commit clears the dirty set. The sync protocol calls this only after the
// dirty values were durably written.
func (m *Manager) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = make(map[postgres.Cell]struct{})
}
