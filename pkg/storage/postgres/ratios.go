package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Cell addresses one entry of the in-memory ratio matrix.
type Cell struct {
	Row int
	Col int
}

// RatioMatrix is the contract the external ratio-matrix collaborator must
// satisfy for the sync protocol. DirtyCells reports every cell mutated since
// the last Commit; PairID maps a cell to the stable pair identity; Value
// reads the cell's current ratio; Commit clears the dirty set and must only
// be called after the dirty values are durably written.
type RatioMatrix interface {
	DirtyCells() []Cell
	PairID(row, col int) uint
	Value(row, col int) float64
	Commit()
}

// CommitRatios persists every dirty cell of m as one batched multi-row
// update in a single transaction, then clears the collaborator's dirty set.
// If the transaction fails the dirty set is left intact so the next cycle
// retries the same cells; no cell is ever marked clean before its value is
// durable.
func (s *Store) CommitRatios(ctx context.Context, m RatioMatrix) error {
	cells := m.DirtyCells()
	if len(cells) == 0 {
		return nil
	}

	// Single UPDATE ... SET ratio = CASE id ... END over the whole batch.
	var when strings.Builder
	args := make([]any, 0, len(cells)*2)
	ids := make([]uint, 0, len(cells))
	for _, cell := range cells {
		when.WriteString(" WHEN ? THEN ?")
		args = append(args, m.PairID(cell.Row, cell.Col), m.Value(cell.Row, cell.Col))
		ids = append(ids, m.PairID(cell.Row, cell.Col))
	}
	query := fmt.Sprintf("UPDATE pairs SET ratio = CASE id%s END WHERE id IN ?", when.String())
	args = append(args, ids)

	err := s.WithSession(ctx, func(tx *gorm.DB) error {
		return tx.Exec(query, args...).Error
	})
	if err != nil {
		return fmt.Errorf("commit ratios: %w", err)
	}

	m.Commit()
	return nil
}
