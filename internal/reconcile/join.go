// Package reconcile merges a new address snapshot with the previous one,
// carrying forward coordinates for unchanged addresses and geocoding the rest.
package reconcile

import (
	"fmt"

	"github.com/sells-group/georef/internal/model"
)

// Pair is one new row and its previous-generation counterpart, if any.
type Pair struct {
	New model.Row
	Old *model.Row
}

// DuplicateIDError reports an id that occurs more than once in the new snapshot.
type DuplicateIDError struct {
	ID   int64
	Rows []int // 1-based positions
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("reconcile: duplicate id %d in new snapshot (rows %v)", e.ID, e.Rows)
}

// Join left-joins next onto prev by id. Every row of next appears exactly
// once, in order. When prev repeats an id the first occurrence is used.
func Join(prev, next model.RowSet) ([]Pair, error) {
	byID := make(map[int64]*model.Row, len(prev))
	for i := range prev {
		if _, ok := byID[prev[i].ID]; !ok {
			byID[prev[i].ID] = &prev[i]
		}
	}

	seen := make(map[int64]int, len(next))
	pairs := make([]Pair, 0, len(next))
	for i, r := range next {
		if first, dup := seen[r.ID]; dup {
			return nil, &DuplicateIDError{ID: r.ID, Rows: []int{first + 1, i + 1}}
		}
		seen[r.ID] = i
		pairs = append(pairs, Pair{New: r, Old: byID[r.ID]})
	}
	return pairs, nil
}
