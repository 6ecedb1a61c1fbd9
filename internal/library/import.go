package library

import (
	"context"
	"errors"

	"github.com/verte-zerg/dictype/internal/model"
)

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Libraries  int
	Items      int
	WrongItems int
	// Skipped lists library names that already exist.
	Skipped []string
}

// Import adds parsed libraries to the store. Entries of the wrong-item
// collection are merged into the existing one; a library whose id is taken is
// stored under a fresh id, and one whose name is taken is skipped.
func (s *Store) Import(ctx context.Context, libs []model.Library) (ImportResult, error) {
	var res ImportResult
	for _, lib := range libs {
		if lib.IsWrongLibrary() {
			for _, item := range lib.Items {
				source := model.Library{ID: item.SourceLibraryID, Name: item.SourceLibraryName}
				_, added, err := s.AddWrongItem(ctx, item, source)
				if err != nil {
					return res, err
				}
				if added {
					res.WrongItems++
				}
			}
			continue
		}
		added, err := s.AddLibrary(ctx, lib)
		if errors.Is(err, ErrDuplicateID) {
			lib.ID = ""
			added, err = s.AddLibrary(ctx, lib)
		}
		if errors.Is(err, ErrNameConflict) {
			res.Skipped = append(res.Skipped, lib.Name)
			continue
		}
		if err != nil {
			return res, err
		}
		res.Libraries++
		res.Items += len(added.Items)
	}
	return res, nil
}
