package deck

import (
	"errors"
	"fmt"

	"github.com/Mr-Dark-debug/gallery/internal/database"

	"github.com/google/uuid"
)

// Import stores d in the library and sets d.ID. Re-importing a file that
// is already in the library replaces that deck instead of adding a copy.
func Import(store database.Store, d *Deck) error {
	if d.ID == "" && d.Source != "" {
		existing, err := store.FindDeckBySource(d.Source)
		switch {
		case err == nil:
			d.ID = existing.DeckID
		case !errors.Is(err, database.ErrNotFound):
			return fmt.Errorf("looking up deck source: %w", err)
		}
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	rec, slides := d.Record()
	if err := store.InsertDeck(rec); err != nil {
		return err
	}
	if err := store.BatchInsertSlides(d.ID, slides); err != nil {
		return err
	}
	return nil
}
