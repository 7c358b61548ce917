package store

import (
	"errors"
	"fmt"

	engine "acceptrec.co.uk/timesheets/timesheet/core"
	"gorm.io/gorm"
)

// notFound maps gorm's missing-record error onto engine.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, engine.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}
