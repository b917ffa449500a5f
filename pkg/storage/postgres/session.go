package postgres

import (
	"context"

	"gorm.io/gorm"
)

// WithSession runs fn inside one transactional unit of work. A nil return
// commits; an error or panic unwinding through fn rolls the whole unit back
// before the error propagates to the caller. Every logical store operation
// is scoped by exactly one session; nesting is not supported.
func (s *Store) WithSession(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.DB.WithContext(ctx).Transaction(fn)
}
