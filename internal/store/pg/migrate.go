package pg

import (
	"context"
	"fmt"
	"sort"

	migrations "github.com/dropDatabas3/dearjane/migrations/postgres"
)

// Migrate aplica las migraciones embebidas en orden lexical. Idempotente:
// el esquema usa IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}
