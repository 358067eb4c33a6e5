package segment

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// tableResolver resolves segments from a static Table.
// The table is read-only after construction.
type tableResolver struct {
	table Table
}

// NewTableResolver creates a Resolver backed by a static table.
func NewTableResolver(table Table) Resolver {
	if table == nil {
		table = NewMapTable(0)
	}
	return &tableResolver{table: table}
}

// Resolve looks the user up in the table. It never returns an error.
func (r *tableResolver) Resolve(_ context.Context, userID int64) (string, bool, error) {
	segment, ok := r.table.Lookup(userID)
	return segment, ok, nil
}

// LoadTable loads every path concurrently and merges the results in the
// order the paths were given, so later files override earlier ones.
func LoadTable(ctx context.Context, loader Loader, paths []string, logger zerolog.Logger) (Table, error) {
	logger = logger.With().Str("component", "segment-table").Logger()

	type loadResult struct {
		index int
		table Table
		err   error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			table, err := loader.Load(ctx, path)
			resultChan <- loadResult{
				index: index,
				table: table,
				err:   err,
			}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	merged := NewMapTable(0).(*mapTable)
	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", paths[i]).
				Msg("failed to load segment file")
			return nil, fmt.Errorf("failed to load segment file %s: %w", paths[i], result.err)
		}
		merged.merge(result.table)
	}

	logger.Info().
		Int("file_count", len(paths)).
		Int("total_users", merged.Size()).
		Msg("segment table loaded")

	return merged, nil
}
