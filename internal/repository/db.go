package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema creates the offer tables. The seq column records insertion
// order; position keeps the order segments were submitted in.
const postgresSchema = `
	CREATE TABLE IF NOT EXISTS offers (
		seq           BIGSERIAL UNIQUE,
		id            UUID PRIMARY KEY,
		restaurant_id BIGINT NOT NULL CHECK (restaurant_id > 0),
		offer_type    VARCHAR(16) NOT NULL CHECK (offer_type IN ('FLATX', 'FLATX%')),
		offer_value   BIGINT NOT NULL CHECK (offer_value > 0),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS offer_segments (
		offer_id      UUID NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		restaurant_id BIGINT NOT NULL,
		segment       VARCHAR(64) NOT NULL,
		position      INTEGER NOT NULL,
		PRIMARY KEY (offer_id, segment)
	);

	CREATE INDEX IF NOT EXISTS idx_offer_segments_lookup ON offer_segments(restaurant_id, segment);
`

// Migrate creates the offer schema if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate offer schema: %w", err)
	}
	return nil
}
