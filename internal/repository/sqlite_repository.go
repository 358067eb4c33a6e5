package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cart-offer/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS offers (
		seq           INTEGER PRIMARY KEY AUTOINCREMENT,
		id            TEXT NOT NULL UNIQUE,
		restaurant_id INTEGER NOT NULL CHECK (restaurant_id > 0),
		offer_type    TEXT NOT NULL CHECK (offer_type IN ('FLATX', 'FLATX%')),
		offer_value   INTEGER NOT NULL CHECK (offer_value > 0),
		created_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS offer_segments (
		offer_id      TEXT NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		restaurant_id INTEGER NOT NULL,
		segment       TEXT NOT NULL CHECK (length(segment) <= 64),
		position      INTEGER NOT NULL,
		PRIMARY KEY (offer_id, segment)
	);

	CREATE INDEX IF NOT EXISTS idx_offer_segments_lookup ON offer_segments(restaurant_id, segment);
`

// segmentSeparator joins segments in the aggregated lookup column.
const segmentSeparator = "\x1f"

// sqliteOfferRepository implements the OfferRepository interface using SQLite.
type sqliteOfferRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// MigrateSQLite creates the offer schema if it does not exist.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate offer schema: %w", err)
	}
	return nil
}

// NewSQLiteOfferRepository creates a new SQLite-backed offer repository.
func NewSQLiteOfferRepository(db *sql.DB, logger zerolog.Logger) OfferRepository {
	return &sqliteOfferRepository{
		db:     db,
		logger: logger.With().Str("repository", "offer-sqlite").Logger(),
	}
}

// Put inserts the offer and its segments in a single transaction.
func (r *sqliteOfferRepository) Put(ctx context.Context, offer *model.Offer) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO offers (id, restaurant_id, offer_type, offer_value, created_at) VALUES (?, ?, ?, ?, ?)`,
		offer.ID.String(),
		offer.RestaurantID,
		string(offer.Type),
		offer.Value,
		offer.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO offer_segments (offer_id, restaurant_id, segment, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, segment := range offer.Segments {
		if _, err = stmt.ExecContext(ctx, offer.ID.String(), offer.RestaurantID, segment, i); err != nil {
			r.logger.Error().
				Err(err).
				Str("offer_id", offer.ID.String()).
				Str("segment", segment).
				Msg("failed to create offer segment")
			return fmt.Errorf("failed to create offer segment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	return nil
}

// Lookup retrieves the offers for a restaurant and segment in insertion order.
func (r *sqliteOfferRepository) Lookup(ctx context.Context, restaurantID int64, segment string) ([]model.Offer, error) {
	query := `
		SELECT o.id, o.restaurant_id, o.offer_type, o.offer_value, o.created_at,
		       (SELECT group_concat(segment, char(31))
		          FROM (SELECT s2.segment FROM offer_segments s2
		                 WHERE s2.offer_id = o.id
		                 ORDER BY s2.position)) AS segments
		FROM offers o
		JOIN offer_segments s ON s.offer_id = o.id
		WHERE s.restaurant_id = ? AND s.segment = ?
		ORDER BY o.seq
	`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, segment)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("restaurant_id", restaurantID).
			Str("segment", segment).
			Msg("failed to query offers")
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []model.Offer{}
	for rows.Next() {
		var (
			o          model.Offer
			id         string
			offerType  string
			createdAt  string
			segmentCSV string
		)
		if err := rows.Scan(&id, &o.RestaurantID, &offerType, &o.Value, &createdAt, &segmentCSV); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer row")
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		if o.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid offer id %q: %w", id, err)
		}
		if o.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("invalid created_at for offer %s: %w", id, err)
		}
		o.Type = model.OfferType(offerType)
		o.Segments = strings.Split(segmentCSV, segmentSeparator)

		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer rows")
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
