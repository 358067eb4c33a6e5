package repository

import (
	"context"
	"fmt"

	"cart-offer/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// offerRepository implements the OfferRepository interface using PostgreSQL.
type offerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOfferRepository creates a new PostgreSQL-backed offer repository.
func NewOfferRepository(pool *pgxpool.Pool, logger zerolog.Logger) OfferRepository {
	return &offerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "offer").Logger(),
	}
}

// Put inserts the offer and its segments in a single transaction.
func (r *offerRepository) Put(ctx context.Context, offer *model.Offer) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := `
		INSERT INTO offers (id, restaurant_id, offer_type, offer_value, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, query, offer.ID, offer.RestaurantID, string(offer.Type), offer.Value, offer.CreatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("offer_id", offer.ID.String()).
			Msg("failed to create offer")
		return fmt.Errorf("failed to create offer: %w", err)
	}

	if err = r.insertSegments(ctx, tx, offer); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("offer_id", offer.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	r.logger.Debug().
		Str("offer_id", offer.ID.String()).
		Int64("restaurant_id", offer.RestaurantID).
		Int("segment_count", len(offer.Segments)).
		Msg("offer created successfully")

	return nil
}

// insertSegments batches one row per segment within the provided transaction.
func (r *offerRepository) insertSegments(ctx context.Context, tx pgx.Tx, offer *model.Offer) error {
	if len(offer.Segments) == 0 {
		return nil
	}

	query := `
		INSERT INTO offer_segments (offer_id, restaurant_id, segment, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (offer_id, segment) DO NOTHING
	`

	batch := &pgx.Batch{}
	for i, segment := range offer.Segments {
		batch.Queue(query, offer.ID, offer.RestaurantID, segment, i)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(offer.Segments); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("offer_id", offer.ID.String()).
				Str("segment", offer.Segments[i]).
				Msg("failed to create offer segment")
			return fmt.Errorf("failed to create offer segment: %w", err)
		}
	}

	return nil
}

// Lookup retrieves the offers for a restaurant and segment in insertion order.
func (r *offerRepository) Lookup(ctx context.Context, restaurantID int64, segment string) ([]model.Offer, error) {
	query := `
		SELECT o.id, o.restaurant_id, o.offer_type, o.offer_value, o.created_at,
		       ARRAY(
		           SELECT s2.segment FROM offer_segments s2
		           WHERE s2.offer_id = o.id
		           ORDER BY s2.position
		       ) AS segments
		FROM offers o
		JOIN offer_segments s ON s.offer_id = o.id
		WHERE s.restaurant_id = $1 AND s.segment = $2
		ORDER BY o.seq
	`

	rows, err := r.pool.Query(ctx, query, restaurantID, segment)
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
			o         model.Offer
			offerType string
		)
		if err := rows.Scan(&o.ID, &o.RestaurantID, &offerType, &o.Value, &o.CreatedAt, &o.Segments); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan offer row")
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		o.Type = model.OfferType(offerType)
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating offer rows")
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
