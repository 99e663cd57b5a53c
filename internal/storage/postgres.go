package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IshaanNene/PlayaETL/internal/types"
)

const postgresBatchSize = 200

// PostgresSink writes the enriched dataset to a PostgreSQL table.
type PostgresSink struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// NewPostgresSink opens a pool and creates the target table if needed.
func NewPostgresSink(ctx context.Context, dsn, table string, logger *slog.Logger) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Err: fmt.Errorf("parse dsn: %w", err)}
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Err: fmt.Errorf("connect: %w", err)}
	}

	s := &PostgresSink{
		pool:   pool,
		table:  pgx.Identifier(strings.Split(table, ".")).Sanitize(),
		logger: logger.With("component", "postgres_sink"),
	}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (
		id                    BIGSERIAL PRIMARY KEY,
		name                  TEXT,
		product_code          TEXT,
		brand                 TEXT,
		category              TEXT,
		subcategory           TEXT,
		family                TEXT,
		reviews               INTEGER NOT NULL DEFAULT 0,
		rating                DOUBLE PRECISION NOT NULL DEFAULT 0,
		url_image             TEXT,
		internet_price        DOUBLE PRECISION,
		normal_price          DOUBLE PRECISION,
		seller                TEXT,
		url_product           TEXT NOT NULL,
		price_diff_pct        DOUBLE PRECISION,
		relation_flag         BOOLEAN,
		clarity_flag          TEXT,
		suggested_description TEXT,
		loaded_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return &types.StorageError{Backend: "postgres", Path: s.table, Err: fmt.Errorf("create table: %w", err)}
	}
	return nil
}

// Write inserts the records in batches; nil fields become SQL NULL.
func (s *PostgresSink) Write(ctx context.Context, records []types.EnrichedRecord) error {
	total := 0
	for i := 0; i < len(records); i += postgresBatchSize {
		j := min(i+postgresBatchSize, len(records))

		b := &pgx.Batch{}
		for _, r := range records[i:j] {
			b.Queue(
				`INSERT INTO `+s.table+`
				(name, product_code, brand, category, subcategory, family, reviews, rating,
				 url_image, internet_price, normal_price, seller, url_product, price_diff_pct,
				 relation_flag, clarity_flag, suggested_description)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
				r.Name, r.ProductCode, r.Brand, r.Category, r.Subcategory, r.Family,
				r.ReviewCount, r.Rating, r.URLImage, r.InternetPrice, r.NormalPrice,
				r.Seller, r.URLProduct, r.PriceDiffPct, r.RelationFlag, r.ClarityFlag,
				r.SuggestedDescription,
			)
		}

		br := s.pool.SendBatch(ctx, b)
		for k := i; k < j; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return &types.StorageError{Backend: "postgres", Path: s.table, Err: fmt.Errorf("insert: %w", err)}
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return &types.StorageError{Backend: "postgres", Path: s.table, Err: err}
		}
	}

	s.logger.Info("enriched dataset stored in postgres", "table", s.table, "rows", total)
	return nil
}

func (s *PostgresSink) Close(context.Context) error {
	s.pool.Close()
	return nil
}
