package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ CardRepo = (*PostgresCardRepo)(nil)

// PostgresCardRepo talks to the cards table over a direct Postgres connection.
type PostgresCardRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresCardRepo connects and applies the cards schema.
func NewPostgresCardRepo(ctx context.Context, databaseURL string) (*PostgresCardRepo, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	r := &PostgresCardRepo{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresCardRepo) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func (r *PostgresCardRepo) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			slug TEXT NOT NULL,
			full_name TEXT NOT NULL,
			business_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT '',
			tagline TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			whatsapp TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			linkedin TEXT NOT NULL DEFAULT '',
			twitter TEXT NOT NULL DEFAULT '',
			instagram TEXT NOT NULL DEFAULT '',
			facebook TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			qr_url TEXT NOT NULL DEFAULT '',
			is_published BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS cards_slug_unique_idx ON cards (slug);`,
		`CREATE INDEX IF NOT EXISTS cards_user_created_idx ON cards (user_id, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

const pgCardColumns = `id, user_id, slug, full_name, business_name, role, tagline, phone, whatsapp, email,
	website, linkedin, twitter, instagram, facebook, avatar_url, qr_url, is_published, created_at, updated_at`

func scanCard(row pgx.Row) (*Card, error) {
	var c Card
	err := row.Scan(&c.ID, &c.UserID, &c.Slug, &c.FullName, &c.BusinessName, &c.Role, &c.Tagline,
		&c.Phone, &c.Whatsapp, &c.Email, &c.Website, &c.Linkedin, &c.Twitter, &c.Instagram,
		&c.Facebook, &c.AvatarURL, &c.QRURL, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return &c, nil
}

func mapPgErr(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugTaken
	}
	if errors.Is(err, ErrCardNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", action, err)
}

func (r *PostgresCardRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cards WHERE slug = $1)`, slug).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slug %q: %w", slug, err)
	}
	return exists, nil
}

func (r *PostgresCardRepo) UpsertCardByOwner(ctx context.Context, card *Card) (*Card, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialise writers for the same owner so two commits cannot both insert.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, card.UserID.String()); err != nil {
		return nil, fmt.Errorf("lock owner: %w", err)
	}

	var existing uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM cards WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, card.UserID).Scan(&existing)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		out, err := insertCard(ctx, tx, card)
		if err != nil {
			return nil, mapPgErr(err, "insert card")
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("commit upsert: %w", err)
		}
		return out, nil
	case err != nil:
		return nil, fmt.Errorf("find owner card: %w", err)
	}

	fields := card.Row()
	delete(fields, "id")
	delete(fields, "created_at")
	delete(fields, "user_id")
	out, err := updateCard(ctx, tx, existing, fields)
	if err != nil {
		return nil, mapPgErr(err, "overwrite card")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return out, nil
}

func (r *PostgresCardRepo) InsertCard(ctx context.Context, card *Card) (*Card, error) {
	out, err := insertCard(ctx, r.pool, card)
	if err != nil {
		return nil, mapPgErr(err, "insert card")
	}
	return out, nil
}

var writableColumns = map[string]bool{
	"slug": true, "full_name": true, "business_name": true, "role": true, "tagline": true,
	"phone": true, "whatsapp": true, "email": true, "website": true, "linkedin": true,
	"twitter": true, "instagram": true, "facebook": true, "avatar_url": true, "qr_url": true,
	"is_published": true, "updated_at": true,
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertCard(ctx context.Context, q querier, c *Card) (*Card, error) {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	query := `INSERT INTO cards (id, user_id, slug, full_name, business_name, role, tagline, phone, whatsapp,
		email, website, linkedin, twitter, instagram, facebook, avatar_url, qr_url, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + pgCardColumns
	row := q.QueryRow(ctx, query, id, c.UserID, c.Slug, c.FullName, c.BusinessName, c.Role, c.Tagline,
		c.Phone, c.Whatsapp, c.Email, c.Website, c.Linkedin, c.Twitter, c.Instagram, c.Facebook,
		c.AvatarURL, c.QRURL, c.IsPublished)
	return scanCard(row)
}

func updateCard(ctx context.Context, q querier, id uuid.UUID, fields map[string]interface{}) (*Card, error) {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !writableColumns[col] {
			return nil, fmt.Errorf("unknown card column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	args = append(args, id)
	for i, col := range cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+2))
		args = append(args, fields[col])
	}
	if _, ok := fields["updated_at"]; !ok {
		sets = append(sets, "updated_at = NOW()")
	}

	query := fmt.Sprintf(`UPDATE cards SET %s WHERE id = $1 RETURNING %s`, strings.Join(sets, ", "), pgCardColumns)
	return scanCard(q.QueryRow(ctx, query, args...))
}

func (r *PostgresCardRepo) GetCardByOwner(ctx context.Context, userID uuid.UUID) (*Card, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+pgCardColumns+` FROM cards WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	c, err := scanCard(row)
	if err != nil {
		return nil, mapPgErr(err, "get card for owner")
	}
	return c, nil
}

func (r *PostgresCardRepo) ListCardsByOwner(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*Card, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+pgCardColumns+` FROM cards WHERE user_id = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`, userID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []*Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list cards: %w", err)
	}
	return cards, total, nil
}

func (r *PostgresCardRepo) GetCardByID(ctx context.Context, id uuid.UUID) (*Card, error) {
	c, err := scanCard(r.pool.QueryRow(ctx, `SELECT `+pgCardColumns+` FROM cards WHERE id = $1`, id))
	if err != nil {
		return nil, mapPgErr(err, "get card by id")
	}
	return c, nil
}

func (r *PostgresCardRepo) GetCardBySlug(ctx context.Context, slug string) (*Card, error) {
	c, err := scanCard(r.pool.QueryRow(ctx, `SELECT `+pgCardColumns+` FROM cards WHERE slug = $1`, slug))
	if err != nil {
		return nil, mapPgErr(err, "get card by slug")
	}
	return c, nil
}

func (r *PostgresCardRepo) UpdateCard(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*Card, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	c, err := updateCard(ctx, r.pool, id, fields)
	if err != nil {
		return nil, mapPgErr(err, "update card")
	}
	return c, nil
}
