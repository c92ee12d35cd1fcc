// Package store persists extracted listings, user votes and comments
// in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/stayscout/stayscout/pkg/listing"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Config holds the connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Postgres struct {
	db *sql.DB
}

// New opens the connection pool, verifies it and creates the schema.
func New(cfg Config) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Postgres{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

// SaveListing upserts by URL and returns the row id.
func (s *Postgres) SaveListing(ctx context.Context, l *listing.Listing) (int64, error) {
	if err := l.Validate(); err != nil {
		return 0, fmt.Errorf("refusing to persist invalid listing: %w", err)
	}

	images, err := json.Marshal(l.Images)
	if err != nil {
		return 0, fmt.Errorf("encode images: %w", err)
	}
	amenities, err := json.Marshal(l.Amenities)
	if err != nil {
		return 0, fmt.Errorf("encode amenities: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO listings
			(url, source, title, description, price, bedrooms, bathrooms,
			 sleeps, location, rating, images, amenities, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (url) DO UPDATE SET
			source = EXCLUDED.source,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			bedrooms = EXCLUDED.bedrooms,
			bathrooms = EXCLUDED.bathrooms,
			sleeps = EXCLUDED.sleeps,
			location = EXCLUDED.location,
			rating = EXCLUDED.rating,
			images = EXCLUDED.images,
			amenities = EXCLUDED.amenities,
			scraped_at = EXCLUDED.scraped_at,
			updated_at = NOW()
		RETURNING id`,
		l.URL, l.Source, l.Title, l.Description, l.Price, l.Bedrooms,
		l.Bathrooms, l.Sleeps, l.Location, l.Rating, images, amenities,
		l.ScrapedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert listing %q: %w", l.URL, err)
	}
	return id, nil
}

// StoredListing is a persisted listing with its row identity and vote
// tally.
type StoredListing struct {
	ID    int64
	Votes int
	listing.Listing
}

// GetListing fetches one listing by id.
func (s *Postgres) GetListing(ctx context.Context, id int64) (*StoredListing, error) {
	row := s.db.QueryRowContext(ctx, selectListing+` WHERE l.id = $1 GROUP BY l.id`, id)
	got, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return got, err
}

// ListListings returns the most recently scraped listings with their
// vote tallies.
func (s *Postgres) ListListings(ctx context.Context, limit int) ([]StoredListing, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		selectListing+` GROUP BY l.id ORDER BY l.scraped_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []StoredListing
	for rows.Next() {
		got, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *got)
	}
	return out, rows.Err()
}

// CastVote records a user's vote for a listing. A user holds at most
// one active listing vote: voting here removes the same user's votes
// on every other listing. Repeat votes on the same listing are no-ops.
func (s *Postgres) CastVote(ctx context.Context, userID string, listingID int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM listing_votes WHERE user_id = $1 AND listing_id <> $2`,
		userID, listingID); err != nil {
		return fmt.Errorf("clear previous votes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO listing_votes (user_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, listing_id) DO NOTHING`,
		userID, listingID); err != nil {
		return fmt.Errorf("record vote: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// VoteTally counts active votes for a listing.
func (s *Postgres) VoteTally(ctx context.Context, listingID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listing_votes WHERE listing_id = $1`, listingID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("tally votes: %w", err)
	}
	return n, nil
}

// Comment is a user note attached to a listing.
type Comment struct {
	ID        int64     `json:"id"`
	ListingID int64     `json:"listingId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	Reactions int       `json:"reactions"`
	CreatedAt time.Time `json:"createdAt"`
}

// AddComment attaches a comment and returns its id.
func (s *Postgres) AddComment(ctx context.Context, listingID int64, userID, body string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (listing_id, user_id, body)
		VALUES ($1, $2, $3) RETURNING id`,
		listingID, userID, body).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add comment: %w", err)
	}
	return id, nil
}

// ReactToComment records a reaction. Unlike listing votes, reactions
// are unlimited per user.
func (s *Postgres) ReactToComment(ctx context.Context, commentID int64, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comment_reactions (comment_id, user_id) VALUES ($1, $2)`,
		commentID, userID)
	if err != nil {
		return fmt.Errorf("react to comment: %w", err)
	}
	return nil
}

// ListComments returns a listing's comments, oldest first, with
// reaction counts.
func (s *Postgres) ListComments(ctx context.Context, listingID int64) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.listing_id, c.user_id, c.body,
		       COUNT(r.id), c.created_at
		FROM comments c
		LEFT JOIN comment_reactions r ON r.comment_id = c.id
		WHERE c.listing_id = $1
		GROUP BY c.id
		ORDER BY c.created_at ASC`, listingID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ListingID, &c.UserID, &c.Body,
			&c.Reactions, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const selectListing = `
	SELECT l.id, l.url, l.source, l.title, l.description, l.price,
	       l.bedrooms, l.bathrooms, l.sleeps, l.location, l.rating,
	       l.images, l.amenities, l.scraped_at, COUNT(v.user_id)
	FROM listings l
	LEFT JOIN listing_votes v ON v.listing_id = l.id`

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*StoredListing, error) {
	var (
		got              StoredListing
		title, desc, loc sql.NullString
		price, bedrooms  sql.NullFloat64
		bathrooms        sql.NullFloat64
		sleeps, rating   sql.NullFloat64
		images           []byte
		amenities        []byte
	)
	err := row.Scan(&got.ID, &got.URL, &got.Source, &title, &desc, &price,
		&bedrooms, &bathrooms, &sleeps, &loc, &rating,
		&images, &amenities, &got.ScrapedAt, &got.Votes)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		got.Title = &title.String
	}
	if desc.Valid {
		got.Description = &desc.String
	}
	if loc.Valid {
		got.Location = &loc.String
	}
	if price.Valid {
		got.Price = &price.Float64
	}
	if bedrooms.Valid {
		got.Bedrooms = &bedrooms.Float64
	}
	if bathrooms.Valid {
		got.Bathrooms = &bathrooms.Float64
	}
	if sleeps.Valid {
		got.Sleeps = &sleeps.Float64
	}
	if rating.Valid {
		got.Rating = &rating.Float64
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &got.Images); err != nil {
			return nil, fmt.Errorf("decode images: %w", err)
		}
	}
	if len(amenities) > 0 {
		if err := json.Unmarshal(amenities, &got.Amenities); err != nil {
			return nil, fmt.Errorf("decode amenities: %w", err)
		}
	}
	return &got, nil
}

func (s *Postgres) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			title TEXT,
			description TEXT,
			price DOUBLE PRECISION,
			bedrooms DOUBLE PRECISION,
			bathrooms DOUBLE PRECISION,
			sleeps DOUBLE PRECISION,
			location TEXT,
			rating DOUBLE PRECISION,
			images JSONB NOT NULL DEFAULT '[]',
			amenities JSONB NOT NULL DEFAULT '[]',
			scraped_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS listing_votes (
			user_id TEXT NOT NULL,
			listing_id BIGINT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, listing_id)
		);
		CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			listing_id BIGINT NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS comment_reactions (
			id BIGSERIAL PRIMARY KEY,
			comment_id BIGINT NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_comments_listing ON comments(listing_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
