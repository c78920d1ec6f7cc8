package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrSessionExpired = errors.New("session expired")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PartRepository handles catalog lookups for the chat flow.
type PartRepository struct {
	db DB
}

// NewPartRepository creates a new part repository.
func NewPartRepository(db DB) *PartRepository {
	return &PartRepository{db: db}
}

// Search performs a substring lookup over name, description, and category.
func (r *PartRepository) Search(ctx context.Context, query string, limit int) ([]Part, error) {
	if limit <= 0 {
		limit = 10
	}

	pattern := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, category, price, supplier, image_url, views, created_at
		FROM parts
		WHERE name LIKE $1 OR description LIKE $1 OR category LIKE $1
		ORDER BY views DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search parts: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category,
			&p.Price, &p.Supplier, &p.ImageURL, &p.Views, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// Create inserts a new part.
func (r *PartRepository) Create(ctx context.Context, p *Part) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO parts (id, name, description, category, price, supplier, image_url, views, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.Description, p.Category, p.Price, p.Supplier, p.ImageURL, p.Views, p.CreatedAt)
	return err
}

// IncrementViews bumps the view counter for a part surfaced to a user.
func (r *PartRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE parts SET views = views + 1 WHERE id = $1`, id)
	return err
}

// KnowledgeRepository handles the curated knowledge base.
type KnowledgeRepository struct {
	db DB
}

// NewKnowledgeRepository creates a new knowledge repository.
func NewKnowledgeRepository(db DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// Search looks up knowledge entries by substring match with optional filters.
func (r *KnowledgeRepository) Search(ctx context.Context, query string, opts KnowledgeQuery) ([]KnowledgeEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + query + "%"
	sqlQuery := `
		SELECT id, title, content, category, vehicle_make, vehicle_model, vehicle_year,
			source_url, usage_count, created_at, updated_at
		FROM knowledge_entries
		WHERE (title LIKE $1 OR content LIKE $1)`
	args := []interface{}{pattern}

	if opts.Category != "" {
		args = append(args, string(opts.Category))
		sqlQuery += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if opts.VehicleMake != "" {
		args = append(args, opts.VehicleMake)
		sqlQuery += fmt.Sprintf(" AND vehicle_make = $%d", len(args))
	}

	args = append(args, limit)
	sqlQuery += fmt.Sprintf(" ORDER BY usage_count DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	defer rows.Close()

	return scanKnowledgeEntries(rows)
}

// FindByVehicle returns entries matching a vehicle, most specific first.
// Model and year are optional narrowing filters.
func (r *KnowledgeRepository) FindByVehicle(ctx context.Context, make, model string, year int) ([]KnowledgeEntry, error) {
	sqlQuery := `
		SELECT id, title, content, category, vehicle_make, vehicle_model, vehicle_year,
			source_url, usage_count, created_at, updated_at
		FROM knowledge_entries
		WHERE vehicle_make = $1`
	args := []interface{}{make}

	if model != "" {
		args = append(args, model)
		sqlQuery += fmt.Sprintf(" AND (vehicle_model = $%d OR vehicle_model = '')", len(args))
	}
	if year > 0 {
		args = append(args, year)
		sqlQuery += fmt.Sprintf(" AND (vehicle_year = $%d OR vehicle_year = 0)", len(args))
	}

	sqlQuery += " ORDER BY vehicle_model DESC, usage_count DESC LIMIT 10"

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find knowledge by vehicle: %w", err)
	}
	defer rows.Close()

	return scanKnowledgeEntries(rows)
}

// Create inserts a new knowledge entry.
func (r *KnowledgeRepository) Create(ctx context.Context, e *KnowledgeEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO knowledge_entries (id, title, content, category, vehicle_make,
			vehicle_model, vehicle_year, source_url, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, e.ID, e.Title, e.Content, string(e.Category), e.VehicleMake,
		e.VehicleModel, e.VehicleYear, e.SourceURL, e.UsageCount, e.CreatedAt, e.UpdatedAt)
	return err
}

// ListByCategory lists entries in a category, most used first.
func (r *KnowledgeRepository) ListByCategory(ctx context.Context, category KnowledgeCategory, limit int) ([]KnowledgeEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, category, vehicle_make, vehicle_model, vehicle_year,
			source_url, usage_count, created_at, updated_at
		FROM knowledge_entries
		WHERE category = $1
		ORDER BY usage_count DESC
		LIMIT $2
	`, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	defer rows.Close()

	return scanKnowledgeEntries(rows)
}

// IncrementUsage bumps the usage counter for an entry surfaced in a reply.
func (r *KnowledgeRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE knowledge_entries SET usage_count = usage_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now(), id)
	return err
}

func scanKnowledgeEntries(rows *sql.Rows) ([]KnowledgeEntry, error) {
	var entries []KnowledgeEntry
	for rows.Next() {
		var e KnowledgeEntry
		var category string
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &category,
			&e.VehicleMake, &e.VehicleModel, &e.VehicleYear,
			&e.SourceURL, &e.UsageCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		e.Category = KnowledgeCategory(category)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SessionRepository resolves session tokens to user identifiers.
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// GetUserID resolves a session token to its user. Expired sessions are
// treated the same as missing ones from the caller's point of view.
func (r *SessionRepository) GetUserID(ctx context.Context, token string) (string, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions WHERE token = $1
	`, token).Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}

	if time.Now().After(s.ExpiresAt) {
		return "", ErrSessionExpired
	}
	return s.UserID, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.Token, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}
