package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"agency_backend/internal/quotes/domain"
	"agency_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the pgx backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

const quoteColumns = `id, token, status, payment_status, client, project, amounts,
	COALESCE(affiliate_code, ''), discount_percent, COALESCE(duplicated_from, ''),
	created_at, validity_deadline, updated_at, version`

// effectiveStatusSQL mirrors domain.Quote.EffectiveStatus, $1 being now.
const effectiveStatusSQL = `CASE WHEN status IN ('valide', 'consulte') AND validity_deadline < $1 THEN 'expire' ELSE status END`

// NextQuoteNumber atomically allocates the next number of the year.
func (r *Postgres) NextQuoteNumber(ctx context.Context, prefix string, year int) (string, error) {
	var nextNum int
	query := `
		INSERT INTO quote_counters (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_number = quote_counters.last_number + 1
		RETURNING last_number`

	if err := r.pool.QueryRow(ctx, query, year).Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}
	return formatQuoteNumber(prefix, year, nextNum), nil
}

// Create inserts a quote and its opening history in a single transaction.
func (r *Postgres) Create(ctx context.Context, q *domain.Quote) error {
	client, project, amounts, err := marshalSnapshots(q)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO quotes (
			id, token, status, payment_status, client, project, amounts,
			total_ht, total_ttc, affiliate_code, discount_percent, duplicated_from,
			created_at, validity_deadline, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, NULLIF($10, ''), $11, NULLIF($12, ''), $13, $14, $15, 1)`

	if _, err := tx.Exec(ctx, query,
		q.ID, q.Token, q.Status, q.PaymentStatus, client, project, amounts,
		q.Amounts.HT.StringFixed(2), q.Amounts.TTC.StringFixed(2), q.AffiliateCode, q.DiscountPercent, q.DuplicatedFrom,
		q.CreatedAt, q.ValidityDeadline, q.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	if err := insertHistory(ctx, tx, q.ID, q.History, 0); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote: %w", err)
	}
	q.Version = 1
	return nil
}

// GetByID loads a quote with its full history.
func (r *Postgres) GetByID(ctx context.Context, id string) (*domain.Quote, error) {
	return r.getOne(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
}

// GetByToken loads the quote behind a client link.
func (r *Postgres) GetByToken(ctx context.Context, token string) (*domain.Quote, error) {
	return r.getOne(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE token = $1`, token)
}

func (r *Postgres) getOne(ctx context.Context, query string, arg string) (*domain.Quote, error) {
	q, err := scanQuote(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuoteNotFound()
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	history, err := r.history(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	q.History = history
	return q, nil
}

func (r *Postgres) history(ctx context.Context, quoteID string) ([]domain.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, occurred_at, action, actor, COALESCE(from_status, ''), COALESCE(to_status, ''),
			COALESCE(reason, ''), COALESCE(details, '')
		FROM quote_history
		WHERE quote_id = $1
		ORDER BY seq`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var h domain.HistoryEntry
		if err := rows.Scan(&h.ID, &h.Date, &h.Action, &h.Actor, &h.From, &h.To, &h.Reason, &h.Details); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

// Update writes the quote under the optimistic version check and appends the
// history entries that are not stored yet.
func (r *Postgres) Update(ctx context.Context, q *domain.Quote) error {
	return r.update(ctx, q, "")
}

// RotateToken stores the new token of q and retires the old one atomically.
func (r *Postgres) RotateToken(ctx context.Context, q *domain.Quote, oldToken string) error {
	return r.update(ctx, q, oldToken)
}

func (r *Postgres) update(ctx context.Context, q *domain.Quote, retiredToken string) error {
	client, project, amounts, err := marshalSnapshots(q)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE quotes SET
			token = $3, status = $4, payment_status = $5, client = $6, project = $7, amounts = $8,
			total_ht = $9::numeric, total_ttc = $10::numeric, validity_deadline = $11, updated_at = $12,
			version = version + 1
		WHERE id = $1 AND version = $2`

	result, err := tx.Exec(ctx, query,
		q.ID, q.Version, q.Token, q.Status, q.PaymentStatus, client, project, amounts,
		q.Amounts.HT.StringFixed(2), q.Amounts.TTC.StringFixed(2), q.ValidityDeadline, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missOrStale(ctx, tx, q.ID)
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM quote_history WHERE quote_id = $1`, q.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count history: %w", err)
	}
	if stored > len(q.History) {
		return apperr.Internal("history would shrink")
	}
	if err := insertHistory(ctx, tx, q.ID, q.History, stored); err != nil {
		return err
	}

	if retiredToken != "" {
		if _, err := tx.Exec(ctx,
			`INSERT INTO retired_tokens (token, quote_id) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`,
			retiredToken, q.ID,
		); err != nil {
			return fmt.Errorf("failed to retire token: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote: %w", err)
	}
	q.Version++
	return nil
}

// Delete removes a quote (cascade deletes history and draft) and retires its
// token so the link can never resolve again.
func (r *Postgres) Delete(ctx context.Context, id string, version int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var token string
	err = tx.QueryRow(ctx, `DELETE FROM quotes WHERE id = $1 AND version = $2 RETURNING token`, id, version).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missOrStale(ctx, tx, id)
		}
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO retired_tokens (token, quote_id) VALUES ($1, $2) ON CONFLICT (token) DO NOTHING`,
		token, id,
	); err != nil {
		return fmt.Errorf("failed to retire token: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Postgres) missOrStale(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check quote: %w", err)
	}
	if exists {
		return staleQuote()
	}
	return domain.ErrQuoteNotFound()
}

// QuoteIDByToken returns the id of the quote holding token.
func (r *Postgres) QuoteIDByToken(ctx context.Context, token string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM quotes WHERE token = $1`, token).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrQuoteNotFound()
		}
		return "", fmt.Errorf("failed to resolve token: %w", err)
	}
	return id, nil
}

// TokenUsed reports whether token is held by a quote or was ever retired.
func (r *Postgres) TokenUsed(ctx context.Context, token string) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM quotes WHERE token = $1)
			OR EXISTS (SELECT 1 FROM retired_tokens WHERE token = $1)`, token).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return used, nil
}

// List retrieves quotes with filtering and pagination. History is not loaded.
func (r *Postgres) List(ctx context.Context, params ListParams) (*ListResult, error) {
	params = normalizePaging(params)
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	var searchParam interface{}
	if params.Search != "" {
		searchParam = "%" + params.Search + "%"
	}

	var statusParam interface{}
	if params.Status != nil {
		statusParam = string(*params.Status)
	}

	baseQuery := `
		FROM quotes
		WHERE ($2::text IS NULL OR ` + effectiveStatusSQL + ` = $2)
			AND ($3::text IS NULL OR id ILIKE $3 OR client->>'name' ILIKE $3 OR client->>'email' ILIKE $3)
	`
	args := []interface{}{params.Now, statusParam, searchParam}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize

	selectQuery := `
		SELECT ` + quoteColumns + `
		` + baseQuery + `
		ORDER BY
			CASE WHEN $4 = 'id' AND $5 = 'asc' THEN id END ASC,
			CASE WHEN $4 = 'id' AND $5 = 'desc' THEN id END DESC,
			CASE WHEN $4 = 'status' AND $5 = 'asc' THEN status END ASC,
			CASE WHEN $4 = 'status' AND $5 = 'desc' THEN status END DESC,
			CASE WHEN $4 = 'total' AND $5 = 'asc' THEN total_ttc END ASC,
			CASE WHEN $4 = 'total' AND $5 = 'desc' THEN total_ttc END DESC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'asc' THEN created_at END ASC,
			CASE WHEN $4 = 'createdAt' AND $5 = 'desc' THEN created_at END DESC,
			CASE WHEN $4 = 'updatedAt' AND $5 = 'asc' THEN updated_at END ASC,
			CASE WHEN $4 = 'updatedAt' AND $5 = 'desc' THEN updated_at END DESC,
			created_at DESC
		LIMIT $6 OFFSET $7`

	args = append(args, sortBy, sortOrder, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Quote, 0, params.PageSize)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		items = append(items, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

// GetContentDraft returns the saved draft, or an empty unsaved draft.
func (r *Postgres) GetContentDraft(ctx context.Context, quoteID string) (*domain.ContentDraft, error) {
	d := &domain.ContentDraft{QuoteID: quoteID, Fields: map[string]string{}}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT fields, updated_at, version FROM quote_content_drafts WHERE quote_id = $1`, quoteID,
	).Scan(&raw, &d.UpdatedAt, &d.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return d, nil
		}
		return nil, fmt.Errorf("failed to get content draft: %w", err)
	}
	if err := json.Unmarshal(raw, &d.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode content draft: %w", err)
	}
	return d, nil
}

// SaveContentDraft upserts the draft under its own version counter.
func (r *Postgres) SaveContentDraft(ctx context.Context, d *domain.ContentDraft) error {
	raw, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode content draft: %w", err)
	}

	var result pgconn.CommandTag
	if d.Version == 0 {
		result, err = r.pool.Exec(ctx, `
			INSERT INTO quote_content_drafts (quote_id, fields, updated_at, version)
			VALUES ($1, $2, $3, 1)
			ON CONFLICT (quote_id) DO NOTHING`, d.QuoteID, raw, d.UpdatedAt)
	} else {
		result, err = r.pool.Exec(ctx, `
			UPDATE quote_content_drafts SET fields = $2, updated_at = $3, version = version + 1
			WHERE quote_id = $1 AND version = $4`, d.QuoteID, raw, d.UpdatedAt, d.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to save content draft: %w", err)
	}
	if result.RowsAffected() == 0 {
		return staleDraft()
	}
	d.Version++
	return nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var (
		q                        domain.Quote
		client, project, amounts []byte
	)
	if err := row.Scan(
		&q.ID, &q.Token, &q.Status, &q.PaymentStatus, &client, &project, &amounts,
		&q.AffiliateCode, &q.DiscountPercent, &q.DuplicatedFrom,
		&q.CreatedAt, &q.ValidityDeadline, &q.UpdatedAt, &q.Version,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(client, &q.Client); err != nil {
		return nil, fmt.Errorf("failed to decode client: %w", err)
	}
	if err := json.Unmarshal(project, &q.Project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	if err := json.Unmarshal(amounts, &q.Amounts); err != nil {
		return nil, fmt.Errorf("failed to decode amounts: %w", err)
	}
	return &q, nil
}

func marshalSnapshots(q *domain.Quote) (client, project, amounts []byte, err error) {
	if client, err = json.Marshal(q.Client); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode client: %w", err)
	}
	if project, err = json.Marshal(q.Project); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode project: %w", err)
	}
	if amounts, err = json.Marshal(q.Amounts); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode amounts: %w", err)
	}
	return client, project, amounts, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, quoteID string, entries []domain.HistoryEntry, from int) error {
	query := `
		INSERT INTO quote_history (
			quote_id, seq, id, occurred_at, action, actor, from_status, to_status, reason, details
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))`

	for i := from; i < len(entries); i++ {
		h := entries[i]
		if _, err := tx.Exec(ctx, query,
			quoteID, i, h.ID, h.Date, h.Action, h.Actor, h.From, h.To, h.Reason, h.Details,
		); err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}
	return nil
}
