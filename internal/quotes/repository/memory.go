package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"agency_backend/internal/quotes/domain"
	"agency_backend/internal/quotes/pricing"
)

// Memory is a Store kept in process memory. It applies the same version
// checks as Postgres and hands out deep copies, so callers never share state.
type Memory struct {
	mu       sync.Mutex
	quotes   map[string]*domain.Quote
	byToken  map[string]string
	retired  map[string]string
	counters map[int]int
	drafts   map[string]*domain.ContentDraft
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		quotes:   make(map[string]*domain.Quote),
		byToken:  make(map[string]string),
		retired:  make(map[string]string),
		counters: make(map[int]int),
		drafts:   make(map[string]*domain.ContentDraft),
	}
}

var _ Store = (*Memory)(nil)

func (m *Memory) NextQuoteNumber(_ context.Context, prefix string, year int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[year]++
	return formatQuoteNumber(prefix, year, m.counters[year]), nil
}

func (m *Memory) Create(_ context.Context, q *domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quotes[q.ID]; ok {
		return staleQuote()
	}
	if _, ok := m.byToken[q.Token]; ok {
		return staleQuote()
	}
	q.Version = 1
	m.quotes[q.ID] = cloneQuote(q)
	m.byToken[q.Token] = q.ID
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok {
		return nil, domain.ErrQuoteNotFound()
	}
	return cloneQuote(q), nil
}

func (m *Memory) GetByToken(ctx context.Context, token string) (*domain.Quote, error) {
	id, err := m.QuoteIDByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return m.GetByID(ctx, id)
}

func (m *Memory) Update(_ context.Context, q *domain.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(q, "")
}

func (m *Memory) RotateToken(_ context.Context, q *domain.Quote, oldToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLocked(q, oldToken)
}

func (m *Memory) updateLocked(q *domain.Quote, retiredToken string) error {
	stored, ok := m.quotes[q.ID]
	if !ok {
		return domain.ErrQuoteNotFound()
	}
	if stored.Version != q.Version {
		return staleQuote()
	}
	if stored.Token != q.Token {
		delete(m.byToken, stored.Token)
		m.byToken[q.Token] = q.ID
	}
	if retiredToken != "" {
		m.retired[retiredToken] = q.ID
	}
	q.Version++
	m.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (m *Memory) Delete(_ context.Context, id string, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.quotes[id]
	if !ok {
		return domain.ErrQuoteNotFound()
	}
	if stored.Version != version {
		return staleQuote()
	}
	delete(m.quotes, id)
	delete(m.byToken, stored.Token)
	delete(m.drafts, id)
	m.retired[stored.Token] = id
	return nil
}

func (m *Memory) QuoteIDByToken(_ context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return "", domain.ErrQuoteNotFound()
	}
	return id, nil
}

func (m *Memory) TokenUsed(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, live := m.byToken[token]
	_, retired := m.retired[token]
	return live || retired, nil
}

func (m *Memory) List(_ context.Context, params ListParams) (*ListResult, error) {
	params = normalizePaging(params)
	sortBy, err := resolveSortBy(params.SortBy)
	if err != nil {
		return nil, err
	}
	sortOrder, err := resolveSortOrder(params.SortOrder)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	matched := make([]domain.Quote, 0, len(m.quotes))
	search := strings.ToLower(params.Search)
	for _, q := range m.quotes {
		if params.Status != nil && q.EffectiveStatus(params.Now) != *params.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(q.ID), search) &&
			!strings.Contains(strings.ToLower(q.Client.Name), search) &&
			!strings.Contains(strings.ToLower(q.Client.Email), search) {
			continue
		}
		c := cloneQuote(q)
		c.History = nil
		matched = append(matched, *c)
	}
	m.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if sortOrder == "desc" {
			a, b = b, a
		}
		switch sortBy {
		case "id":
			return a.ID < b.ID
		case "status":
			return a.Status < b.Status
		case "total":
			return a.Amounts.TTC.LessThan(b.Amounts.TTC)
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})

	total := len(matched)
	start := (params.Page - 1) * params.PageSize
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	return &ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

func (m *Memory) GetContentDraft(_ context.Context, quoteID string) (*domain.ContentDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[quoteID]
	if !ok {
		return &domain.ContentDraft{QuoteID: quoteID, Fields: map[string]string{}}, nil
	}
	return cloneDraft(d), nil
}

func (m *Memory) SaveContentDraft(_ context.Context, d *domain.ContentDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := 0
	if s, ok := m.drafts[d.QuoteID]; ok {
		stored = s.Version
	}
	if stored != d.Version {
		return staleDraft()
	}
	d.Version++
	m.drafts[d.QuoteID] = cloneDraft(d)
	return nil
}

func cloneQuote(q *domain.Quote) *domain.Quote {
	c := *q
	c.History = append([]domain.HistoryEntry(nil), q.History...)
	c.Project.Options = append([]pricing.SelectedOption(nil), q.Project.Options...)
	c.Amounts.Lines = append([]pricing.Line(nil), q.Amounts.Lines...)
	return &c
}

func cloneDraft(d *domain.ContentDraft) *domain.ContentDraft {
	c := *d
	c.Fields = make(map[string]string, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	return &c
}
