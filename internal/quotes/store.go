package quotes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flyttio/priskalk/internal/pricing"
)

// Store persists quote records in sqlite. The originating request and the
// price breakdown are stored as JSON snapshots next to the filterable
// columns.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new draft quote and returns its id.
func (s *Store) Create(q Quote) (int64, error) {
	requestJSON, err := json.Marshal(q.Request)
	if err != nil {
		return 0, fmt.Errorf("encode quote request: %w", err)
	}
	breakdownJSON, err := json.Marshal(q.Breakdown)
	if err != nil {
		return 0, fmt.Errorf("encode breakdown: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO quotes (company_id, customer, from_address, to_address, status, request_json, breakdown_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, q.CompanyID, q.Customer, q.FromAddress, q.ToAddress, string(StatusDraft), string(requestJSON), string(breakdownJSON))
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read quote id: %w", err)
	}
	return id, nil
}

// Get returns one quote with its stored snapshot decoded.
func (s *Store) Get(id int64) (Quote, error) {
	var q Quote
	var status, requestJSON, breakdownJSON string
	err := s.db.QueryRow(`
		SELECT id, company_id, customer, from_address, to_address, status, request_json, breakdown_json, created_at
		FROM quotes
		WHERE id = ?
	`, id).Scan(&q.ID, &q.CompanyID, &q.Customer, &q.FromAddress, &q.ToAddress, &status, &requestJSON, &breakdownJSON, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quote{}, fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Quote{}, fmt.Errorf("query quote: %w", err)
	}

	q.Status = Status(status)
	if err := json.Unmarshal([]byte(requestJSON), &q.Request); err != nil {
		return Quote{}, fmt.Errorf("decode quote request: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("decode breakdown: %w", err)
	}
	return q, nil
}

// ListItem is the list projection of a quote: enough for an overview without
// decoding the full snapshot.
type ListItem struct {
	ID          int64   `json:"id"`
	Customer    string  `json:"customer"`
	FromAddress string  `json:"fromAddress"`
	ToAddress   string  `json:"toAddress"`
	Status      Status  `json:"status"`
	TotalPrice  float64 `json:"totalPrice"`
	CreatedAt   string  `json:"createdAt"`
}

// List returns the quotes of a company, newest first, optionally filtered by
// a free-text match over customer and addresses.
func (s *Store) List(companyID int64, query string) ([]ListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, customer, from_address, to_address, status, breakdown_json, created_at
		FROM quotes
		WHERE company_id = ?
		  AND (? = '' OR customer LIKE ? OR from_address LIKE ? OR to_address LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, companyID, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		var status, breakdownJSON string
		if err := rows.Scan(&item.ID, &item.Customer, &item.FromAddress, &item.ToAddress, &status, &breakdownJSON, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Status = Status(status)
		item.TotalPrice = extractTotal(breakdownJSON)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return items, nil
}

// Transition moves a quote along a legal workflow edge. The check and the
// update run in one transaction so concurrent transitions cannot skip states.
func (s *Store) Transition(id int64, to Status) error {
	if !ValidStatus(to) {
		return fmt.Errorf("unknown status %q", to)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM quotes WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query quote status: %w", err)
	}

	from := Status(current)
	if !CanTransition(from, to) {
		return badTransition(from, to)
	}

	if _, err := tx.Exec(`
		UPDATE quotes
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(to), id); err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}

	return tx.Commit()
}

// extractTotal pulls the total price out of a stored breakdown without a full
// decode. A snapshot that fails to decode lists as zero rather than failing
// the whole listing.
func extractTotal(breakdownJSON string) float64 {
	var snapshot struct {
		Prices pricing.PriceLines `json:"prices"`
	}
	if err := json.Unmarshal([]byte(breakdownJSON), &snapshot); err != nil {
		return 0
	}
	return snapshot.Prices.TotalPrice
}
