package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"
)

// AddSupplier attaches a new supplier to a campaign
func (s *Store) AddSupplier(campaignID int64, supplier model.Supplier) (int64, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM campaigns WHERE id = ?`, campaignID).Scan(&exists)
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to check campaign", err)
	}
	if exists == 0 {
		return 0, errors.NewNotFound("store", fmt.Sprintf("campaign %d not found", campaignID))
	}

	selectors, err := json.Marshal(supplier.Selectors)
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to encode selectors", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO suppliers (campaign_id, name, url, selectors)
		VALUES (?, ?, ?, ?)`,
		campaignID, supplier.Name, supplier.URL, string(selectors),
	)
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to insert supplier", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to read supplier id", err)
	}
	return id, nil
}

// GetSupplier returns a single supplier by id
func (s *Store) GetSupplier(id int64) (*model.Supplier, error) {
	row := s.db.QueryRow(`
		SELECT id, campaign_id, name, url, selectors, last_scraped_at, last_result
		FROM suppliers WHERE id = ?`, id)

	supplier, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("store", fmt.Sprintf("supplier %d not found", id))
	}
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to read supplier", err)
	}
	return supplier, nil
}

// SuppliersByCampaign returns all suppliers owned by a campaign
func (s *Store) SuppliersByCampaign(campaignID int64) ([]model.Supplier, error) {
	rows, err := s.db.Query(`
		SELECT id, campaign_id, name, url, selectors, last_scraped_at, last_result
		FROM suppliers WHERE campaign_id = ? ORDER BY id`, campaignID)
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to query suppliers", err)
	}
	defer rows.Close()

	suppliers := []model.Supplier{}
	for rows.Next() {
		supplier, err := scanSupplier(rows)
		if err != nil {
			return nil, errors.NewPersistence("store", "failed to scan supplier", err)
		}
		suppliers = append(suppliers, *supplier)
	}
	return suppliers, rows.Err()
}

// UpdateSupplier replaces a supplier's name, url and selectors
func (s *Store) UpdateSupplier(id int64, supplier model.Supplier) error {
	selectors, err := json.Marshal(supplier.Selectors)
	if err != nil {
		return errors.NewPersistence("store", "failed to encode selectors", err)
	}

	result, err := s.db.Exec(`
		UPDATE suppliers SET name = ?, url = ?, selectors = ? WHERE id = ?`,
		supplier.Name, supplier.URL, string(selectors), id,
	)
	if err != nil {
		return errors.NewPersistence("store", "failed to update supplier", err)
	}
	return requireRowAffected(result, fmt.Sprintf("supplier %d not found", id))
}

// DeleteSupplier removes a single supplier
func (s *Store) DeleteSupplier(id int64) error {
	result, err := s.db.Exec(`DELETE FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return errors.NewPersistence("store", "failed to delete supplier", err)
	}
	return requireRowAffected(result, fmt.Sprintf("supplier %d not found", id))
}

// SaveScrapeResult persists a scrape result and its timestamp on the
// supplier record
func (s *Store) SaveScrapeResult(supplierID int64, result map[string]string, scrapedAt time.Time) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return errors.NewPersistence("store", "failed to encode scrape result", err)
	}

	res, err := s.db.Exec(`
		UPDATE suppliers SET last_scraped_at = ?, last_result = ? WHERE id = ?`,
		scrapedAt.Unix(), string(encoded), supplierID,
	)
	if err != nil {
		return errors.NewPersistence("store", "failed to save scrape result", err)
	}
	return requireRowAffected(res, fmt.Sprintf("supplier %d not found", supplierID))
}

// CachedSupplierResult returns the supplier's last scrape result when
// it is younger than ttl. The second return value is false on a miss.
func (s *Store) CachedSupplierResult(supplierID int64, ttl time.Duration) (map[string]string, bool, error) {
	supplier, err := s.GetSupplier(supplierID)
	if err != nil {
		return nil, false, err
	}
	if supplier.LastScrapedAt == nil || supplier.LastResult == nil {
		return nil, false, nil
	}
	if time.Since(*supplier.LastScrapedAt) > ttl {
		return nil, false, nil
	}
	return supplier.LastResult, true, nil
}

func scanSupplier(row rowScanner) (*model.Supplier, error) {
	var sup model.Supplier
	var selectors string
	var lastScrapedAt sql.NullInt64
	var lastResult sql.NullString

	err := row.Scan(&sup.ID, &sup.CampaignID, &sup.Name, &sup.URL, &selectors, &lastScrapedAt, &lastResult)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(selectors), &sup.Selectors); err != nil {
		return nil, fmt.Errorf("corrupt selectors column: %w", err)
	}
	if lastScrapedAt.Valid {
		at := time.Unix(lastScrapedAt.Int64, 0)
		sup.LastScrapedAt = &at
	}
	if lastResult.Valid {
		if err := json.Unmarshal([]byte(lastResult.String), &sup.LastResult); err != nil {
			return nil, fmt.Errorf("corrupt last_result column: %w", err)
		}
	}

	return &sup, nil
}
