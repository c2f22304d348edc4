package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"
)

const campaignColumns = `id, name, subject, body, recipients, send_days, send_time, active, created_at,
	(SELECT COUNT(*) FROM suppliers WHERE suppliers.campaign_id = campaigns.id)`

// CreateCampaign inserts a new campaign and returns its id
func (s *Store) CreateCampaign(c model.Campaign) (int64, error) {
	recipients, sendDays, err := encodeCampaignLists(c)
	if err != nil {
		return 0, err
	}

	result, err := s.db.Exec(`
		INSERT INTO campaigns (name, subject, body, recipients, send_days, send_time, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Subject, c.Body, recipients, sendDays, c.SendTime, boolToInt(c.Active), time.Now().Unix(),
	)
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to insert campaign", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewPersistence("store", "failed to read campaign id", err)
	}
	return id, nil
}

// GetCampaign returns a campaign with its suppliers attached
func (s *Store) GetCampaign(id int64) (*model.Campaign, error) {
	row := s.db.QueryRow(`SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)

	campaign, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("store", fmt.Sprintf("campaign %d not found", id))
	}
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to read campaign", err)
	}

	suppliers, err := s.SuppliersByCampaign(id)
	if err != nil {
		return nil, err
	}
	campaign.Suppliers = suppliers

	return campaign, nil
}

// ListCampaigns returns one page of campaigns, newest-created-first,
// plus the total matching count. The query matches case-insensitively
// against name and subject; status restricts to active/inactive when
// non-nil.
func (s *Store) ListCampaigns(page, perPage int, query string, status *bool) ([]model.Campaign, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	where := ` WHERE 1=1`
	args := []interface{}{}
	if query != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(subject) LIKE ?)`
		pattern := "%" + strings.ToLower(query) + "%"
		args = append(args, pattern, pattern)
	}
	if status != nil {
		where += ` AND active = ?`
		args = append(args, boolToInt(*status))
	}

	listArgs := append(append([]interface{}{}, args...), perPage, (page-1)*perPage)
	rows, err := s.db.Query(
		`SELECT `+campaignColumns+` FROM campaigns`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		listArgs...,
	)
	if err != nil {
		return nil, 0, errors.NewPersistence("store", "failed to list campaigns", err)
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, errors.NewPersistence("store", "failed to scan campaign", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewPersistence("store", "failed to iterate campaigns", err)
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewPersistence("store", "failed to count campaigns", err)
	}

	return campaigns, total, nil
}

// UpdateCampaign fully replaces the editable fields of a campaign
func (s *Store) UpdateCampaign(id int64, c model.Campaign) error {
	recipients, sendDays, err := encodeCampaignLists(c)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE campaigns
		SET name = ?, subject = ?, body = ?, recipients = ?, send_days = ?, send_time = ?, active = ?
		WHERE id = ?`,
		c.Name, c.Subject, c.Body, recipients, sendDays, c.SendTime, boolToInt(c.Active), id,
	)
	if err != nil {
		return errors.NewPersistence("store", "failed to update campaign", err)
	}
	return requireRowAffected(result, fmt.Sprintf("campaign %d not found", id))
}

// DeleteCampaign removes a campaign and all its suppliers in one
// transaction
func (s *Store) DeleteCampaign(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewPersistence("store", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM suppliers WHERE campaign_id = ?`, id); err != nil {
		return errors.NewPersistence("store", "failed to delete campaign suppliers", err)
	}
	if _, err := tx.Exec(`DELETE FROM campaigns WHERE id = ?`, id); err != nil {
		return errors.NewPersistence("store", "failed to delete campaign", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.NewPersistence("store", "failed to commit delete", err)
	}
	return nil
}

// ActiveCampaigns returns every campaign with the active flag set,
// without suppliers attached. Used by the scheduler worker.
func (s *Store) ActiveCampaigns() ([]model.Campaign, error) {
	rows, err := s.db.Query(`SELECT ` + campaignColumns + ` FROM campaigns WHERE active = 1`)
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to query active campaigns", err)
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, errors.NewPersistence("store", "failed to scan campaign", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	return campaigns, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var c model.Campaign
	var recipients, sendDays string
	var active int
	var createdAt int64

	err := row.Scan(&c.ID, &c.Name, &c.Subject, &c.Body, &recipients, &sendDays,
		&c.SendTime, &active, &createdAt, &c.SuppliersCount)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(recipients), &c.Recipients); err != nil {
		return nil, fmt.Errorf("corrupt recipients column: %w", err)
	}
	if err := json.Unmarshal([]byte(sendDays), &c.SendDays); err != nil {
		return nil, fmt.Errorf("corrupt send_days column: %w", err)
	}
	c.Active = active != 0
	c.CreatedAt = time.Unix(createdAt, 0)

	return &c, nil
}

func encodeCampaignLists(c model.Campaign) (recipients, sendDays string, err error) {
	recipientsJSON, err := json.Marshal(c.Recipients)
	if err != nil {
		return "", "", errors.NewPersistence("store", "failed to encode recipients", err)
	}
	sendDaysJSON, err := json.Marshal(c.SendDays)
	if err != nil {
		return "", "", errors.NewPersistence("store", "failed to encode send days", err)
	}
	return string(recipientsJSON), string(sendDaysJSON), nil
}

func requireRowAffected(result sql.Result, notFoundMsg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewPersistence("store", "failed to read affected rows", err)
	}
	if affected == 0 {
		return errors.NewNotFound("store", notFoundMsg)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
