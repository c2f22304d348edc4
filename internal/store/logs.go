package store

import (
	"time"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"
)

// logQueryLimit caps how many dispatch log entries a query returns
const logQueryLimit = 50

// AppendLog records one dispatch attempt. Entries are never mutated.
func (s *Store) AppendLog(campaignID int64, status, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO email_logs (campaign_id, sent_at, status, message)
		VALUES (?, ?, ?, ?)`,
		campaignID, time.Now().Unix(), status, message,
	)
	if err != nil {
		return errors.NewPersistence("store", "failed to append log entry", err)
	}
	return nil
}

// GetLogs returns dispatch log entries newest-first, capped at 50.
// A nil campaignID returns entries across all campaigns.
func (s *Store) GetLogs(campaignID *int64) ([]model.DispatchLogEntry, error) {
	query := `SELECT id, campaign_id, sent_at, status, message FROM email_logs`
	args := []interface{}{}
	if campaignID != nil {
		query += ` WHERE campaign_id = ?`
		args = append(args, *campaignID)
	}
	query += ` ORDER BY sent_at DESC, id DESC LIMIT ?`
	args = append(args, logQueryLimit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to query logs", err)
	}
	defer rows.Close()

	entries := []model.DispatchLogEntry{}
	for rows.Next() {
		var entry model.DispatchLogEntry
		var sentAt int64
		if err := rows.Scan(&entry.ID, &entry.CampaignID, &sentAt, &entry.Status, &entry.Message); err != nil {
			return nil, errors.NewPersistence("store", "failed to scan log entry", err)
		}
		entry.SentAt = time.Unix(sentAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
