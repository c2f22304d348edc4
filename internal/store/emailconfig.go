package store

import (
	"database/sql"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"
)

// SaveEmailConfig stores the single SMTP account record, replacing any
// previous one
func (s *Store) SaveEmailConfig(cfg model.EmailConfig) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO email_config (id, smtp_server, smtp_port, email_address, email_password)
		VALUES (1, ?, ?, ?, ?)`,
		cfg.SMTPServer, cfg.SMTPPort, cfg.EmailAddress, cfg.Password,
	)
	if err != nil {
		return errors.NewPersistence("store", "failed to save email config", err)
	}
	return nil
}

// GetEmailConfig returns the configured SMTP account, password
// included. Callers exposing the config over an API must rely on the
// model never serializing the password.
func (s *Store) GetEmailConfig() (*model.EmailConfig, error) {
	var cfg model.EmailConfig
	err := s.db.QueryRow(`
		SELECT smtp_server, smtp_port, email_address, email_password
		FROM email_config WHERE id = 1`).
		Scan(&cfg.SMTPServer, &cfg.SMTPPort, &cfg.EmailAddress, &cfg.Password)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("store", "email config not set")
	}
	if err != nil {
		return nil, errors.NewPersistence("store", "failed to read email config", err)
	}
	return &cfg, nil
}
