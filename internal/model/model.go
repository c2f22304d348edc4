package model

import "time"

// Dispatch log statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Campaign is a named, schedulable email send with a body template,
// recipient list and desired send days/time.
type Campaign struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Recipients     []string   `json:"recipients"`
	SendDays       []string   `json:"send_days"`
	SendTime       string     `json:"send_time"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	Suppliers      []Supplier `json:"suppliers,omitempty"`
	SuppliersCount int        `json:"suppliers_count"`
}

// Supplier is a third-party webpage configured with named CSS-like
// selectors whose scraped text is injected into a campaign's body.
// The last scrape result is colocated with the record and doubles as
// the scraper's result cache.
type Supplier struct {
	ID            int64             `json:"id"`
	CampaignID    int64             `json:"campaign_id"`
	Name          string            `json:"name"`
	URL           string            `json:"url"`
	Selectors     map[string]string `json:"selectors"`
	LastScrapedAt *time.Time        `json:"last_scraped_at,omitempty"`
	LastResult    map[string]string `json:"last_result,omitempty"`
}

// EmailConfig is the single SMTP account used for all dispatches.
// The password is never serialized; read APIs return the config as-is.
type EmailConfig struct {
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"-"`
}

// DispatchLogEntry is one append-only record of a dispatch attempt
type DispatchLogEntry struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaign_id"`
	SentAt     time.Time `json:"sent_at"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
}
