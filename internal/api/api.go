package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/internal/scraper"
	"coastweb/mailscheduler/internal/store"
	"coastweb/mailscheduler/logger"
	"coastweb/mailscheduler/pkg/errors"
)

// Sender dispatches one campaign on demand
type Sender interface {
	Send(ctx context.Context, campaignID int64) bool
}

// Server exposes the engine's operation surface as a JSON API
type Server struct {
	store   *store.Store
	scraper *scraper.Scraper
	sender  Sender
	log     *logger.Logger
}

// NewServer creates a new API server
func NewServer(st *store.Store, sc *scraper.Scraper, sender Sender) *Server {
	return &Server{
		store:   st,
		scraper: sc,
		sender:  sender,
		log:     logger.ForAPI(),
	}
}

// Router builds the HTTP routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/campaigns", func(r chi.Router) {
		r.Get("/", s.handleListCampaigns)
		r.Post("/", s.handleCreateCampaign)
		r.Get("/{id}", s.handleGetCampaign)
		r.Put("/{id}", s.handleUpdateCampaign)
		r.Delete("/{id}", s.handleDeleteCampaign)
	})
	r.Route("/suppliers", func(r chi.Router) {
		r.Post("/", s.handleAddSupplier)
		r.Put("/{id}", s.handleUpdateSupplier)
		r.Delete("/{id}", s.handleDeleteSupplier)
	})
	r.Get("/config", s.handleGetConfig)
	r.Post("/config", s.handleSaveConfig)
	r.Post("/send", s.handleSend)
	r.Post("/test-scrape", s.handleTestScrape)
	r.Get("/logs", s.handleGetLogs)

	return r
}

type campaignPayload struct {
	Name       string   `json:"name"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
	SendDays   []string `json:"send_days"`
	SendTime   string   `json:"send_time"`
	Active     *bool    `json:"active"`
}

func (p campaignPayload) toModel() model.Campaign {
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return model.Campaign{
		Name:       p.Name,
		Subject:    p.Subject,
		Body:       p.Body,
		Recipients: p.Recipients,
		SendDays:   p.SendDays,
		SendTime:   p.SendTime,
		Active:     active,
	}
}

func validateCampaign(p campaignPayload) map[string]string {
	fields := map[string]string{}
	if len(strings.TrimSpace(p.Name)) < 2 {
		fields["name"] = "Name is required (min 2 chars)"
	}
	if strings.TrimSpace(p.Subject) == "" {
		fields["subject"] = "Subject is required"
	}
	if strings.TrimSpace(p.Body) == "" {
		fields["body"] = "Body is required"
	}
	if len(p.Recipients) == 0 {
		fields["recipients"] = "At least one recipient required"
	}
	if _, err := time.Parse("15:04", p.SendTime); err != nil {
		fields["send_time"] = "Send time must be a valid 24h HH:MM"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var payload campaignPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if fields := validateCampaign(payload); fields != nil {
		writeValidationError(w, fields)
		return
	}

	id, err := s.store.CreateCampaign(payload.toModel())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": id})
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	campaign, err := s.store.GetCampaign(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"campaign": campaign})
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 10)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var status *bool
	switch r.URL.Query().Get("status") {
	case "active":
		v := true
		status = &v
	case "inactive":
		v := false
		status = &v
	}

	items, total, err := s.store.ListCampaigns(page, perPage, query, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": items,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
	})
}

func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload campaignPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if fields := validateCampaign(payload); fields != nil {
		writeValidationError(w, fields)
		return
	}
	if err := s.store.UpdateCampaign(id, payload.toModel()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteCampaign(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type supplierPayload struct {
	CampaignID int64             `json:"campaign_id"`
	Name       string            `json:"name"`
	URL        string            `json:"url"`
	Selectors  map[string]string `json:"selectors"`
}

func validateSupplier(p supplierPayload) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Supplier name required"
	}
	if u, err := url.Parse(p.URL); err != nil || u.Scheme == "" || u.Host == "" {
		fields["url"] = "Valid URL required"
	}
	if p.Selectors == nil {
		fields["selectors"] = "Selectors must be an object"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *Server) handleAddSupplier(w http.ResponseWriter, r *http.Request) {
	var payload supplierPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.CampaignID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Campaign ID required"})
		return
	}
	if fields := validateSupplier(payload); fields != nil {
		writeValidationError(w, fields)
		return
	}

	id, err := s.store.AddSupplier(payload.CampaignID, model.Supplier{
		Name:      payload.Name,
		URL:       payload.URL,
		Selectors: payload.Selectors,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "id": id})
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload supplierPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if fields := validateSupplier(payload); fields != nil {
		writeValidationError(w, fields)
		return
	}
	err := s.store.UpdateSupplier(id, model.Supplier{
		Name:      payload.Name,
		URL:       payload.URL,
		Selectors: payload.Selectors,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteSupplier(id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type configPayload struct {
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"email_password"`
}

func validateConfig(p configPayload) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(p.SMTPServer) == "" {
		fields["smtp_server"] = "Missing smtp_server"
	}
	if p.SMTPPort <= 0 || p.SMTPPort > 65535 {
		fields["smtp_port"] = "SMTP port must be a valid port number"
	}
	if _, err := mail.ParseAddress(p.EmailAddress); err != nil {
		fields["email_address"] = "Invalid email address"
	}
	if p.Password == "" {
		fields["email_password"] = "Missing email_password"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var payload configPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if fields := validateConfig(payload); fields != nil {
		writeValidationError(w, fields)
		return
	}
	err := s.store.SaveEmailConfig(model.EmailConfig{
		SMTPServer:   payload.SMTPServer,
		SMTPPort:     payload.SMTPPort,
		EmailAddress: payload.EmailAddress,
		Password:     payload.Password,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetEmailConfig()
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"config": nil})
			return
		}
		s.writeError(w, err)
		return
	}
	// The password never serializes; the model hides it
	writeJSON(w, http.StatusOK, map[string]interface{}{"config": cfg})
}

type sendPayload struct {
	CampaignID int64 `json:"campaign_id"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload sendPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.CampaignID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Campaign ID required"})
		return
	}
	ok := s.sender.Send(r.Context(), payload.CampaignID)
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": ok})
}

type testScrapePayload struct {
	URL        string            `json:"url"`
	Selectors  map[string]string `json:"selectors"`
	SupplierID int64             `json:"supplier_id"`
	Force      bool              `json:"force"`
}

func (s *Server) handleTestScrape(w http.ResponseWriter, r *http.Request) {
	var payload testScrapePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.URL == "" || payload.Selectors == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "URL and selectors required"})
		return
	}

	result, err := s.scraper.Scrape(r.Context(), payload.URL, payload.Selectors, payload.SupplierID, payload.Force)
	if err != nil {
		switch errors.TypeOf(err) {
		case errors.ErrorTypeRobotsDisallowed:
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"success": false, "error": "Scraping disallowed by robots.txt",
			})
		case errors.ErrorTypeFetch:
			writeJSON(w, http.StatusBadGateway, map[string]interface{}{
				"success": false, "error": "Failed to scrape",
			})
		default:
			s.writeError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result.Fields,
		"cached":  result.Cached,
	})
}

func (s *Server) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	var campaignID *int64
	if raw := r.URL.Query().Get("campaign_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid campaign id"})
			return
		}
		campaignID = &id
	}

	logs, err := s.store.GetLogs(campaignID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}

// writeError maps engine error types onto HTTP status classes
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.TypeOf(err) {
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}

func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "Validation failed",
		"fields": fields,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid JSON"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
