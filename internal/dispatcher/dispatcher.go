package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"coastweb/mailscheduler/internal/mailer"
	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/internal/scraper"
	"coastweb/mailscheduler/internal/store"
	"coastweb/mailscheduler/logger"
	"coastweb/mailscheduler/services/publisher"
)

// supplierSectionHeader delimits enrichment data from the template body
const supplierSectionHeader = "--- Supplier Information ---"

// supplierData pairs a supplier name with its scraped fields, keeping
// campaign order
type supplierData struct {
	name   string
	fields map[string]string
}

// Dispatcher composes and sends campaign emails. Every Send attempt
// writes exactly one dispatch log entry; failures are absorbed and
// reported as a boolean result, never as an error to the caller.
type Dispatcher struct {
	store     *store.Store
	scraper   *scraper.Scraper
	transport mailer.Transport
	events    publisher.Publisher
	log       *logger.Logger
}

// New creates a new Dispatcher
func New(st *store.Store, sc *scraper.Scraper, transport mailer.Transport, events publisher.Publisher) *Dispatcher {
	return &Dispatcher{
		store:     st,
		scraper:   sc,
		transport: transport,
		events:    events,
		log:       logger.ForDispatcher(),
	}
}

// Send dispatches the campaign to all its recipients, enriching the
// body with fresh-or-cached supplier data. Returns true when the mail
// was handed to the transport.
func (d *Dispatcher) Send(ctx context.Context, campaignID int64) bool {
	campaign, err := d.store.GetCampaign(campaignID)
	if err != nil {
		d.logOutcome(campaignID, model.StatusError, "Campaign or email config not found")
		return false
	}
	cfg, err := d.store.GetEmailConfig()
	if err != nil {
		d.logOutcome(campaignID, model.StatusError, "Campaign or email config not found")
		return false
	}
	if len(campaign.Recipients) == 0 {
		d.logOutcome(campaignID, model.StatusError, "Campaign has no recipients")
		return false
	}

	enrichment := d.gatherSupplierData(ctx, campaign)
	body := composeBody(campaign.Body, enrichment)

	if err := d.transport.Send(*cfg, campaign.Recipients, campaign.Subject, body); err != nil {
		d.log.Error().Err(err).Int64("campaign_id", campaignID).Msg("Mail transport failed")
		d.logOutcome(campaignID, model.StatusError, err.Error())
		return false
	}

	d.logOutcome(campaignID, model.StatusSuccess,
		fmt.Sprintf("Email sent successfully to %d recipient(s)", len(campaign.Recipients)))
	return true
}

// gatherSupplierData scrapes every supplier of the campaign. A failing
// supplier is omitted; it never aborts the send.
func (d *Dispatcher) gatherSupplierData(ctx context.Context, campaign *model.Campaign) []supplierData {
	var gathered []supplierData
	for _, supplier := range campaign.Suppliers {
		result, err := d.scraper.Scrape(ctx, supplier.URL, supplier.Selectors, supplier.ID, false)
		if err != nil {
			d.log.Warn().Err(err).
				Int64("campaign_id", campaign.ID).
				Str("supplier", supplier.Name).
				Msg("Supplier omitted from enrichment")
			continue
		}
		gathered = append(gathered, supplierData{name: supplier.Name, fields: result.Fields})
	}
	return gathered
}

// composeBody appends the supplier information section to the template
// body when at least one supplier yielded data
func composeBody(template string, enrichment []supplierData) string {
	if len(enrichment) == 0 {
		return template
	}

	var b strings.Builder
	b.WriteString(template)
	b.WriteString("\n\n" + supplierSectionHeader + "\n")
	for _, data := range enrichment {
		b.WriteString("\n" + data.name + ":\n")
		fields := make([]string, 0, len(data.fields))
		for field := range data.fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			b.WriteString("  " + field + ": " + data.fields[field] + "\n")
		}
	}
	return b.String()
}

// logOutcome appends the dispatch log entry and publishes it as an
// event. Both are best-effort.
func (d *Dispatcher) logOutcome(campaignID int64, status, message string) {
	if err := d.store.AppendLog(campaignID, status, message); err != nil {
		d.log.Error().Err(err).Int64("campaign_id", campaignID).Msg("Failed to append dispatch log")
	}

	entry := model.DispatchLogEntry{
		CampaignID: campaignID,
		SentAt:     time.Now(),
		Status:     status,
		Message:    message,
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		d.log.Error().Err(err).Msg("Failed to encode dispatch event")
		return
	}
	if err := d.events.Publish("dispatch", payload); err != nil {
		d.log.Warn().Err(err).Msg("Failed to publish dispatch event")
		return
	}
	if err := d.events.TrimStream(); err != nil {
		d.log.Warn().Err(err).Msg("Failed to trim dispatch stream")
	}
}
