package worker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/internal/store"
	"coastweb/mailscheduler/logger"
	"coastweb/mailscheduler/services/cache"
)

// Sender dispatches one campaign. Satisfied by dispatcher.Dispatcher.
type Sender interface {
	Send(ctx context.Context, campaignID int64) bool
}

// Worker periodically scans active campaigns and dispatches the ones
// whose send day and time have arrived. A cache key marks a campaign as
// sent for the day so a send fires at most once per scheduled day.
type Worker struct {
	ctx      context.Context
	store    *store.Store
	sender   Sender
	dedup    cache.CacheService
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// NewWorker creates a new scheduler worker
func NewWorker(ctx context.Context, st *store.Store, sender Sender, dedup cache.CacheService, interval time.Duration) *Worker {
	return &Worker{
		ctx:      ctx,
		store:    st,
		sender:   sender,
		dedup:    dedup,
		interval: interval,
		now:      time.Now,
		log:      logger.ForScheduler(),
	}
}

// Start runs the scheduling loop until the context is canceled
func (w *Worker) Start() error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.runDueCampaigns()
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-ticker.C:
		}
	}
}

// runDueCampaigns dispatches every active campaign that is due and not
// yet sent today
func (w *Worker) runDueCampaigns() {
	campaigns, err := w.store.ActiveCampaigns()
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to load active campaigns")
		return
	}

	now := w.now()
	for _, campaign := range campaigns {
		if !isDue(campaign, now) {
			continue
		}
		key := dedupKey(campaign.ID, now)
		if _, err := w.dedup.Get(key); err == nil {
			continue
		}
		if err := w.dedup.Set(key, []byte("1"), 24*time.Hour); err != nil {
			w.log.Warn().Err(err).Int64("campaign_id", campaign.ID).Msg("Failed to mark campaign as sent")
		}

		w.log.Info().
			Int64("campaign_id", campaign.ID).
			Str("name", campaign.Name).
			Msg("Dispatching scheduled campaign")
		w.sender.Send(w.ctx, campaign.ID)
	}
}

// isDue reports whether the campaign's send day and time have arrived
func isDue(campaign model.Campaign, now time.Time) bool {
	today := strings.ToLower(now.Weekday().String())
	dayMatches := false
	for _, day := range campaign.SendDays {
		if strings.ToLower(strings.TrimSpace(day)) == today {
			dayMatches = true
			break
		}
	}
	if !dayMatches {
		return false
	}

	sendTime, err := time.Parse("15:04", campaign.SendTime)
	if err != nil {
		return false
	}
	scheduled := time.Date(now.Year(), now.Month(), now.Day(),
		sendTime.Hour(), sendTime.Minute(), 0, 0, now.Location())
	return !now.Before(scheduled)
}

func dedupKey(campaignID int64, now time.Time) string {
	return "campaign_sent:" + now.Format("2006-01-02") + ":" + strconv.FormatInt(campaignID, 10)
}
