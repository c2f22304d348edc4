package worker

import (
	"context"
	"testing"
	"time"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/internal/store"
	"coastweb/mailscheduler/services/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSender counts dispatches per campaign
type mockSender struct {
	sent map[int64]int
}

func newMockSender() *mockSender {
	return &mockSender{sent: make(map[int64]int)}
}

func (m *mockSender) Send(ctx context.Context, campaignID int64) bool {
	m.sent[campaignID]++
	return true
}

// mondayAt returns a fixed Monday at the given clock time
func mondayAt(hour, minute int) time.Time {
	// 2026-01-05 is a Monday
	return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
}

func newTestWorker(t *testing.T, sender Sender) (*Worker, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	w := NewWorker(context.Background(), st, sender, cache.NewMemoryService(), time.Minute)
	return w, st
}

func addCampaign(t *testing.T, st *store.Store, days []string, sendTime string, active bool) int64 {
	t.Helper()
	id, err := st.CreateCampaign(model.Campaign{
		Name:       "Scheduled",
		Subject:    "Hi",
		Body:       "Body",
		Recipients: []string{"a@x.com"},
		SendDays:   days,
		SendTime:   sendTime,
		Active:     active,
	})
	require.NoError(t, err)
	return id
}

func TestIsDue(t *testing.T) {
	campaign := model.Campaign{SendDays: []string{"monday"}, SendTime: "09:00"}

	assert.False(t, isDue(campaign, mondayAt(8, 59)))
	assert.True(t, isDue(campaign, mondayAt(9, 0)))
	assert.True(t, isDue(campaign, mondayAt(15, 30)))

	// Wrong weekday
	tuesday := mondayAt(9, 0).AddDate(0, 0, 1)
	assert.False(t, isDue(campaign, tuesday))

	// Day names are matched case-insensitively
	campaign.SendDays = []string{"Monday"}
	assert.True(t, isDue(campaign, mondayAt(9, 0)))

	// Unparseable send time never fires
	campaign.SendTime = "9am"
	assert.False(t, isDue(campaign, mondayAt(9, 0)))
}

func TestRunDueCampaignsDispatchesOncePerDay(t *testing.T) {
	sender := newMockSender()
	w, st := newTestWorker(t, sender)
	id := addCampaign(t, st, []string{"monday"}, "09:00", true)

	w.now = func() time.Time { return mondayAt(9, 5) }

	w.runDueCampaigns()
	w.runDueCampaigns()
	assert.Equal(t, 1, sender.sent[id], "campaign must fire once per scheduled day")

	// Next Monday fires again
	w.now = func() time.Time { return mondayAt(9, 5).AddDate(0, 0, 7) }
	w.runDueCampaigns()
	assert.Equal(t, 2, sender.sent[id])
}

func TestRunDueCampaignsSkipsNotDue(t *testing.T) {
	sender := newMockSender()
	w, st := newTestWorker(t, sender)

	tooEarly := addCampaign(t, st, []string{"monday"}, "18:00", true)
	wrongDay := addCampaign(t, st, []string{"friday"}, "09:00", true)
	inactive := addCampaign(t, st, []string{"monday"}, "09:00", false)

	w.now = func() time.Time { return mondayAt(9, 5) }
	w.runDueCampaigns()

	assert.Zero(t, sender.sent[tooEarly])
	assert.Zero(t, sender.sent[wrongDay])
	assert.Zero(t, sender.sent[inactive])
}
