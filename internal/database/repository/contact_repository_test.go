package repository

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:repotestdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

type retargetFixture struct {
	db      *gorm.DB
	repo    *ContactRepository
	user    *models.User
	account *models.WhatsAppAccount
}

func newRetargetFixture(t *testing.T) *retargetFixture {
	t.Helper()

	db := setupTestDB(t)
	user := &models.User{Email: "owner@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(user).Error)

	account := &models.WhatsAppAccount{
		UserID:            user.ID,
		PhoneNumberID:     "pn-1",
		BusinessAccountID: "biz-1",
		AccessTokenEnc:    "enc",
		IsActive:          true,
	}
	require.NoError(t, db.Create(account).Error)

	return &retargetFixture{db: db, repo: NewContactRepository(db), user: user, account: account}
}

func (f *retargetFixture) contact(t *testing.T, phone string, mutate func(*models.Contact)) *models.Contact {
	t.Helper()

	c := &models.Contact{
		UserID: f.user.ID,
		Phone:  phone,
		Status: models.ContactStatusActive,
		Source: models.ContactSourceManual,
	}
	if mutate != nil {
		mutate(c)
	}
	require.NoError(t, f.db.Create(c).Error)
	return c
}

func (f *retargetFixture) message(t *testing.T, contactID, direction, status, msgType, wamid string, at time.Time) {
	t.Helper()

	msg := &models.Message{
		UserID:            f.user.ID,
		WhatsAppAccountID: f.account.ID,
		ContactID:         contactID,
		Direction:         direction,
		Status:            status,
		Type:              msgType,
		WhatsAppMessageID: wamid,
	}
	require.NoError(t, f.db.Create(msg).Error)
	require.NoError(t, f.db.Model(msg).Update("created_at", at).Error)
}

func phones(contacts []*models.Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = c.Phone
	}
	return out
}

func TestFindByFiltersUnread(t *testing.T) {
	f := newRetargetFixture(t)
	now := time.Now()

	unread := f.contact(t, "+1000", nil)
	f.message(t, unread.ID, models.MessageDirectionInbound, models.MessageStatusDelivered, "TEXT", "w1", now)

	read := f.contact(t, "+2000", nil)
	f.message(t, read.ID, models.MessageDirectionInbound, models.MessageStatusRead, "TEXT", "w2", now)

	f.contact(t, "+3000", nil) // no messages at all

	got, err := f.repo.FindByFilters(f.user.ID, models.RetargetFilters{Unread: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))
}

func TestFindByFiltersNoReply(t *testing.T) {
	f := newRetargetFixture(t)
	now := time.Now()

	waiting := f.contact(t, "+1000", nil)
	f.message(t, waiting.ID, models.MessageDirectionOutbound, models.MessageStatusSent, "TEXT", "w1", now.Add(-2*time.Hour))
	f.message(t, waiting.ID, models.MessageDirectionInbound, models.MessageStatusRead, "TEXT", "w2", now.Add(-time.Hour))

	answered := f.contact(t, "+2000", nil)
	f.message(t, answered.ID, models.MessageDirectionInbound, models.MessageStatusRead, "TEXT", "w3", now.Add(-2*time.Hour))
	f.message(t, answered.ID, models.MessageDirectionOutbound, models.MessageStatusSent, "TEXT", "w4", now.Add(-time.Hour))

	got, err := f.repo.FindByFilters(f.user.ID, models.RetargetFilters{NoReply: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))
}

func TestFindByFiltersConjunction(t *testing.T) {
	f := newRetargetFixture(t)
	now := time.Now()

	tag := &models.Tag{Name: "vip"}
	require.NoError(t, f.db.Create(tag).Error)

	// Matches both filters: tagged vip and has an unread inbound message.
	both := f.contact(t, "+1000", func(c *models.Contact) { c.Tags = []models.Tag{*tag} })
	f.message(t, both.ID, models.MessageDirectionInbound, models.MessageStatusDelivered, "TEXT", "w1", now)

	// Tagged but no unread messages.
	f.contact(t, "+2000", func(c *models.Contact) { c.Tags = []models.Tag{*tag} })

	// Unread but untagged.
	unreadOnly := f.contact(t, "+3000", nil)
	f.message(t, unreadOnly.ID, models.MessageDirectionInbound, models.MessageStatusDelivered, "TEXT", "w2", now)

	got, err := f.repo.FindByFilters(f.user.ID, models.RetargetFilters{Unread: true, Tags: []string{"vip"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))

	// Each filter alone is wider.
	got, err = f.repo.FindByFilters(f.user.ID, models.RetargetFilters{Tags: []string{"vip"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFindByFiltersExcludesInactiveContacts(t *testing.T) {
	f := newRetargetFixture(t)

	f.contact(t, "+1000", nil)
	f.contact(t, "+2000", func(c *models.Contact) { c.Status = models.ContactStatusBlocked })

	got, err := f.repo.FindByFilters(f.user.ID, models.RetargetFilters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))
}

func TestFindByFiltersLastMessageBeforeAndSource(t *testing.T) {
	f := newRetargetFixture(t)

	old := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	f.contact(t, "+1000", func(c *models.Contact) {
		c.LastMessageAt = &old
		c.Source = models.ContactSourceImport
	})
	f.contact(t, "+2000", func(c *models.Contact) { c.LastMessageAt = &recent })
	f.contact(t, "+3000", nil) // never messaged, excluded by the date filter

	got, err := f.repo.FindByFilters(f.user.ID, models.RetargetFilters{LastMessageBefore: "2026-06-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))

	got, err = f.repo.FindByFilters(f.user.ID, models.RetargetFilters{Source: models.ContactSourceImport})
	require.NoError(t, err)
	assert.Equal(t, []string{"+1000"}, phones(got))

	// A malformed date does not constrain.
	got, err = f.repo.FindByFilters(f.user.ID, models.RetargetFilters{LastMessageBefore: "soon"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFindBySegments(t *testing.T) {
	f := newRetargetFixture(t)

	vip := &models.Tag{Name: "vip"}
	leads := &models.Tag{Name: "leads"}
	require.NoError(t, f.db.Create(vip).Error)
	require.NoError(t, f.db.Create(leads).Error)

	f.contact(t, "+1000", func(c *models.Contact) { c.Tags = []models.Tag{*vip} })
	f.contact(t, "+2000", func(c *models.Contact) { c.Tags = []models.Tag{*leads} })
	f.contact(t, "+3000", nil)

	got, err := f.repo.FindBySegments(f.user.ID, []string{"vip", "leads"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// No segments selects every active contact.
	got, err = f.repo.FindBySegments(f.user.ID, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
