package services

import (
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newContactService(db *gorm.DB) *ContactService {
	return NewContactService(repository.NewContactRepository(db), repository.NewTagRepository(db))
}

func TestContactServiceCreateContact(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newContactService(db)

	contact, err := svc.CreateContact(user.ID, &models.CreateContactRequest{
		Phone: "+49 170 555-1234",
		Name:  "Ana",
		Tags:  []string{"vip", "newsletter"},
	})
	require.NoError(t, err)

	// Phone is stored in canonical form.
	assert.Equal(t, "+491705551234", contact.Phone)
	assert.Equal(t, models.ContactSourceManual, contact.Source)
	assert.Equal(t, models.ContactStatusActive, contact.Status)
	assert.Len(t, contact.Tags, 2)

	// The same number with different formatting is a duplicate.
	_, err = svc.CreateContact(user.ID, &models.CreateContactRequest{Phone: "+491705551234"})
	assert.ErrorContains(t, err, "already exists")

	// A different user may own the same number.
	other := createTestUser(t, db, "other@example.com")
	_, err = svc.CreateContact(other.ID, &models.CreateContactRequest{Phone: "+491705551234"})
	assert.NoError(t, err)
}

func TestContactServiceUpdateContact(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newContactService(db)

	contact, err := svc.CreateContact(user.ID, &models.CreateContactRequest{
		Phone: "+15550001111",
		Name:  "Old Name",
		Tags:  []string{"lead"},
	})
	require.NoError(t, err)

	newName := "New Name"
	blocked := models.ContactStatusBlocked
	updated, err := svc.UpdateContact(user.ID, contact.ID, &models.UpdateContactRequest{
		Name:   &newName,
		Status: &blocked,
		Tags:   []string{"customer"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, models.ContactStatusBlocked, updated.Status)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "customer", updated.Tags[0].Name)

	_, err = svc.UpdateContact(user.ID, "00000000-0000-0000-0000-000000000000", &models.UpdateContactRequest{Name: &newName})
	assert.ErrorContains(t, err, "not found")
}

func TestContactServiceListContacts(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newContactService(db)

	for _, c := range []models.CreateContactRequest{
		{Phone: "+15550000001", Name: "Alice Smith", Tags: []string{"vip"}},
		{Phone: "+15550000002", Name: "Bob Jones"},
		{Phone: "+15550000003", Name: "Carol Smith"},
	} {
		_, err := svc.CreateContact(user.ID, &c)
		require.NoError(t, err)
	}

	contacts, pagination, err := svc.ListContacts(user.ID, models.ContactListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, contacts, 3)
	assert.Equal(t, int64(3), pagination.Total)

	contacts, _, err = svc.ListContacts(user.ID, models.ContactListQuery{Page: 1, Limit: 10, Search: "smith"})
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	contacts, _, err = svc.ListContacts(user.ID, models.ContactListQuery{Page: 1, Limit: 10, Tag: "vip"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Alice Smith", contacts[0].Name)

	contacts, pagination, err = svc.ListContacts(user.ID, models.ContactListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
	assert.Equal(t, 2, pagination.Pages)
}

func TestContactServiceBulkImport(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newContactService(db)

	_, err := svc.CreateContact(user.ID, &models.CreateContactRequest{Phone: "+15550000009"})
	require.NoError(t, err)

	result, err := svc.BulkImport(user.ID, &models.BulkImportRequest{Contacts: []models.CreateContactRequest{
		{Phone: "+15550000010", Name: "Fresh"},
		{Phone: ""},
		{Phone: "+1555 000-0010"}, // duplicate of row 1 after normalization
		{Phone: "+15550000009"},   // already exists
		{Phone: "+15550000011"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 3, result.Skipped)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "row 2")
	assert.Contains(t, result.Errors[1], "row 3")
	assert.Contains(t, result.Errors[2], "row 4")

	contacts, _, err := svc.ListContacts(user.ID, models.ContactListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, contacts, 3)
}

func TestContactServiceDeleteContact(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newContactService(db)

	contact, err := svc.CreateContact(user.ID, &models.CreateContactRequest{Phone: "+15550000020"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteContact(user.ID, contact.ID))
	_, err = svc.GetContact(user.ID, contact.ID)
	assert.ErrorContains(t, err, "not found")

	assert.ErrorContains(t, svc.DeleteContact(user.ID, contact.ID), "not found")
}
