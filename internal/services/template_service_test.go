package services

import (
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleTemplateRequest(name, body string) *models.CreateTemplateRequest {
	return &models.CreateTemplateRequest{
		Name: name,
		Components: models.TemplateComponents{
			{Type: models.ComponentTypeBody, Text: body},
		},
	}
}

func TestTemplateServiceCreateTemplate(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := NewTemplateService(repository.NewTemplateRepository(db))

	tpl, err := svc.CreateTemplate(user.ID, simpleTemplateRequest("welcome", "Hello {{1}}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positional variables")
	assert.Nil(t, tpl)

	tpl, err = svc.CreateTemplate(user.ID, &models.CreateTemplateRequest{
		Name:      "welcome",
		Variables: []string{"name"},
		Components: models.TemplateComponents{
			{Type: models.ComponentTypeHeader, Text: "Welcome"},
			{Type: models.ComponentTypeBody, Text: "Hello {{1}}"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusPending, tpl.Status)
	assert.Equal(t, models.TemplateTypeText, tpl.Type)
	assert.Equal(t, "general", tpl.Category)
	assert.Equal(t, "en", tpl.Language)
	assert.Equal(t, "Welcome\nHello {{1}}", tpl.Content)

	_, err = svc.CreateTemplate(user.ID, simpleTemplateRequest("welcome", "another body"))
	assert.ErrorContains(t, err, "already exists")
}

func TestTemplateServiceUpdateResetsStatus(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := NewTemplateService(repository.NewTemplateRepository(db))

	tpl, err := svc.CreateTemplate(user.ID, simpleTemplateRequest("promo", "Big sale"))
	require.NoError(t, err)

	_, err = svc.ReviewTemplate(tpl.ID, models.TemplateStatusRejected, "too vague")
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(user.ID, tpl.ID, &models.UpdateTemplateRequest{
		Components: models.TemplateComponents{
			{Type: models.ComponentTypeBody, Text: "Big sale, 20% off storewide"},
		},
	})
	require.NoError(t, err)

	// Editing sends the template back to review and clears the rejection.
	assert.Equal(t, models.TemplateStatusPending, updated.Status)
	assert.Empty(t, updated.RejectionReason)
	assert.Equal(t, "Big sale, 20% off storewide", updated.Content)
}

func TestTemplateServiceReviewAndResubmit(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := NewTemplateService(repository.NewTemplateRepository(db))

	tpl, err := svc.CreateTemplate(user.ID, simpleTemplateRequest("order-update", "Your order shipped"))
	require.NoError(t, err)

	reviewed, err := svc.ReviewTemplate(tpl.ID, models.TemplateStatusRejected, "needs opt-out text")
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusRejected, reviewed.Status)
	assert.Equal(t, "needs opt-out text", reviewed.RejectionReason)

	// Rejected templates cannot be approved without going through review again.
	_, err = svc.ReviewTemplate(tpl.ID, models.TemplateStatusApproved, "")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	resubmitted, err := svc.ResubmitTemplate(user.ID, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusPending, resubmitted.Status)
	assert.Empty(t, resubmitted.RejectionReason)

	approved, err := svc.ReviewTemplate(tpl.ID, models.TemplateStatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusApproved, approved.Status)

	// Pending list no longer contains it.
	pending, err := svc.GetPendingTemplates()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTemplateServicePreview(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := NewTemplateService(repository.NewTemplateRepository(db))

	tpl, err := svc.CreateTemplate(user.ID, &models.CreateTemplateRequest{
		Name:      "greeting",
		Variables: []string{"name", "order"},
		Components: models.TemplateComponents{
			{Type: models.ComponentTypeBody, Text: "Hi {{1}}, order {{2}}"},
		},
	})
	require.NoError(t, err)

	preview, err := svc.PreviewTemplate(user.ID, tpl.ID, []string{"Ana", "#42"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ana, order #42", preview)

	_, err = svc.PreviewTemplate(user.ID, "00000000-0000-0000-0000-000000000000", nil)
	assert.ErrorContains(t, err, "not found")
}
