package services

import (
	"errors"
	"fmt"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"gorm.io/gorm"
)

type TemplateService struct {
	templateRepo *repository.TemplateRepository
}

func NewTemplateService(templateRepo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
	}
}

// CreateTemplate creates a new message template in pending status. The
// template name must be unique within the user's workspace.
func (s *TemplateService) CreateTemplate(userID string, req *models.CreateTemplateRequest) (*models.Template, error) {
	exists, err := s.templateRepo.ExistsByUserIDAndName(userID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check template: %w", err)
	}
	if exists {
		return nil, errors.New("template already exists")
	}

	template := &models.Template{
		UserID:     userID,
		Name:       req.Name,
		Type:       req.Type,
		Category:   req.Category,
		Language:   req.Language,
		Status:     models.TemplateStatusPending,
		Variables:  req.Variables,
		Components: req.Components,
	}
	if template.Type == "" {
		template.Type = models.TemplateTypeText
	}
	if template.Category == "" {
		template.Category = models.TemplateCategoryGeneral
	}
	if template.Language == "" {
		template.Language = "en"
	}

	if err := template.Validate(); err != nil {
		return nil, err
	}
	template.Content = template.RenderContent()

	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return template, nil
}

// GetTemplate retrieves a single template owned by the user
func (s *TemplateService) GetTemplate(userID, templateID string) (*models.Template, error) {
	template, err := s.templateRepo.GetByUserIDAndID(userID, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("template not found")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// ListTemplates retrieves the user's templates with pagination and filters
func (s *TemplateService) ListTemplates(userID string, query models.TemplateListQuery) ([]*models.Template, *utils.Pagination, error) {
	templates, total, err := s.templateRepo.List(userID, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list templates: %w", err)
	}
	pagination := utils.NewPagination(query.Page, query.Limit, total)
	return templates, pagination, nil
}

// UpdateTemplate edits a template's definition. Editing an approved or
// rejected template returns it to pending for another review.
func (s *TemplateService) UpdateTemplate(userID, templateID string, req *models.UpdateTemplateRequest) (*models.Template, error) {
	template, err := s.GetTemplate(userID, templateID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" && req.Name != template.Name {
		exists, err := s.templateRepo.ExistsByUserIDAndName(userID, req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check template: %w", err)
		}
		if exists {
			return nil, errors.New("template already exists")
		}
		template.Name = req.Name
	}
	if req.Type != "" {
		template.Type = req.Type
	}
	if req.Category != "" {
		template.Category = req.Category
	}
	if req.Language != "" {
		template.Language = req.Language
	}
	if req.Variables != nil {
		template.Variables = req.Variables
	}
	if req.Components != nil {
		template.Components = req.Components
	}

	if err := template.Validate(); err != nil {
		return nil, err
	}
	template.Content = template.RenderContent()
	template.Status = models.TemplateStatusPending
	template.RejectionReason = ""

	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return template, nil
}

// DeleteTemplate removes a template owned by the user
func (s *TemplateService) DeleteTemplate(userID, templateID string) error {
	if _, err := s.GetTemplate(userID, templateID); err != nil {
		return err
	}
	if err := s.templateRepo.DeleteByUserIDAndID(userID, templateID); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// PreviewTemplate renders the template content with sample values substituted
// for positional markers.
func (s *TemplateService) PreviewTemplate(userID, templateID string, values []string) (string, error) {
	template, err := s.GetTemplate(userID, templateID)
	if err != nil {
		return "", err
	}
	return template.RenderPreview(values), nil
}

// ResubmitTemplate returns a rejected template to pending review
func (s *TemplateService) ResubmitTemplate(userID, templateID string) (*models.Template, error) {
	template, err := s.GetTemplate(userID, templateID)
	if err != nil {
		return nil, err
	}
	if err := template.Resubmit(); err != nil {
		return nil, err
	}
	template.RejectionReason = ""
	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// ReviewTemplate applies an admin approval decision to a pending template
func (s *TemplateService) ReviewTemplate(templateID, status, reason string) (*models.Template, error) {
	template, err := s.templateRepo.GetByID(templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("template not found")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	switch status {
	case models.TemplateStatusApproved:
		err = template.Approve()
	case models.TemplateStatusRejected:
		err = template.Reject()
		template.RejectionReason = reason
	default:
		err = fmt.Errorf("unknown review status %q", status)
	}
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// GetPendingTemplates retrieves all templates awaiting review, across users
func (s *TemplateService) GetPendingTemplates() ([]*models.Template, error) {
	templates, err := s.templateRepo.GetAllByStatus(models.TemplateStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending templates: %w", err)
	}
	return templates, nil
}
