package services

import (
	"errors"
	"fmt"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RetargetJob is the payload published to the dispatch queue when a
// retargeting campaign is executed.
type RetargetJob struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
}

type RetargetService struct {
	retargetRepo *repository.RetargetCampaignRepository
	contactRepo  *repository.ContactRepository
	templateRepo *repository.TemplateRepository
	accountRepo  *repository.WhatsAppAccountRepository
	rabbitmq     *RabbitMQService
}

func NewRetargetService(
	retargetRepo *repository.RetargetCampaignRepository,
	contactRepo *repository.ContactRepository,
	templateRepo *repository.TemplateRepository,
	accountRepo *repository.WhatsAppAccountRepository,
	rabbitmq *RabbitMQService,
) *RetargetService {
	return &RetargetService{
		retargetRepo: retargetRepo,
		contactRepo:  contactRepo,
		templateRepo: templateRepo,
		accountRepo:  accountRepo,
		rabbitmq:     rabbitmq,
	}
}

// CreateCampaign creates a retargeting campaign. Either a template or a
// free-form message is required; the target count is computed immediately so
// the dashboard can show audience size before launch.
func (s *RetargetService) CreateCampaign(userID string, req *models.CreateRetargetCampaignRequest) (*models.RetargetCampaign, error) {
	if req.TemplateID == "" && req.Message == "" {
		return nil, errors.New("either a template or a message is required")
	}
	if req.TemplateID != "" {
		if err := s.checkTemplate(userID, req.TemplateID); err != nil {
			return nil, err
		}
	}

	campaign := &models.RetargetCampaign{
		UserID:      userID,
		Name:        req.Name,
		TemplateID:  req.TemplateID,
		Message:     req.Message,
		Filters:     req.Filters,
		Status:      models.CampaignStatusDraft,
		ScheduledAt: req.ScheduledAt,
	}

	contacts, err := s.contactRepo.FindByFilters(userID, req.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to compute audience: %w", err)
	}
	campaign.TargetCount = len(contacts)

	if err := s.retargetRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create retarget campaign: %w", err)
	}
	return campaign, nil
}

// GetCampaign retrieves a single retargeting campaign owned by the user
func (s *RetargetService) GetCampaign(userID, campaignID string) (*models.RetargetCampaign, error) {
	campaign, err := s.retargetRepo.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("retarget campaign not found")
		}
		return nil, fmt.Errorf("failed to get retarget campaign: %w", err)
	}
	return campaign, nil
}

// ListCampaigns retrieves the user's retargeting campaigns with pagination
func (s *RetargetService) ListCampaigns(userID string, page, limit int) ([]*models.RetargetCampaign, *utils.Pagination, error) {
	campaigns, total, err := s.retargetRepo.List(userID, page, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list retarget campaigns: %w", err)
	}
	pagination := utils.NewPagination(page, limit, total)
	return campaigns, pagination, nil
}

// UpdateCampaign updates a draft retargeting campaign. The target count is
// recomputed when the filters change.
func (s *RetargetService) UpdateCampaign(userID, campaignID string, req *models.UpdateRetargetCampaignRequest) (*models.RetargetCampaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusActive || campaign.Status == models.CampaignStatusCompleted {
		return nil, fmt.Errorf("cannot update retarget campaign in status %q", campaign.Status)
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.TemplateID != "" {
		if err := s.checkTemplate(userID, req.TemplateID); err != nil {
			return nil, err
		}
		campaign.TemplateID = req.TemplateID
	}
	if req.Message != nil {
		campaign.Message = *req.Message
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
	}
	if req.Filters != nil {
		campaign.Filters = *req.Filters
		contacts, err := s.contactRepo.FindByFilters(userID, campaign.Filters)
		if err != nil {
			return nil, fmt.Errorf("failed to compute audience: %w", err)
		}
		campaign.TargetCount = len(contacts)
	}

	if err := s.retargetRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update retarget campaign: %w", err)
	}
	return campaign, nil
}

// DeleteCampaign removes a retargeting campaign that is not running
func (s *RetargetService) DeleteCampaign(userID, campaignID string) error {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusActive {
		return errors.New("cannot delete an active retarget campaign")
	}
	if err := s.retargetRepo.DeleteByUserIDAndID(userID, campaignID); err != nil {
		return fmt.Errorf("failed to delete retarget campaign: %w", err)
	}
	return nil
}

// PreviewAudience evaluates the filters and returns the matching contacts
// without sending anything.
func (s *RetargetService) PreviewAudience(userID string, filters models.RetargetFilters) ([]*models.Contact, error) {
	contacts, err := s.contactRepo.FindByFilters(userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to compute audience: %w", err)
	}
	return contacts, nil
}

// Execute marks the campaign active and enqueues it for dispatch. The
// audience is resolved by the dispatcher at execution time, and its
// per-contact recipient markers keep a re-executed campaign from messaging
// already reached contacts again.
func (s *RetargetService) Execute(userID, campaignID string) (*models.RetargetCampaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusActive {
		return nil, errors.New("retarget campaign is already active")
	}

	if _, err := s.accountRepo.GetFirstActiveByUserID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user has no connected whatsapp account")
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if campaign.TemplateID != "" {
		if err := s.checkTemplate(userID, campaign.TemplateID); err != nil {
			return nil, err
		}
	}

	contacts, err := s.contactRepo.FindByFilters(userID, campaign.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to compute audience: %w", err)
	}

	// Checked before any status change so a broker outage cannot strand
	// the campaign in active.
	if s.rabbitmq == nil {
		return nil, ErrQueueUnavailable
	}

	prevStatus := campaign.Status
	campaign.Status = models.CampaignStatusActive
	campaign.TargetCount = len(contacts)
	if err := s.retargetRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update retarget campaign: %w", err)
	}

	job := RetargetJob{CampaignID: campaign.ID, UserID: userID}
	if err := s.rabbitmq.PublishJSON(RetargetQueue, job); err != nil {
		// Roll the status back so the execution can be retried.
		campaign.Status = prevStatus
		if rbErr := s.retargetRepo.Update(campaign); rbErr != nil {
			logrus.Errorf("Failed to roll back retarget campaign %s status: %v", campaign.ID, rbErr)
		}
		return nil, fmt.Errorf("failed to enqueue retarget campaign: %w", err)
	}

	return campaign, nil
}

func (s *RetargetService) checkTemplate(userID, templateID string) error {
	template, err := s.templateRepo.GetByUserIDAndID(userID, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("template not found")
		}
		return fmt.Errorf("failed to get template: %w", err)
	}
	if template.Status != models.TemplateStatusApproved {
		return errors.New("template is not approved")
	}
	return nil
}
