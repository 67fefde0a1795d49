package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CampaignJob is the payload published to the dispatch queue when a
// campaign is launched.
type CampaignJob struct {
	CampaignID string `json:"campaign_id"`
	UserID     string `json:"user_id"`
}

type CampaignService struct {
	campaignRepo  *repository.CampaignRepository
	recipientRepo *repository.CampaignRecipientRepository
	templateRepo  *repository.TemplateRepository
	contactRepo   *repository.ContactRepository
	rabbitmq      *RabbitMQService
}

func NewCampaignService(
	campaignRepo *repository.CampaignRepository,
	recipientRepo *repository.CampaignRecipientRepository,
	templateRepo *repository.TemplateRepository,
	contactRepo *repository.ContactRepository,
	rabbitmq *RabbitMQService,
) *CampaignService {
	return &CampaignService{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		templateRepo:  templateRepo,
		contactRepo:   contactRepo,
		rabbitmq:      rabbitmq,
	}
}

// CreateCampaign creates a campaign in draft, or scheduled when a future
// send time is given. The referenced template must exist, belong to the
// user and be approved.
func (s *CampaignService) CreateCampaign(userID string, req *models.CreateCampaignRequest) (*models.Campaign, error) {
	template, err := s.templateRepo.GetByUserIDAndID(userID, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("template not found")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if template.Status != models.TemplateStatusApproved {
		return nil, errors.New("template is not approved")
	}

	campaign := &models.Campaign{
		UserID:         userID,
		Name:           req.Name,
		TemplateID:     req.TemplateID,
		FlowID:         req.FlowID,
		TargetSegments: req.TargetSegments,
		ScheduledAt:    req.ScheduledAt,
		Status:         models.CampaignStatusDraft,
	}
	if req.ScheduledAt != nil && req.ScheduledAt.After(time.Now()) {
		campaign.Status = models.CampaignStatusScheduled
	}

	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// GetCampaign retrieves a single campaign owned by the user
func (s *CampaignService) GetCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByUserIDAndID(userID, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("campaign not found")
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return campaign, nil
}

// ListCampaigns retrieves the user's campaigns with pagination
func (s *CampaignService) ListCampaigns(userID string, page, limit int, status string) ([]*models.Campaign, *utils.Pagination, error) {
	campaigns, total, err := s.campaignRepo.List(userID, page, limit, status)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	pagination := utils.NewPagination(page, limit, total)
	return campaigns, pagination, nil
}

// UpdateCampaign updates a campaign. Active and completed campaigns are
// immutable.
func (s *CampaignService) UpdateCampaign(userID, campaignID string, req *models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusActive || campaign.Status == models.CampaignStatusCompleted {
		return nil, fmt.Errorf("cannot update campaign in status %q", campaign.Status)
	}

	if req.Name != "" {
		campaign.Name = req.Name
	}
	if req.TemplateID != "" && req.TemplateID != campaign.TemplateID {
		template, err := s.templateRepo.GetByUserIDAndID(userID, req.TemplateID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("template not found")
			}
			return nil, fmt.Errorf("failed to get template: %w", err)
		}
		if template.Status != models.TemplateStatusApproved {
			return nil, errors.New("template is not approved")
		}
		campaign.TemplateID = req.TemplateID
	}
	if req.FlowID != nil {
		campaign.FlowID = *req.FlowID
	}
	if req.TargetSegments != nil {
		campaign.TargetSegments = req.TargetSegments
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
		if req.ScheduledAt.After(time.Now()) && campaign.Status == models.CampaignStatusDraft {
			campaign.Status = models.CampaignStatusScheduled
		}
	}

	if err := s.campaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

// DeleteCampaign removes a campaign that is not running
func (s *CampaignService) DeleteCampaign(userID, campaignID string) error {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.CampaignStatusActive {
		return errors.New("cannot delete an active campaign")
	}
	if err := s.campaignRepo.DeleteByUserIDAndID(userID, campaignID); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// LaunchCampaign marks the campaign active and enqueues it for dispatch.
// Launching an already active campaign is rejected; re-launching a completed
// one re-enqueues it, but recipient markers keep previously reached contacts
// from receiving duplicates.
func (s *CampaignService) LaunchCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.CampaignStatusActive {
		return nil, errors.New("campaign is already active")
	}
	// Checked before any status change so a broker outage cannot strand
	// the campaign in active.
	if s.rabbitmq == nil {
		return nil, ErrQueueUnavailable
	}

	if err := s.campaignRepo.UpdateStatus(campaign.ID, models.CampaignStatusActive); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}
	campaign.Status = models.CampaignStatusActive

	job := CampaignJob{CampaignID: campaign.ID, UserID: userID}
	if err := s.rabbitmq.PublishJSON(CampaignQueue, job); err != nil {
		// Roll the status back so the launch can be retried.
		if rbErr := s.campaignRepo.UpdateStatus(campaign.ID, models.CampaignStatusDraft); rbErr != nil {
			logrus.Errorf("Failed to roll back campaign %s status: %v", campaign.ID, rbErr)
		}
		return nil, fmt.Errorf("failed to enqueue campaign: %w", err)
	}

	return campaign, nil
}

// PauseCampaign stops an active campaign from dispatching further batches
func (s *CampaignService) PauseCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusActive {
		return nil, errors.New("campaign is not active")
	}
	if err := s.campaignRepo.UpdateStatus(campaign.ID, models.CampaignStatusPaused); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}
	campaign.Status = models.CampaignStatusPaused
	return campaign, nil
}

// GetMetrics returns the campaign's delivery counters
func (s *CampaignService) GetMetrics(userID, campaignID string) (*models.CampaignMetrics, error) {
	campaign, err := s.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	return &models.CampaignMetrics{
		Sent:      campaign.Sent,
		Delivered: campaign.Delivered,
		Read:      campaign.Read,
		Failed:    campaign.Failed,
	}, nil
}

// GetAllCampaigns retrieves every campaign across users, for admins
func (s *CampaignService) GetAllCampaigns() ([]*models.Campaign, error) {
	campaigns, err := s.campaignRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	return campaigns, nil
}
