package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"gorm.io/gorm"
)

type ContactService struct {
	contactRepo *repository.ContactRepository
	tagRepo     *repository.TagRepository
}

func NewContactService(contactRepo *repository.ContactRepository, tagRepo *repository.TagRepository) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
	}
}

// CreateContact creates a new contact for a user. The phone number must be
// unique within the user's contact list.
func (s *ContactService) CreateContact(userID string, req *models.CreateContactRequest) (*models.Contact, error) {
	phone := normalizePhone(req.Phone)
	if phone == "" {
		return nil, errors.New("phone number is required")
	}

	exists, err := s.contactRepo.ExistsByUserIDAndPhone(userID, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check contact: %w", err)
	}
	if exists {
		return nil, errors.New("contact already exists")
	}

	contact := &models.Contact{
		UserID:       userID,
		Phone:        phone,
		Name:         req.Name,
		Email:        req.Email,
		Source:       models.ContactSourceManual,
		Status:       models.ContactStatusActive,
		CustomFields: req.CustomFields,
	}

	tags, err := s.resolveTags(req.Tags)
	if err != nil {
		return nil, err
	}
	contact.Tags = tags

	if err := s.contactRepo.Create(contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return contact, nil
}

// GetContact retrieves a single contact owned by the user
func (s *ContactService) GetContact(userID, contactID string) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByUserIDAndID(userID, contactID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("contact not found")
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// ListContacts retrieves the user's contacts with pagination and filters
func (s *ContactService) ListContacts(userID string, query models.ContactListQuery) ([]*models.Contact, *utils.Pagination, error) {
	contacts, total, err := s.contactRepo.List(userID, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	pagination := utils.NewPagination(query.Page, query.Limit, total)
	return contacts, pagination, nil
}

// UpdateContact updates a contact's mutable fields. Phone and source are
// immutable once the contact exists.
func (s *ContactService) UpdateContact(userID, contactID string, req *models.UpdateContactRequest) (*models.Contact, error) {
	contact, err := s.GetContact(userID, contactID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Status != nil {
		contact.Status = *req.Status
	}
	if req.CustomFields != nil {
		contact.CustomFields = req.CustomFields
	}

	if err := s.contactRepo.Update(contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	if req.Tags != nil {
		tags, err := s.resolveTags(req.Tags)
		if err != nil {
			return nil, err
		}
		tagValues := make([]models.Tag, len(tags))
		for i, t := range tags {
			tagValues[i] = t
		}
		if err := s.contactRepo.ReplaceTags(contact, tagValues); err != nil {
			return nil, fmt.Errorf("failed to update contact tags: %w", err)
		}
		contact.Tags = tagValues
	}

	return contact, nil
}

// DeleteContact removes a contact owned by the user
func (s *ContactService) DeleteContact(userID, contactID string) error {
	if _, err := s.GetContact(userID, contactID); err != nil {
		return err
	}
	if err := s.contactRepo.DeleteByUserIDAndID(userID, contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// BulkImport creates contacts from a batch payload. Rows that duplicate an
// existing phone number or fail validation are skipped and reported, they
// never abort the rest of the batch.
func (s *ContactService) BulkImport(userID string, req *models.BulkImportRequest) (*models.BulkImportResult, error) {
	result := &models.BulkImportResult{Errors: []string{}}
	seen := make(map[string]bool)

	for i, row := range req.Contacts {
		phone := normalizePhone(row.Phone)
		if phone == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing phone number", i+1))
			continue
		}
		if seen[phone] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate phone %s in batch", i+1, phone))
			continue
		}

		exists, err := s.contactRepo.ExistsByUserIDAndPhone(userID, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact: %w", err)
		}
		if exists {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: contact %s already exists", i+1, phone))
			continue
		}

		contact := &models.Contact{
			UserID:       userID,
			Phone:        phone,
			Name:         row.Name,
			Email:        row.Email,
			Source:       models.ContactSourceImport,
			Status:       models.ContactStatusActive,
			CustomFields: row.CustomFields,
		}
		tags, err := s.resolveTags(row.Tags)
		if err != nil {
			return nil, err
		}
		contact.Tags = tags

		if err := s.contactRepo.Create(contact); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		seen[phone] = true
		result.Imported++
	}

	return result, nil
}

// GetTags retrieves all known tags
func (s *ContactService) GetTags() ([]*models.Tag, error) {
	tags, err := s.tagRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

func (s *ContactService) resolveTags(names []string) ([]models.Tag, error) {
	var tags []models.Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := s.tagRepo.FindOrCreate(name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// normalizePhone strips spaces and dashes so the same number always stores
// under one canonical form per user.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	return phone
}
