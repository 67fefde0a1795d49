package excel

import (
	"fmt"
	"io"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Phone", "Name", "Email", "Source", "Status", "Tags", "Created At"}

// Service handles Excel import and export of contact lists
type Service struct {
	contactRepo *repository.ContactRepository
	tagRepo     *repository.TagRepository
}

// NewExcelService creates a new Excel service instance
func NewExcelService(contactRepo *repository.ContactRepository, tagRepo *repository.TagRepository) *Service {
	return &Service{
		contactRepo: contactRepo,
		tagRepo:     tagRepo,
	}
}

// ExportContacts writes the user's full contact list as an xlsx workbook
func (s *Service) ExportContacts(userID string) (*excelize.File, error) {
	contacts, _, err := s.contactRepo.List(userID, models.ContactListQuery{Page: 1, Limit: 100000})
	if err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Contacts"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"},
			Pattern: 1,
		},
	})

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, contact := range contacts {
		tagNames := make([]string, len(contact.Tags))
		for i, tag := range contact.Tags {
			tagNames[i] = tag.Name
		}
		values := []interface{}{
			contact.Phone,
			contact.Name,
			contact.Email,
			contact.Source,
			contact.Status,
			strings.Join(tagNames, ", "),
			contact.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return f, nil
}

// ImportContacts reads an uploaded xlsx workbook and creates contacts from
// its rows. The first sheet is used; the first row must be a header with at
// least a Phone column. Duplicate or invalid rows are skipped and reported.
func (s *Service) ImportContacts(userID string, r io.Reader) (*models.BulkImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook has no data rows")
	}

	columns := headerIndex(rows[0])
	phoneCol, ok := columns["phone"]
	if !ok {
		return nil, fmt.Errorf("workbook is missing a Phone column")
	}

	result := &models.BulkImportResult{Errors: []string{}}
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		rowNum := i + 2
		phone := cellAt(row, phoneCol)
		phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
		if phone == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing phone number", rowNum))
			continue
		}
		if seen[phone] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate phone %s in file", rowNum, phone))
			continue
		}

		exists, err := s.contactRepo.ExistsByUserIDAndPhone(userID, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact: %w", err)
		}
		if exists {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: contact %s already exists", rowNum, phone))
			continue
		}

		contact := &models.Contact{
			UserID: userID,
			Phone:  phone,
			Source: models.ContactSourceImport,
			Status: models.ContactStatusActive,
		}
		if col, ok := columns["name"]; ok {
			contact.Name = cellAt(row, col)
		}
		if col, ok := columns["email"]; ok {
			contact.Email = cellAt(row, col)
		}
		if col, ok := columns["tags"]; ok {
			tags, err := s.resolveTags(cellAt(row, col))
			if err != nil {
				return nil, err
			}
			contact.Tags = tags
		}

		if err := s.contactRepo.Create(contact); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		seen[phone] = true
		result.Imported++
	}

	return result, nil
}

func (s *Service) resolveTags(raw string) ([]models.Tag, error) {
	var tags []models.Tag
	for _, name := range strings.Split(raw, ",") {
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

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
