package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template statuses
const (
	TemplateStatusPending  = "pending"
	TemplateStatusApproved = "approved"
	TemplateStatusRejected = "rejected"
)

// Template types
const (
	TemplateTypeText        = "text"
	TemplateTypeMedia       = "media"
	TemplateTypeInteractive = "interactive"
)

// Template categories
const (
	TemplateCategoryGeneral    = "general"
	TemplateCategoryMarketing  = "marketing"
	TemplateCategoryOrders     = "orders"
	TemplateCategorySupport    = "support"
	TemplateCategoryOnboarding = "onboarding"
)

// Template component types
const (
	ComponentTypeHeader  = "header"
	ComponentTypeBody    = "body"
	ComponentTypeFooter  = "footer"
	ComponentTypeButtons = "buttons"
)

// Template button types
const (
	ButtonTypeQuickReply  = "quick_reply"
	ButtonTypeURL         = "url"
	ButtonTypePhoneNumber = "phone_number"
)

// ErrInvalidTransition is returned when a status transition is attempted from
// a state it is not valid in.
var ErrInvalidTransition = errors.New("invalid template status transition")

var placeholderPattern = regexp.MustCompile(`\{\{(\d+)\}\}`)

// TemplateButton is one button inside a buttons component
type TemplateButton struct {
	Type        string `json:"type"` // quick_reply, url, phone_number
	Text        string `json:"text"`
	URL         string `json:"url,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// TemplateComponent is one structural part of a template. Type is the
// discriminant: header/body/footer carry Text (header optionally a Format),
// buttons carries Buttons.
type TemplateComponent struct {
	Type    string           `json:"type"`
	Format  string           `json:"format,omitempty"` // header only: text, image, video, document
	Text    string           `json:"text,omitempty"`
	Buttons []TemplateButton `json:"buttons,omitempty"`
}

// TemplateComponents is the ordered component list, stored as jsonb
type TemplateComponents []TemplateComponent

// Value implements driver.Valuer
func (c TemplateComponents) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *TemplateComponents) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for components scan")
	}
	return json.Unmarshal(data, c)
}

// StringList is an ordered list of strings stored as jsonb
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for string list scan")
	}
	return json.Unmarshal(data, l)
}

// Template represents a reusable message content definition that must pass
// admin approval before it can be used in campaigns.
type Template struct {
	ID         string             `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt  time.Time          `json:"created_at" gorm:"index"`
	UpdatedAt  time.Time          `json:"updated_at"`
	UserID     string             `json:"user_id" gorm:"not null;index;type:uuid"`
	Name       string             `json:"name" gorm:"type:varchar(255);not null"`
	Content    string             `json:"content" gorm:"type:text"`
	Type       string             `json:"type" gorm:"type:varchar(20);default:'text'"`
	Status     string             `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Category   string             `json:"category" gorm:"type:varchar(50);default:'general';index"`
	Language   string             `json:"language" gorm:"type:varchar(10);default:'en'"`
	Variables  StringList         `json:"variables" gorm:"type:jsonb"`
	Components TemplateComponents `json:"components" gorm:"type:jsonb"`

	// Set when an admin rejects the template, cleared on edit or resubmit
	RejectionReason string `json:"rejection_reason,omitempty" gorm:"type:text"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Template model
func (Template) TableName() string {
	return "templates"
}

// Validate checks the component list against submission rules:
// exactly one body component, non-empty buttons components, url buttons with
// a url, phone_number buttons with a phone number, header formats only on
// headers, and no positional marker beyond the declared variable count.
func (t *Template) Validate() error {
	bodyCount := 0
	for i, comp := range t.Components {
		switch comp.Type {
		case ComponentTypeBody:
			bodyCount++
			if strings.TrimSpace(comp.Text) == "" {
				return fmt.Errorf("component %d: body text is required", i)
			}
		case ComponentTypeHeader:
			switch comp.Format {
			case "", "text", "image", "video", "document":
			default:
				return fmt.Errorf("component %d: invalid header format %q", i, comp.Format)
			}
		case ComponentTypeFooter:
		case ComponentTypeButtons:
			if len(comp.Buttons) == 0 {
				return fmt.Errorf("component %d: buttons component must have at least one button", i)
			}
			for j, btn := range comp.Buttons {
				switch btn.Type {
				case ButtonTypeQuickReply:
				case ButtonTypeURL:
					if strings.TrimSpace(btn.URL) == "" {
						return fmt.Errorf("component %d button %d: url is required for url buttons", i, j)
					}
				case ButtonTypePhoneNumber:
					if strings.TrimSpace(btn.PhoneNumber) == "" {
						return fmt.Errorf("component %d button %d: phone_number is required for phone_number buttons", i, j)
					}
				default:
					return fmt.Errorf("component %d button %d: invalid button type %q", i, j, btn.Type)
				}
				if strings.TrimSpace(btn.Text) == "" {
					return fmt.Errorf("component %d button %d: button text is required", i, j)
				}
			}
		default:
			return fmt.Errorf("component %d: invalid component type %q", i, comp.Type)
		}
		if comp.Type != ComponentTypeHeader && comp.Format != "" {
			return fmt.Errorf("component %d: format is only valid on header components", i)
		}
	}
	if bodyCount != 1 {
		return fmt.Errorf("template must contain exactly one body component, found %d", bodyCount)
	}
	if n := t.PlaceholderCount(); n > len(t.Variables) {
		return fmt.Errorf("template references %d positional variables but only %d are declared", n, len(t.Variables))
	}
	return nil
}

// PlaceholderCount returns the number of distinct positional {{n}} markers
// across all component texts.
func (t *Template) PlaceholderCount() int {
	seen := map[int]bool{}
	for _, comp := range t.Components {
		for _, m := range placeholderPattern.FindAllStringSubmatch(comp.Text, -1) {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				seen[n] = true
			}
		}
	}
	return len(seen)
}

// RenderContent produces the denormalized content string: non-empty component
// texts joined by newlines, in list order. Order must be preserved exactly
// for display parity with the dashboard preview.
func (t *Template) RenderContent() string {
	var parts []string
	for _, comp := range t.Components {
		if comp.Text != "" {
			parts = append(parts, comp.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// RenderPreview substitutes positional markers with the given values.
// Values map to markers by position: values[0] replaces {{1}} and so on.
// Markers without a value are left intact.
func (t *Template) RenderPreview(values []string) string {
	content := t.RenderContent()
	return placeholderPattern.ReplaceAllStringFunc(content, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 || n > len(values) {
			return m
		}
		return values[n-1]
	})
}

// Approve transitions the template from pending to approved.
func (t *Template) Approve() error {
	if t.Status != TemplateStatusPending {
		return fmt.Errorf("%w: cannot approve template in status %q", ErrInvalidTransition, t.Status)
	}
	t.Status = TemplateStatusApproved
	return nil
}

// Reject transitions the template from pending to rejected.
func (t *Template) Reject() error {
	if t.Status != TemplateStatusPending {
		return fmt.Errorf("%w: cannot reject template in status %q", ErrInvalidTransition, t.Status)
	}
	t.Status = TemplateStatusRejected
	return nil
}

// Resubmit returns a rejected template to pending for another review pass.
func (t *Template) Resubmit() error {
	if t.Status != TemplateStatusRejected {
		return fmt.Errorf("%w: cannot resubmit template in status %q", ErrInvalidTransition, t.Status)
	}
	t.Status = TemplateStatusPending
	return nil
}

// CreateTemplateRequest represents the request to create a new template
type CreateTemplateRequest struct {
	Name       string             `json:"name" binding:"required"`
	Type       string             `json:"type" binding:"omitempty,oneof=text media interactive"`
	Category   string             `json:"category" binding:"omitempty,oneof=general marketing orders support onboarding"`
	Language   string             `json:"language,omitempty"`
	Variables  []string           `json:"variables,omitempty"`
	Components TemplateComponents `json:"components" binding:"required"`
}

// UpdateTemplateRequest represents the request to update a template
type UpdateTemplateRequest struct {
	Name       string             `json:"name,omitempty"`
	Type       string             `json:"type,omitempty" binding:"omitempty,oneof=text media interactive"`
	Category   string             `json:"category,omitempty" binding:"omitempty,oneof=general marketing orders support onboarding"`
	Language   string             `json:"language,omitempty"`
	Variables  []string           `json:"variables,omitempty"`
	Components TemplateComponents `json:"components,omitempty"`
}

// UpdateTemplateStatusRequest represents an admin status transition request
type UpdateTemplateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Reason string `json:"reason,omitempty"`
}

// PreviewTemplateRequest represents a preview rendering request
type PreviewTemplateRequest struct {
	Values []string `json:"values,omitempty"`
}

// TemplateListQuery represents list filter parameters for templates
type TemplateListQuery struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	Category string
}
