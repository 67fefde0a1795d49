package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bodyTemplate(text string, variables ...string) *Template {
	return &Template{
		Name:      "order-update",
		Status:    TemplateStatusPending,
		Variables: variables,
		Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: text},
		},
	}
}

func TestTemplateValidate(t *testing.T) {
	t.Run("valid body-only template", func(t *testing.T) {
		tpl := bodyTemplate("Hello {{1}}", "name")
		assert.NoError(t, tpl.Validate())
	})

	t.Run("missing body component", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeFooter, Text: "Reply STOP to opt out"},
		}}
		err := tpl.Validate()
		assert.ErrorContains(t, err, "exactly one body component")
	})

	t.Run("two body components", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: "first"},
			{Type: ComponentTypeBody, Text: "second"},
		}}
		err := tpl.Validate()
		assert.ErrorContains(t, err, "exactly one body component")
	})

	t.Run("empty body text", func(t *testing.T) {
		tpl := bodyTemplate("   ")
		assert.ErrorContains(t, tpl.Validate(), "body text is required")
	})

	t.Run("invalid header format", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeHeader, Format: "audio"},
			{Type: ComponentTypeBody, Text: "hi"},
		}}
		assert.ErrorContains(t, tpl.Validate(), "invalid header format")
	})

	t.Run("format rejected outside header", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: "hi", Format: "text"},
		}}
		assert.ErrorContains(t, tpl.Validate(), "format is only valid on header components")
	})

	t.Run("empty buttons component", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: "hi"},
			{Type: ComponentTypeButtons},
		}}
		assert.ErrorContains(t, tpl.Validate(), "at least one button")
	})

	t.Run("url button without url", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: "hi"},
			{Type: ComponentTypeButtons, Buttons: []TemplateButton{
				{Type: ButtonTypeURL, Text: "Visit"},
			}},
		}}
		assert.ErrorContains(t, tpl.Validate(), "url is required")
	})

	t.Run("phone button without number", func(t *testing.T) {
		tpl := &Template{Components: TemplateComponents{
			{Type: ComponentTypeBody, Text: "hi"},
			{Type: ComponentTypeButtons, Buttons: []TemplateButton{
				{Type: ButtonTypePhoneNumber, Text: "Call us"},
			}},
		}}
		assert.ErrorContains(t, tpl.Validate(), "phone_number is required")
	})

	t.Run("undeclared positional variable", func(t *testing.T) {
		tpl := bodyTemplate("Hi {{1}}, your order {{2}} shipped", "name")
		assert.ErrorContains(t, tpl.Validate(), "positional variables")
	})

	t.Run("repeated marker counts once", func(t *testing.T) {
		tpl := bodyTemplate("{{1}} and {{1}} again", "name")
		assert.NoError(t, tpl.Validate())
	})
}

func TestTemplatePlaceholderCount(t *testing.T) {
	tpl := &Template{Components: TemplateComponents{
		{Type: ComponentTypeHeader, Text: "Order {{2}}"},
		{Type: ComponentTypeBody, Text: "Hi {{1}}, see {{2}}"},
	}}
	assert.Equal(t, 2, tpl.PlaceholderCount())

	empty := &Template{Components: TemplateComponents{
		{Type: ComponentTypeBody, Text: "no markers here"},
	}}
	assert.Equal(t, 0, empty.PlaceholderCount())
}

func TestTemplateRenderContent(t *testing.T) {
	tpl := &Template{Components: TemplateComponents{
		{Type: ComponentTypeHeader, Text: "Order update"},
		{Type: ComponentTypeBody, Text: "Hi {{1}}"},
		{Type: ComponentTypeButtons, Buttons: []TemplateButton{{Type: ButtonTypeQuickReply, Text: "OK"}}},
		{Type: ComponentTypeFooter, Text: "Reply STOP to opt out"},
	}}
	assert.Equal(t, "Order update\nHi {{1}}\nReply STOP to opt out", tpl.RenderContent())
}

func TestTemplateRenderPreview(t *testing.T) {
	tpl := &Template{Components: TemplateComponents{
		{Type: ComponentTypeBody, Text: "Hi {{1}}, order {{2}} is {{3}}"},
	}}

	// Missing values leave the marker intact.
	assert.Equal(t, "Hi Ana, order #42 is {{3}}", tpl.RenderPreview([]string{"Ana", "#42"}))
	assert.Equal(t, "Hi Ana, order #42 is ready", tpl.RenderPreview([]string{"Ana", "#42", "ready"}))
	assert.Equal(t, "Hi {{1}}, order {{2}} is {{3}}", tpl.RenderPreview(nil))
}

func TestTemplateStatusTransitions(t *testing.T) {
	tpl := bodyTemplate("hi")

	assert.NoError(t, tpl.Approve())
	assert.Equal(t, TemplateStatusApproved, tpl.Status)

	// Approved templates cannot be approved or rejected again.
	assert.ErrorIs(t, tpl.Approve(), ErrInvalidTransition)
	assert.ErrorIs(t, tpl.Reject(), ErrInvalidTransition)
	assert.ErrorIs(t, tpl.Resubmit(), ErrInvalidTransition)

	tpl = bodyTemplate("hi")
	assert.NoError(t, tpl.Reject())
	assert.Equal(t, TemplateStatusRejected, tpl.Status)

	// Rejected templates may be resubmitted for another review pass.
	assert.NoError(t, tpl.Resubmit())
	assert.Equal(t, TemplateStatusPending, tpl.Status)
}
