package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNodeData(t *testing.T) {
	tests := []struct {
		name     string
		nodeType string
		data     JSON
		wantErr  string
	}{
		{"keyword trigger", NodeTypeTrigger, JSON{"triggerType": "keyword", "keywords": "hello,hi"}, ""},
		{"keyword trigger without keywords", NodeTypeTrigger, JSON{"triggerType": "keyword"}, "requires keywords"},
		{"time trigger", NodeTypeTrigger, JSON{"triggerType": "time", "schedule": "2026-09-01T10:00:00Z"}, ""},
		{"time trigger bad schedule", NodeTypeTrigger, JSON{"triggerType": "time", "schedule": "tomorrow"}, "invalid schedule"},
		{"event trigger needs no config", NodeTypeTrigger, JSON{"triggerType": "event"}, ""},
		{"unknown trigger type", NodeTypeTrigger, JSON{"triggerType": "cron"}, "invalid trigger type"},

		{"text condition", NodeTypeCondition, JSON{"conditionType": "text_contains", "conditionValue": "order"}, ""},
		{"condition without value", NodeTypeCondition, JSON{"conditionType": "tag_has"}, "requires a value"},
		{"unknown condition type", NodeTypeCondition, JSON{"conditionType": "regex"}, "invalid condition type"},

		{"send action", NodeTypeAction, JSON{"actionType": "send_message", "message": "hi there"}, ""},
		{"send action without message", NodeTypeAction, JSON{"actionType": "send_template"}, "requires a message"},
		{"tag action", NodeTypeAction, JSON{"actionType": "add_tag", "tag": "vip"}, ""},
		{"tag action without tag", NodeTypeAction, JSON{"actionType": "remove_tag"}, "requires a tag"},
		{"unknown action type", NodeTypeAction, JSON{"actionType": "explode"}, "invalid action type"},

		{"delay", NodeTypeDelay, JSON{"delayValue": float64(5), "delayUnit": "minutes"}, ""},
		{"delay zero value", NodeTypeDelay, JSON{"delayValue": float64(0), "delayUnit": "minutes"}, "positive integer"},
		{"delay fractional value", NodeTypeDelay, JSON{"delayValue": 1.5, "delayUnit": "hours"}, "positive integer"},
		{"delay bad unit", NodeTypeDelay, JSON{"delayValue": float64(2), "delayUnit": "weeks"}, "invalid delay unit"},

		{"webhook", NodeTypeWebhook, JSON{"webhookUrl": "https://example.com/hook", "webhookMethod": "POST"}, ""},
		{"webhook without url", NodeTypeWebhook, JSON{"webhookMethod": "GET"}, "requires a url"},
		{"webhook bad method", NodeTypeWebhook, JSON{"webhookUrl": "https://example.com", "webhookMethod": "PATCH"}, "invalid webhook method"},
		{"webhook headers must be json object", NodeTypeWebhook, JSON{"webhookUrl": "https://example.com", "webhookMethod": "POST", "webhookHeaders": "not-json"}, "webhookHeaders"},
		{"webhook with valid headers", NodeTypeWebhook, JSON{"webhookUrl": "https://example.com", "webhookMethod": "POST", "webhookHeaders": `{"X-Token":"abc"}`}, ""},

		{"unknown node type", "loop", JSON{}, "invalid node type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNodeData(tt.nodeType, tt.data)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestFlowFindNodeAndEdge(t *testing.T) {
	flow := &Flow{
		Nodes: FlowNodes{
			{ID: "n1", Type: NodeTypeTrigger},
			{ID: "n2", Type: NodeTypeAction},
		},
		Edges: FlowEdges{
			{ID: "e1", Source: "n1", Target: "n2"},
		},
	}

	assert.NotNil(t, flow.FindNode("n1"))
	assert.Nil(t, flow.FindNode("missing"))

	assert.NotNil(t, flow.FindEdge("n1", "n2"))
	// Direction matters.
	assert.Nil(t, flow.FindEdge("n2", "n1"))
}
