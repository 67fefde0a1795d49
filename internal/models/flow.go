package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Flow node types
const (
	NodeTypeTrigger   = "trigger"
	NodeTypeCondition = "condition"
	NodeTypeAction    = "action"
	NodeTypeDelay     = "delay"
	NodeTypeWebhook   = "webhook"
)

// FlowPosition is the 2-D canvas position of a node. Presentation only.
type FlowPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FlowNode is one node of a flow graph. Data is a tagged payload whose valid
// keys depend on Type; ValidateNodeData checks it at construction.
type FlowNode struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position FlowPosition `json:"position"`
	Data     JSON         `json:"data"`
}

// FlowEdge connects two nodes by id
type FlowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// FlowNodes is the node list, stored as jsonb
type FlowNodes []FlowNode

// Value implements driver.Valuer
func (n FlowNodes) Value() (driver.Value, error) {
	if n == nil {
		return json.Marshal([]FlowNode{})
	}
	return json.Marshal(n)
}

// Scan implements sql.Scanner
func (n *FlowNodes) Scan(value interface{}) error {
	return scanJSON(value, n)
}

// FlowEdges is the edge list, stored as jsonb
type FlowEdges []FlowEdge

// Value implements driver.Valuer
func (e FlowEdges) Value() (driver.Value, error) {
	if e == nil {
		return json.Marshal([]FlowEdge{})
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner
func (e *FlowEdges) Scan(value interface{}) error {
	return scanJSON(value, e)
}

// FlowTrigger describes what starts a flow
type FlowTrigger struct {
	Type   string `json:"type"` // keyword, time, event, webhook
	Config JSON   `json:"config,omitempty"`
}

// FlowTriggers is the trigger list, stored as jsonb
type FlowTriggers []FlowTrigger

// Value implements driver.Valuer
func (t FlowTriggers) Value() (driver.Value, error) {
	if t == nil {
		return json.Marshal([]FlowTrigger{})
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *FlowTriggers) Scan(value interface{}) error {
	return scanJSON(value, t)
}

func scanJSON(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for jsonb scan")
	}
	return json.Unmarshal(data, dest)
}

// Flow represents an automation flow: a directed graph of typed nodes.
// Node and edge ids are server-assigned UUIDs so concurrent editors can
// never collide.
type Flow struct {
	ID          string       `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt   time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time    `json:"updated_at"`
	UserID      string       `json:"user_id" gorm:"not null;index;type:uuid"`
	Name        string       `json:"name" gorm:"type:varchar(255);not null"`
	Description string       `json:"description,omitempty" gorm:"type:text"`
	Nodes       FlowNodes    `json:"nodes" gorm:"type:jsonb"`
	Edges       FlowEdges    `json:"edges" gorm:"type:jsonb"`
	Triggers    FlowTriggers `json:"triggers" gorm:"type:jsonb"`
	IsActive    bool         `json:"is_active" gorm:"default:false;index"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the Flow model
func (Flow) TableName() string {
	return "flows"
}

// FindNode returns the node with the given id, or nil
func (f *Flow) FindNode(nodeID string) *FlowNode {
	for i := range f.Nodes {
		if f.Nodes[i].ID == nodeID {
			return &f.Nodes[i]
		}
	}
	return nil
}

// FindEdge returns the edge with the given source/target pair, or nil.
// Equality is id-qualified structural equality, so a second connect with the
// same endpoints is detected as a duplicate.
func (f *Flow) FindEdge(source, target string) *FlowEdge {
	for i := range f.Edges {
		if f.Edges[i].Source == source && f.Edges[i].Target == target {
			return &f.Edges[i]
		}
	}
	return nil
}

// ValidateNodeData checks a node payload against its type discriminant.
func ValidateNodeData(nodeType string, data JSON) error {
	str := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	switch nodeType {
	case NodeTypeTrigger:
		switch str("triggerType") {
		case "keyword":
			if strings.TrimSpace(str("keywords")) == "" {
				return errors.New("keyword trigger requires keywords")
			}
		case "time":
			schedule := str("schedule")
			if schedule == "" {
				return errors.New("time trigger requires a schedule")
			}
			if _, err := time.Parse(time.RFC3339, schedule); err != nil {
				return fmt.Errorf("invalid schedule: %v", err)
			}
		case "event", "webhook":
		default:
			return fmt.Errorf("invalid trigger type %q", str("triggerType"))
		}
	case NodeTypeCondition:
		switch str("conditionType") {
		case "text_contains", "text_equals", "user_attribute", "tag_has":
			if str("conditionValue") == "" {
				return errors.New("condition requires a value")
			}
		default:
			return fmt.Errorf("invalid condition type %q", str("conditionType"))
		}
	case NodeTypeAction:
		switch str("actionType") {
		case "send_message", "send_template":
			if str("message") == "" {
				return errors.New("send action requires a message")
			}
		case "add_tag", "remove_tag":
			if str("tag") == "" {
				return errors.New("tag action requires a tag")
			}
		case "update_attribute":
		default:
			return fmt.Errorf("invalid action type %q", str("actionType"))
		}
	case NodeTypeDelay:
		value, ok := data["delayValue"].(float64)
		if !ok || value <= 0 || value != float64(int(value)) {
			return errors.New("delay requires a positive integer delayValue")
		}
		switch str("delayUnit") {
		case "seconds", "minutes", "hours", "days":
		default:
			return fmt.Errorf("invalid delay unit %q", str("delayUnit"))
		}
	case NodeTypeWebhook:
		if str("webhookUrl") == "" {
			return errors.New("webhook node requires a url")
		}
		switch str("webhookMethod") {
		case "GET", "POST", "PUT", "DELETE":
		default:
			return fmt.Errorf("invalid webhook method %q", str("webhookMethod"))
		}
		if headers := str("webhookHeaders"); headers != "" {
			var parsed map[string]string
			if err := json.Unmarshal([]byte(headers), &parsed); err != nil {
				return fmt.Errorf("webhookHeaders must be a JSON object of strings: %v", err)
			}
		}
	default:
		return fmt.Errorf("invalid node type %q", nodeType)
	}
	return nil
}

// CreateFlowRequest represents the request to create a new flow
type CreateFlowRequest struct {
	Name        string       `json:"name" binding:"required"`
	Description string       `json:"description,omitempty"`
	Triggers    FlowTriggers `json:"triggers,omitempty"`
}

// UpdateFlowRequest represents the request to update flow metadata
type UpdateFlowRequest struct {
	Name        string       `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Triggers    FlowTriggers `json:"triggers,omitempty"`
}

// AddNodeRequest represents the request to append a node to a flow
type AddNodeRequest struct {
	Type string `json:"type" binding:"required,oneof=trigger condition action delay webhook"`
	Data JSON   `json:"data" binding:"required"`
}

// UpdateNodeDataRequest carries a partial data payload to merge into a node
type UpdateNodeDataRequest struct {
	Data JSON `json:"data" binding:"required"`
}

// ConnectNodesRequest represents the request to add an edge
type ConnectNodesRequest struct {
	Source string `json:"source" binding:"required"`
	Target string `json:"target" binding:"required"`
}

// FlowExecution records a requested run of a flow. The execution engine is a
// separate concern; rows here are the queue of requests it would consume.
type FlowExecution struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	FlowID    string    `json:"flow_id" gorm:"not null;index;type:uuid"`
	UserID    string    `json:"user_id" gorm:"not null;index;type:uuid"`
	ContactID string    `json:"contact_id,omitempty" gorm:"type:uuid"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'queued'"`
	Input     JSON      `json:"input,omitempty" gorm:"type:jsonb"`

	// Relationships
	Flow Flow `json:"-" gorm:"foreignKey:FlowID;references:ID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate is a GORM hook that runs before creating a new record
func (e *FlowExecution) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for the FlowExecution model
func (FlowExecution) TableName() string {
	return "flow_executions"
}
