package services

import (
	"testing"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFlowService(db *gorm.DB) *FlowService {
	return NewFlowService(repository.NewFlowRepository(db))
}

func TestFlowServiceNodes(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newFlowService(db)

	flow, err := svc.CreateFlow(user.ID, &models.CreateFlowRequest{Name: "welcome flow"})
	require.NoError(t, err)
	assert.False(t, flow.IsActive)

	trigger, err := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeTrigger,
		Data: models.JSON{"triggerType": "keyword", "keywords": "hi"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, trigger.ID)

	// New nodes land at a randomized canvas position, never the origin.
	assert.GreaterOrEqual(t, trigger.Position.X, float64(100))
	assert.Less(t, trigger.Position.X, float64(500))
	assert.GreaterOrEqual(t, trigger.Position.Y, float64(100))
	assert.Less(t, trigger.Position.Y, float64(400))

	_, err = svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeAction,
		Data: models.JSON{"actionType": "send_message"},
	})
	assert.ErrorContains(t, err, "requires a message")

	action, err := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeAction,
		Data: models.JSON{"actionType": "send_message", "message": "welcome!"},
	})
	require.NoError(t, err)

	// Partial data merges into the existing payload.
	updated, err := svc.UpdateNodeData(user.ID, flow.ID, action.ID, &models.UpdateNodeDataRequest{
		Data: models.JSON{"message": "welcome aboard!"},
	})
	require.NoError(t, err)
	assert.Equal(t, "welcome aboard!", updated.Data["message"])
	assert.Equal(t, "send_message", updated.Data["actionType"])

	// A merge that breaks validation is rejected.
	_, err = svc.UpdateNodeData(user.ID, flow.ID, action.ID, &models.UpdateNodeDataRequest{
		Data: models.JSON{"actionType": "add_tag"},
	})
	assert.ErrorContains(t, err, "requires a tag")
}

func TestFlowServiceConnectNodes(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newFlowService(db)

	flow, err := svc.CreateFlow(user.ID, &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	a, err := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeTrigger,
		Data: models.JSON{"triggerType": "event"},
	})
	require.NoError(t, err)
	b, err := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeAction,
		Data: models.JSON{"actionType": "add_tag", "tag": "engaged"},
	})
	require.NoError(t, err)

	edge, err := svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: a.ID, Target: b.ID})
	require.NoError(t, err)

	// Connecting the same pair again returns the existing edge.
	again, err := svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: a.ID, Target: b.ID})
	require.NoError(t, err)
	assert.Equal(t, edge.ID, again.ID)

	loaded, err := svc.GetFlow(user.ID, flow.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Edges, 1)

	_, err = svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: a.ID, Target: a.ID})
	assert.ErrorContains(t, err, "cannot connect a node to itself")

	_, err = svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: a.ID, Target: "missing"})
	assert.ErrorContains(t, err, "node not found")
}

func TestFlowServiceRemoveNodeDropsEdges(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newFlowService(db)

	flow, err := svc.CreateFlow(user.ID, &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	a, _ := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeTrigger, Data: models.JSON{"triggerType": "event"},
	})
	b, _ := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeDelay, Data: models.JSON{"delayValue": float64(1), "delayUnit": "hours"},
	})
	c, _ := svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeAction, Data: models.JSON{"actionType": "add_tag", "tag": "t"},
	})
	_, err = svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: a.ID, Target: b.ID})
	require.NoError(t, err)
	_, err = svc.ConnectNodes(user.ID, flow.ID, &models.ConnectNodesRequest{Source: b.ID, Target: c.ID})
	require.NoError(t, err)

	updated, err := svc.RemoveNode(user.ID, flow.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Nodes, 2)
	// Both edges touched the removed node.
	assert.Empty(t, updated.Edges)
}

func TestFlowServiceActivationAndExecute(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "owner@example.com")
	svc := newFlowService(db)

	flow, err := svc.CreateFlow(user.ID, &models.CreateFlowRequest{Name: "f"})
	require.NoError(t, err)

	_, err = svc.SetActive(user.ID, flow.ID, true)
	assert.ErrorContains(t, err, "no trigger")

	_, err = svc.Execute(user.ID, flow.ID, "", nil)
	assert.ErrorContains(t, err, "not active")

	_, err = svc.AddNode(user.ID, flow.ID, &models.AddNodeRequest{
		Type: models.NodeTypeTrigger,
		Data: models.JSON{"triggerType": "keyword", "keywords": "start"},
	})
	require.NoError(t, err)

	activated, err := svc.SetActive(user.ID, flow.ID, true)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	exec, err := svc.Execute(user.ID, flow.ID, "", models.JSON{"text": "start"})
	require.NoError(t, err)
	assert.Equal(t, "queued", exec.Status)
	assert.Equal(t, flow.ID, exec.FlowID)

	deactivated, err := svc.SetActive(user.ID, flow.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
}
