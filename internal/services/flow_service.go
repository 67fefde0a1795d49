package services

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlowService struct {
	flowRepo *repository.FlowRepository
}

func NewFlowService(flowRepo *repository.FlowRepository) *FlowService {
	return &FlowService{
		flowRepo: flowRepo,
	}
}

// CreateFlow creates an empty flow for a user
func (s *FlowService) CreateFlow(userID string, req *models.CreateFlowRequest) (*models.Flow, error) {
	flow := &models.Flow{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Nodes:       models.FlowNodes{},
		Edges:       models.FlowEdges{},
		Triggers:    req.Triggers,
		IsActive:    false,
	}
	if flow.Triggers == nil {
		flow.Triggers = models.FlowTriggers{}
	}

	if err := s.flowRepo.Create(flow); err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}
	return flow, nil
}

// GetFlow retrieves a single flow owned by the user
func (s *FlowService) GetFlow(userID, flowID string) (*models.Flow, error) {
	flow, err := s.flowRepo.GetByUserIDAndID(userID, flowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("flow not found")
		}
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}
	return flow, nil
}

// ListFlows retrieves the user's flows with pagination
func (s *FlowService) ListFlows(userID string, page, limit int, search string) ([]*models.Flow, *utils.Pagination, error) {
	flows, total, err := s.flowRepo.List(userID, page, limit, search)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list flows: %w", err)
	}
	pagination := utils.NewPagination(page, limit, total)
	return flows, pagination, nil
}

// UpdateFlow updates flow metadata
func (s *FlowService) UpdateFlow(userID, flowID string, req *models.UpdateFlowRequest) (*models.Flow, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		flow.Name = req.Name
	}
	if req.Description != nil {
		flow.Description = *req.Description
	}
	if req.Triggers != nil {
		flow.Triggers = req.Triggers
	}

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return flow, nil
}

// DeleteFlow removes a flow owned by the user
func (s *FlowService) DeleteFlow(userID, flowID string) error {
	if _, err := s.GetFlow(userID, flowID); err != nil {
		return err
	}
	if err := s.flowRepo.DeleteByUserIDAndID(userID, flowID); err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

// AddNode appends a node to the flow graph. The node id is assigned here,
// the canvas position gets a random offset so stacked nodes stay visible,
// and the data payload is validated against the node type.
func (s *FlowService) AddNode(userID, flowID string, req *models.AddNodeRequest) (*models.FlowNode, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if err := models.ValidateNodeData(req.Type, req.Data); err != nil {
		return nil, err
	}

	node := models.FlowNode{
		ID:   uuid.New().String(),
		Type: req.Type,
		Position: models.FlowPosition{
			X: float64(100 + rand.Intn(400)),
			Y: float64(100 + rand.Intn(300)),
		},
		Data: req.Data,
	}
	flow.Nodes = append(flow.Nodes, node)

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return &node, nil
}

// UpdateNodeData merges a partial payload into a node's data. The merged
// result must still validate against the node's type.
func (s *FlowService) UpdateNodeData(userID, flowID, nodeID string, req *models.UpdateNodeDataRequest) (*models.FlowNode, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	node := flow.FindNode(nodeID)
	if node == nil {
		return nil, errors.New("node not found")
	}

	merged := models.JSON{}
	for k, v := range node.Data {
		merged[k] = v
	}
	for k, v := range req.Data {
		merged[k] = v
	}
	if err := models.ValidateNodeData(node.Type, merged); err != nil {
		return nil, err
	}
	node.Data = merged

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return node, nil
}

// RemoveNode deletes a node and every edge touching it
func (s *FlowService) RemoveNode(userID, flowID, nodeID string) (*models.Flow, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if flow.FindNode(nodeID) == nil {
		return nil, errors.New("node not found")
	}

	nodes := flow.Nodes[:0]
	for _, n := range flow.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	flow.Nodes = nodes

	edges := flow.Edges[:0]
	for _, e := range flow.Edges {
		if e.Source != nodeID && e.Target != nodeID {
			edges = append(edges, e)
		}
	}
	flow.Edges = edges

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return flow, nil
}

// ConnectNodes adds a directed edge between two existing nodes. Connecting
// the same pair twice returns the existing edge unchanged.
func (s *FlowService) ConnectNodes(userID, flowID string, req *models.ConnectNodesRequest) (*models.FlowEdge, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if req.Source == req.Target {
		return nil, errors.New("cannot connect a node to itself")
	}
	if flow.FindNode(req.Source) == nil || flow.FindNode(req.Target) == nil {
		return nil, errors.New("node not found")
	}

	if existing := flow.FindEdge(req.Source, req.Target); existing != nil {
		return existing, nil
	}

	edge := models.FlowEdge{
		ID:     uuid.New().String(),
		Source: req.Source,
		Target: req.Target,
	}
	flow.Edges = append(flow.Edges, edge)

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return &edge, nil
}

// SetActive toggles whether the flow responds to its triggers. Activation
// requires at least one trigger node or declared trigger.
func (s *FlowService) SetActive(userID, flowID string, active bool) (*models.Flow, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}

	if active && !hasTrigger(flow) {
		return nil, errors.New("flow has no trigger")
	}
	flow.IsActive = active

	if err := s.flowRepo.Update(flow); err != nil {
		return nil, fmt.Errorf("failed to update flow: %w", err)
	}
	return flow, nil
}

// Execute queues a run of an active flow. The run is recorded for the
// execution engine to pick up; this call never waits on it.
func (s *FlowService) Execute(userID, flowID, contactID string, input models.JSON) (*models.FlowExecution, error) {
	flow, err := s.GetFlow(userID, flowID)
	if err != nil {
		return nil, err
	}
	if !flow.IsActive {
		return nil, errors.New("flow is not active")
	}

	execution := &models.FlowExecution{
		FlowID:    flow.ID,
		UserID:    userID,
		ContactID: contactID,
		Status:    "queued",
		Input:     input,
	}
	if err := s.flowRepo.CreateExecution(execution); err != nil {
		return nil, fmt.Errorf("failed to queue flow execution: %w", err)
	}
	return execution, nil
}

func hasTrigger(flow *models.Flow) bool {
	if len(flow.Triggers) > 0 {
		return true
	}
	for _, n := range flow.Nodes {
		if n.Type == models.NodeTypeTrigger {
			return true
		}
	}
	return false
}
