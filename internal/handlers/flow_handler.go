package handlers

import (
	"net/http"
	"strings"

	"github.com/wappdesk/whatsapp-platform-backend/internal/database/repository"
	"github.com/wappdesk/whatsapp-platform-backend/internal/models"
	"github.com/wappdesk/whatsapp-platform-backend/internal/services"
	"github.com/wappdesk/whatsapp-platform-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FlowHandler struct {
	flowService *services.FlowService
}

func NewFlowHandler(db *gorm.DB) *FlowHandler {
	flowRepo := repository.NewFlowRepository(db)

	return &FlowHandler{
		flowService: services.NewFlowService(flowRepo),
	}
}

// CreateFlow godoc
// @Summary Create a new flow
// @Description Create an empty automation flow for the authenticated user
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateFlowRequest true "Create flow request"
// @Success 201 {object} models.Flow
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows [post]
func (h *FlowHandler) CreateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	flow, err := h.flowService.CreateFlow(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, flow)
}

// GetFlows godoc
// @Summary List flows
// @Description Get the authenticated user's flows with pagination
// @Tags flows
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param search query string false "Search by name"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows [get]
func (h *FlowHandler) GetFlows(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	page, limit := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("limit"))

	flows, pagination, err := h.flowService.ListFlows(userID, page, limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get flows", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": flows, "pagination": pagination})
}

// GetFlow godoc
// @Summary Get a flow by ID
// @Description Get a specific flow with its nodes and edges
// @Tags flows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} models.Flow
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [get]
func (h *FlowHandler) GetFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	flow, err := h.flowService.GetFlow(userID, flowID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, flow)
}

// UpdateFlow godoc
// @Summary Update flow metadata
// @Description Update a flow's name, description or triggers
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body models.UpdateFlowRequest true "Update flow request"
// @Success 200 {object} models.Flow
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [put]
func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req models.UpdateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	flow, err := h.flowService.UpdateFlow(userID, flowID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, flow)
}

// DeleteFlow godoc
// @Summary Delete a flow
// @Description Delete a flow owned by the authenticated user
// @Tags flows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id} [delete]
func (h *FlowHandler) DeleteFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	if err := h.flowService.DeleteFlow(userID, flowID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Flow deleted successfully"})
}

// AddNode godoc
// @Summary Add a node to a flow
// @Description Append a typed node to the flow graph; the node id is assigned by the server
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body models.AddNodeRequest true "Add node request"
// @Success 201 {object} models.FlowNode
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes [post]
func (h *FlowHandler) AddNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req models.AddNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	node, err := h.flowService.AddNode(userID, flowID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		if strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "requires") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add node", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, node)
}

// UpdateNode godoc
// @Summary Update a flow node
// @Description Merge a partial data payload into a node; the merged result must still be valid for the node type
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param nodeId path string true "Node ID"
// @Param request body models.UpdateNodeDataRequest true "Update node request"
// @Success 200 {object} models.FlowNode
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes/{nodeId} [put]
func (h *FlowHandler) UpdateNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")
	nodeID := c.Param("nodeId")

	var req models.UpdateNodeDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	node, err := h.flowService.UpdateNodeData(userID, flowID, nodeID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "invalid") || strings.Contains(err.Error(), "requires") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update node", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, node)
}

// DeleteNode godoc
// @Summary Delete a flow node
// @Description Remove a node and every edge touching it
// @Tags flows
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param nodeId path string true "Node ID"
// @Success 200 {object} models.Flow
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/nodes/{nodeId} [delete]
func (h *FlowHandler) DeleteNode(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")
	nodeID := c.Param("nodeId")

	flow, err := h.flowService.RemoveNode(userID, flowID, nodeID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete node", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, flow)
}

// ConnectNodes godoc
// @Summary Connect two flow nodes
// @Description Add a directed edge between two nodes; connecting the same pair twice returns the existing edge
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body models.ConnectNodesRequest true "Connect nodes request"
// @Success 201 {object} models.FlowEdge
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/connect [post]
func (h *FlowHandler) ConnectNodes(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req models.ConnectNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	edge, err := h.flowService.ConnectNodes(userID, flowID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if strings.Contains(err.Error(), "cannot connect") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect nodes", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, edge)
}

// ActivateFlow godoc
// @Summary Activate or deactivate a flow
// @Description Toggle whether the flow responds to its triggers; activation requires at least one trigger
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Param request body map[string]interface{} true "Activation request"
// @Success 200 {object} models.Flow
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/activate [post]
func (h *FlowHandler) ActivateFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	flow, err := h.flowService.SetActive(userID, flowID, *req.IsActive)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		if strings.Contains(err.Error(), "no trigger") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, flow)
}

// ExecuteFlow godoc
// @Summary Queue a flow execution
// @Description Record a run request for an active flow; execution is asynchronous
// @Tags flows
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Flow ID"
// @Success 202 {object} models.FlowExecution
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/flows/{id}/execute [post]
func (h *FlowHandler) ExecuteFlow(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	flowID := c.Param("id")

	var req struct {
		ContactID string      `json:"contact_id"`
		Input     models.JSON `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	execution, err := h.flowService.Execute(userID, flowID, req.ContactID, req.Input)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
			return
		}
		if strings.Contains(err.Error(), "not active") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, execution)
}
