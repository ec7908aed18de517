package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

type GoalHandler struct {
	goals *services.GoalService
	steps *services.StepService
}

func NewGoalHandler(goals *services.GoalService, steps *services.StepService) *GoalHandler {
	return &GoalHandler{
		goals: goals,
		steps: steps,
	}
}

type stepRequest struct {
	Title     string     `json:"title" binding:"required"`
	Order     int        `json:"order"`
	Deadline  *time.Time `json:"deadline"`
	Completed bool       `json:"is_completed"`
}

type createGoalRequest struct {
	Title       string        `json:"title" binding:"required"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Priority    string        `json:"priority"`
	Deadline    *time.Time    `json:"deadline"`
	Steps       []stepRequest `json:"steps"`
}

type updateGoalRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Priority    string         `json:"priority"`
	Deadline    *time.Time     `json:"deadline"`
	Steps       *[]stepRequest `json:"steps"`
}

type updateStepRequest struct {
	Title    string     `json:"title"`
	Order    *int       `json:"order"`
	Deadline *time.Time `json:"deadline"`
}

type goalResponse struct {
	*domain.Goal
	Progress int            `json:"progress"`
	Reward   *domain.Reward `json:"reward,omitempty"`
}

type stepResponse struct {
	*domain.Step
	Reward *domain.Reward `json:"reward,omitempty"`
}

func toDrafts(steps []stepRequest) []domain.StepDraft {
	drafts := make([]domain.StepDraft, 0, len(steps))
	for _, s := range steps {
		drafts = append(drafts, domain.StepDraft{
			Title:     s.Title,
			Order:     s.Order,
			Deadline:  s.Deadline,
			Completed: s.Completed,
		})
	}
	return drafts
}

func newGoalResponse(g *domain.Goal, reward *domain.Reward) goalResponse {
	return goalResponse{Goal: g, Progress: g.Progress(), Reward: reward}
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	goals := router.Group("/goals")
	{
		goals.GET("", h.List)
		goals.POST("", h.Create)
		goals.GET("/:id", h.Get)
		goals.PUT("/:id", h.Update)
		goals.DELETE("/:id", h.Delete)
		goals.POST("/:id/complete", h.Complete)
		goals.POST("/:id/abandon", h.Abandon)
		goals.POST("/:id/steps", h.AddStep)
	}

	steps := router.Group("/steps")
	{
		steps.PUT("/:id", h.UpdateStep)
		steps.DELETE("/:id", h.DeleteStep)
		steps.POST("/:id/complete", h.CompleteStep)
	}
}

// List godoc
// @Summary      List goals
// @Tags         goals
// @Produce      json
// @Param        status    query  string  false  "active, completed or abandoned"
// @Param        priority  query  string  false  "low, medium or high"
// @Param        sort      query  string  false  "deadline"
// @Success      200  {array}  goalResponse
// @Security     BearerAuth
// @Router       /goals [get]
func (h *GoalHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goals, err := h.goals.List(c.Request.Context(), userID, domain.GoalFilter{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		ByDeadline: c.Query("sort") == "deadline",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]goalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalResponse(g, nil))
	}
	c.JSON(http.StatusOK, out)
}

// Create godoc
// @Summary      Create a goal with optional steps
// @Tags         goals
// @Accept       json
// @Produce      json
// @Param        body  body      createGoalRequest  true  "goal"
// @Success      201   {object}  goalResponse
// @Failure      400   {object}  errorResponse
// @Security     BearerAuth
// @Router       /goals [post]
func (h *GoalHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	goal, reward, err := h.goals.Create(c.Request.Context(), services.CreateGoalInput{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		Steps:       toDrafts(req.Steps),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGoalResponse(goal, reward))
}

func (h *GoalHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goal, err := h.goals.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal, nil))
}

// Update replaces the steps only when the body carries a steps array.
func (h *GoalHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := services.UpdateGoalInput{
		ID:          c.Param("id"),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
	}
	if req.Steps != nil {
		input.Steps = toDrafts(*req.Steps)
	}

	goal, err := h.goals.Update(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal, nil))
}

func (h *GoalHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.goals.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Complete godoc
// @Summary      Complete an active goal
// @Tags         goals
// @Produce      json
// @Param        id   path      string  true  "goal id"
// @Success      200  {object}  goalResponse
// @Failure      409  {object}  errorResponse
// @Security     BearerAuth
// @Router       /goals/{id}/complete [post]
func (h *GoalHandler) Complete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goal, reward, err := h.goals.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal, reward))
}

func (h *GoalHandler) Abandon(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	goal, err := h.goals.Abandon(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGoalResponse(goal, nil))
}

func (h *GoalHandler) AddStep(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	step, err := h.steps.Create(c.Request.Context(), services.CreateStepInput{
		GoalID:   c.Param("id"),
		UserID:   userID,
		Title:    req.Title,
		Order:    req.Order,
		Deadline: req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, step)
}

func (h *GoalHandler) UpdateStep(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	step, err := h.steps.Update(c.Request.Context(), services.UpdateStepInput{
		ID:       c.Param("id"),
		UserID:   userID,
		Title:    req.Title,
		Order:    req.Order,
		Deadline: req.Deadline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, step)
}

func (h *GoalHandler) DeleteStep(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.steps.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CompleteStep godoc
// @Summary      Complete a step
// @Description  Completing an already completed step succeeds without a reward.
// @Tags         goals
// @Produce      json
// @Param        id   path      string  true  "step id"
// @Success      200  {object}  stepResponse
// @Security     BearerAuth
// @Router       /steps/{id}/complete [post]
func (h *GoalHandler) CompleteStep(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	step, reward, err := h.steps.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stepResponse{Step: step, Reward: reward})
}
