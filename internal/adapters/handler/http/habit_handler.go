package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

type HabitHandler struct {
	svc  *services.HabitService
	logs *services.HabitLogService
}

func NewHabitHandler(svc *services.HabitService, logs *services.HabitLogService) *HabitHandler {
	return &HabitHandler{
		svc:  svc,
		logs: logs,
	}
}

type createHabitRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Frequency    string `json:"frequency"`
	WeeklyTarget *int   `json:"weekly_target"`
	StartDate    string `json:"start_date"`
}

type updateHabitRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Frequency    string `json:"frequency"`
	WeeklyTarget *int   `json:"weekly_target"`
}

type logHabitRequest struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

type habitResponse struct {
	*domain.Habit
	Reward *domain.Reward `json:"reward,omitempty"`
}

type habitLogResponse struct {
	*domain.HabitLog
	Reward *domain.Reward `json:"reward,omitempty"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.POST("/:id/archive", h.Archive)

		habits.POST("/:id/logs", h.Log)
		habits.GET("/:id/logs", h.ListLogs)
		habits.DELETE("/:id/logs/:date", h.DeleteLog)
	}
}

// Create godoc
// @Summary      Create a habit
// @Tags         habits
// @Accept       json
// @Produce      json
// @Param        body  body      createHabitRequest  true  "habit"
// @Success      201   {object}  habitResponse
// @Failure      400   {object}  errorResponse
// @Security     BearerAuth
// @Router       /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	start, err := optionalDay(req.StartDate)
	if err != nil {
		respondError(c, err)
		return
	}

	habit, reward, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Frequency:    req.Frequency,
		WeeklyTarget: req.WeeklyTarget,
		StartDate:    start,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habitResponse{Habit: habit, Reward: reward})
}

// List godoc
// @Summary      List habits
// @Tags         habits
// @Produce      json
// @Param        archived  query  bool  false  "include archived habits"
// @Success      200  {array}  domain.Habit
// @Security     BearerAuth
// @Router       /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID, c.Query("archived") == "true")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:           c.Param("id"),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Frequency:    req.Frequency,
		WeeklyTarget: req.WeeklyTarget,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Archive(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.Archive(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Log godoc
// @Summary      Log a habit for today or a past date
// @Tags         habits
// @Accept       json
// @Produce      json
// @Param        id    path      string           true   "habit id"
// @Param        body  body      logHabitRequest  false  "optional date (YYYY-MM-DD) and notes"
// @Description  Only a log for today carries a reward. Back-filled days must not precede the habit start.
// @Success      201   {object}  habitLogResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Security     BearerAuth
// @Router       /habits/{id}/logs [post]
func (h *HabitHandler) Log(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req logHabitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	day, err := optionalDay(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}

	entry, reward, err := h.logs.Log(c.Request.Context(), services.LogHabitInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Date:    day,
		Notes:   req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habitLogResponse{HabitLog: entry, Reward: reward})
}

func (h *HabitHandler) ListLogs(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	from, err := optionalDay(c.Query("start_date"))
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := optionalDay(c.Query("end_date"))
	if err != nil {
		respondError(c, err)
		return
	}

	logs, err := h.logs.List(c.Request.Context(), c.Param("id"), userID, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (h *HabitHandler) DeleteLog(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	day, err := domain.ParseDay(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.logs.Delete(c.Request.Context(), c.Param("id"), userID, day); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
