package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

type StatsHandler struct {
	stats      *services.StatsService
	habitStats *services.HabitStatsService
	badges     *services.BadgeRegistry
}

func NewStatsHandler(stats *services.StatsService, habitStats *services.HabitStatsService, badges *services.BadgeRegistry) *StatsHandler {
	return &StatsHandler{
		stats:      stats,
		habitStats: habitStats,
		badges:     badges,
	}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/stats")
	{
		stats.GET("/global", h.Global)
		stats.GET("/goals/categories", h.GoalCategories)
		stats.GET("/habits", h.PerHabit)
	}

	router.GET("/habits/:id/stats", h.Habit)
	router.GET("/dashboard", h.Dashboard)
	router.GET("/xp/me", h.XP)
	router.GET("/badges", h.Catalog)
	router.GET("/badges/me", h.MyBadges)
}

// Global godoc
// @Summary      Goal completion rate and habit totals
// @Tags         stats
// @Produce      json
// @Success      200  {object}  domain.GlobalStats
// @Security     BearerAuth
// @Router       /stats/global [get]
func (h *StatsHandler) Global(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.GlobalStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) GoalCategories(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.GoalStatsByCategory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) PerHabit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.stats.PerHabitStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Habit godoc
// @Summary      Streak and completion rate of one habit
// @Tags         stats
// @Produce      json
// @Param        id   path      string  true  "habit id"
// @Success      200  {object}  domain.HabitStats
// @Failure      404  {object}  errorResponse
// @Security     BearerAuth
// @Router       /habits/{id}/stats [get]
func (h *StatsHandler) Habit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.habitStats.HabitStats(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	dash, err := h.stats.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// XP godoc
// @Summary      Current xp, level and next threshold
// @Tags         gamification
// @Produce      json
// @Success      200  {object}  domain.UserXP
// @Security     BearerAuth
// @Router       /xp/me [get]
func (h *StatsHandler) XP(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	xp, err := h.stats.UserXP(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, xp)
}

func (h *StatsHandler) Catalog(c *gin.Context) {
	badges, err := h.badges.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

func (h *StatsHandler) MyBadges(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	badges, err := h.badges.UserBadges(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}
