package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/middleware/auth"
	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/util"
)

type ActivityHandler struct {
	Repo *repo.GormRepo
}

func (h *ActivityHandler) AddActivity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "activity_add")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req struct {
		Category    string `json:"category"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category is required")
	}

	entry := models.ActivityLog{
		Category:    req.Category,
		Description: req.Description,
		UserEmail:   user.Email,
		UserName:    user.Name,
	}
	if err := h.Repo.CreateActivity(ctx, &entry); err != nil {
		l.Error("add_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusCreated, entry)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (h *ActivityHandler) GetActivities(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	filter := repo.ActivityFilter{
		Category:  c.QueryParam("category"),
		UserEmail: c.QueryParam("user_email"),
		StartDate: parseDate(c.QueryParam("start_date")),
		EndDate:   parseDate(c.QueryParam("end_date")),
	}

	logs, total, err := h.Repo.ListActivities(ctx, filter, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  logs,
		"total": total,
	})
}

func (h *ActivityHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.Repo.GetActivityStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, stats)
}
