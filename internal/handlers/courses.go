package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/assets"
	"github.com/skillsharecyber/courseplatform/internal/events"
	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/middleware/auth"
	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/repo"
	"github.com/skillsharecyber/courseplatform/internal/service/search"
	"github.com/skillsharecyber/courseplatform/internal/util"
)

const passPercent = 80

type CourseHandler struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
	Uploader assets.Uploader
	ES       *elasticsearch.Client
}

type courseRequest struct {
	CourseName             string   `json:"course_name" form:"course_name"`
	Price                  *float64 `json:"price" form:"price"`
	Description            string   `json:"description" form:"description"`
	ThumbnailURL           string   `json:"thumbnail_url" form:"thumbnail_url"`
	VideoURL               string   `json:"video_url" form:"video_url"`
	PPTURL                 string   `json:"ppt_url" form:"ppt_url"`
	CertificateTemplateURL string   `json:"certificate_template_url" form:"certificate_template_url"`
	// Bound by hand: echo's form binder cannot bind raw JSON, and multipart
	// clients send questions as a stringified array next to the file fields.
	Questions json.RawMessage `json:"questions" form:"-"`
}

// bindQuestions picks up a questions payload sent as a form value, which the
// JSON bind path never sees.
func (req *courseRequest) bindQuestions(c echo.Context) {
	if len(req.Questions) == 0 {
		if v := c.FormValue("questions"); v != "" {
			req.Questions = json.RawMessage(v)
		}
	}
}

func validQuestions(questions []models.Question) bool {
	for _, q := range questions {
		if q.Text == "" || len(q.Options) != 4 || q.CorrectIndex < 0 || q.CorrectIndex > 3 {
			return false
		}
	}
	return true
}

func parseQuestions(raw json.RawMessage) ([]models.Question, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var questions []models.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, err
	}
	if !validQuestions(questions) {
		return nil, errors.New("questions invalid shape")
	}
	return questions, nil
}

func (h *CourseHandler) publish(c echo.Context, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, topic, fmt.Sprint(event["courseID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// uploadField replaces an asset URL with a freshly uploaded file when the
// request carries one under the given multipart field.
func (h *CourseHandler) uploadField(c echo.Context, field, name string, dst *string) error {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	if h.Uploader == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "uploads not configured")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer f.Close()

	url, err := h.Uploader.Upload(c.Request().Context(), f, name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "upload failed")
	}
	*dst = url
	return nil
}

func (h *CourseHandler) ListCourses(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	offset, limit := util.Calculate(page, size)

	courses, total, err := h.Repo.ListCourses(ctx, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":  courses,
		"total": total,
	})
}

// GetCourse returns the course with questions stripped of the correct answer.
func (h *CourseHandler) GetCourse(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}
	course, err := h.Repo.FindCourseByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "course not found")
	}

	public := make([]models.PublicQuestion, len(course.Questions))
	for i, q := range course.Questions {
		public[i] = models.PublicQuestion{Text: q.Text, Options: q.Options}
	}
	course.Questions = nil

	return c.JSON(http.StatusOK, echo.Map{
		"course":    course,
		"questions": public,
	})
}

func (h *CourseHandler) CreateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course_create")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}

	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.CourseName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course_name is required")
	}
	req.bindQuestions(c)
	questions, err := parseQuestions(req.Questions)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "questions invalid shape")
	}

	course := models.Course{
		CourseName:             req.CourseName,
		Description:            req.Description,
		ThumbnailURL:           req.ThumbnailURL,
		VideoURL:               req.VideoURL,
		PPTURL:                 req.PPTURL,
		CertificateTemplateURL: req.CertificateTemplateURL,
		Questions:              questions,
		CreatedBy:              user.ID,
	}
	if req.Price != nil {
		course.Price = *req.Price
	}

	name := fmt.Sprintf("course_%d_%d", user.ID, time.Now().UnixNano())
	if err := h.uploadField(c, "thumbnail", name+"_thumbnail", &course.ThumbnailURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "video", name+"_video", &course.VideoURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "ppt", name+"_ppt", &course.PPTURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "certificateTemplate", name+"_certificate", &course.CertificateTemplateURL); err != nil {
		return err
	}

	if course.CertificateTemplateURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "certificate_template_url is required")
	}

	if err := h.Repo.CreateCourse(ctx, &course); err != nil {
		l.Error("create_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := search.IndexCourse(ctx, h.ES, &course); err != nil {
		l.Error("index_failed", "course_id", course.ID, "error", err)
	}
	h.publish(c, events.TopicCourseEvents, map[string]any{
		"type":     "course_created",
		"courseID": course.ID,
		"name":     course.CourseName,
	})

	l.Info("create_success", "course_id", course.ID)
	return c.JSON(http.StatusCreated, course)
}

func (h *CourseHandler) UpdateCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course_update")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	course, err := h.Repo.FindCourseOwned(ctx, uint(id), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found or not owner")
	}

	var req courseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	req.bindQuestions(c)
	if req.CourseName != "" {
		course.CourseName = req.CourseName
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Description != "" {
		course.Description = req.Description
	}
	if req.ThumbnailURL != "" {
		course.ThumbnailURL = req.ThumbnailURL
	}
	if req.VideoURL != "" {
		course.VideoURL = req.VideoURL
	}
	if req.PPTURL != "" {
		course.PPTURL = req.PPTURL
	}
	if req.CertificateTemplateURL != "" {
		course.CertificateTemplateURL = req.CertificateTemplateURL
	}
	if len(req.Questions) > 0 {
		questions, err := parseQuestions(req.Questions)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "questions invalid shape")
		}
		course.Questions = questions
	}

	name := fmt.Sprintf("course_%d_%d", course.ID, time.Now().UnixNano())
	if err := h.uploadField(c, "thumbnail", name+"_thumbnail", &course.ThumbnailURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "video", name+"_video", &course.VideoURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "ppt", name+"_ppt", &course.PPTURL); err != nil {
		return err
	}
	if err := h.uploadField(c, "certificateTemplate", name+"_certificate", &course.CertificateTemplateURL); err != nil {
		return err
	}

	if err := h.Repo.SaveCourse(ctx, course); err != nil {
		l.Error("update_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := search.IndexCourse(ctx, h.ES, course); err != nil {
		l.Error("index_failed", "course_id", course.ID, "error", err)
	}
	h.publish(c, events.TopicCourseEvents, map[string]any{
		"type":     "course_updated",
		"courseID": course.ID,
		"name":     course.CourseName,
	})

	l.Info("update_success", "course_id", course.ID)
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) DeleteCourse(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course_delete")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	if err := h.Repo.DeleteCourseOwned(ctx, uint(id), user.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "not found or not owner")
		}
		l.Error("delete_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := search.RemoveCourse(ctx, h.ES, uint(id)); err != nil {
		l.Error("index_remove_failed", "course_id", id, "error", err)
	}
	h.publish(c, events.TopicCourseEvents, map[string]any{
		"type":     "course_deleted",
		"courseID": id,
	})

	l.Info("delete_success", "course_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CourseHandler) SubmitExam(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "exam_submit")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var req struct {
		Answers []int `json:"answers"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	course, err := h.Repo.FindCourseByID(ctx, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "course not found")
	}
	if len(req.Answers) != len(course.Questions) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid answers")
	}

	score := 0
	for i, q := range course.Questions {
		if req.Answers[i] == q.CorrectIndex {
			score++
		}
	}
	total := len(course.Questions)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(score) / float64(total) * 100))
	}
	passed := percent >= passPercent

	sub := models.ExamSubmission{
		UserID:   user.ID,
		CourseID: course.ID,
		Answers:  req.Answers,
		Score:    score,
		Total:    total,
		Percent:  percent,
		Passed:   passed,
	}
	if err := h.Repo.UpsertSubmission(ctx, &sub); err != nil {
		l.Error("submit_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var certificateURL *string
	if passed {
		certificateURL = &course.CertificateTemplateURL
	}

	h.publish(c, events.TopicExamEvents, map[string]any{
		"type":     "exam_submitted",
		"courseID": course.ID,
		"userID":   user.ID,
		"percent":  percent,
		"passed":   passed,
	})

	l.Info("submit_success", "course_id", course.ID, "user_id", user.ID, "percent", percent, "passed", passed)
	return c.JSON(http.StatusOK, echo.Map{
		"score":                    score,
		"total":                    total,
		"percent":                  percent,
		"passed":                   passed,
		"certificate_template_url": certificateURL,
	})
}

func (h *CourseHandler) ExamStatus(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	sub, err := h.Repo.FindSubmission(ctx, user.ID, uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if sub == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"attempted": false,
			"passed":    false,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"attempted": true,
		"passed":    sub.Passed,
		"score":     sub.Score,
		"total":     sub.Total,
		"percent":   sub.Percent,
	})
}

// ManageCourse returns the full course, correct answers included, to its owner.
func (h *CourseHandler) ManageCourse(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	course, err := h.Repo.FindCourseOwned(ctx, uint(id), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found or not owner")
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CourseHandler) GetQuestions(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	course, err := h.Repo.FindCourseOwned(ctx, uint(id), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found or not owner")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"questions": course.Questions,
	})
}

func (h *CourseHandler) UpdateQuestions(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "course_update_questions")

	user, ok := auth.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized")
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}

	var req struct {
		Questions []models.Question `json:"questions"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !validQuestions(req.Questions) {
		return echo.NewHTTPError(http.StatusBadRequest, "questions invalid shape")
	}

	course, err := h.Repo.FindCourseOwned(ctx, uint(id), user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if course == nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found or not owner")
	}

	course.Questions = req.Questions
	if err := h.Repo.SaveCourse(ctx, course); err != nil {
		l.Error("update_questions_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"questions": course.Questions,
	})
}
