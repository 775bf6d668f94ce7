package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/skillsharecyber/courseplatform/internal/handlers"
	"github.com/skillsharecyber/courseplatform/internal/middleware/auth"
	"github.com/skillsharecyber/courseplatform/internal/models"
)

type Deps struct {
	Gate            *auth.Gate
	UserHandler     *handlers.UserHandler
	SessionHandler  *handlers.SessionHandler
	OAuthHandler    *handlers.OAuthHandler
	CourseHandler   *handlers.CourseHandler
	ActivityHandler *handlers.ActivityHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/users/register", d.UserHandler.Register)
	v1.POST("/users/login", d.UserHandler.Login)

	v1.GET("/auth/google", d.OAuthHandler.GoogleLogin)
	v1.GET("/auth/google/callback", d.OAuthHandler.GoogleCallback)
	v1.POST("/auth/refresh-token", d.SessionHandler.Refresh)
	v1.POST("/auth/logout", d.SessionHandler.Logout)

	v1.GET("/courses", d.CourseHandler.ListCourses)
	v1.GET("/courses/search", d.SearchHandler.Search)
	v1.GET("/courses/:id", d.CourseHandler.GetCourse)

	authed := v1.Group("", d.Gate.Authenticate)

	authed.GET("/me", d.UserHandler.Me)
	authed.PUT("/users/update", d.UserHandler.UpdateProfile)
	authed.POST("/users/upload-profile", d.UserHandler.UploadProfilePicture)

	admins := authed.Group("/users", auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
	admins.GET("", d.UserHandler.ListUsers)
	admins.POST("", d.UserHandler.CreateUser)
	admins.PUT("/:id/role", d.UserHandler.UpdateRole)
	authed.DELETE("/users/:id", d.UserHandler.DeleteUser, auth.RequireRole(models.RoleSuperAdmin))

	lectures := authed.Group("/courses", auth.RequireRole(models.RoleLecture, models.RoleAdmin, models.RoleSuperAdmin))
	lectures.POST("", d.CourseHandler.CreateCourse)
	lectures.PATCH("/:id", d.CourseHandler.UpdateCourse)
	lectures.DELETE("/:id", d.CourseHandler.DeleteCourse)
	lectures.GET("/:id/manage", d.CourseHandler.ManageCourse)
	lectures.GET("/:id/questions", d.CourseHandler.GetQuestions)
	lectures.PUT("/:id/questions", d.CourseHandler.UpdateQuestions)

	authed.POST("/courses/:id/attempt", d.CourseHandler.SubmitExam)
	authed.GET("/courses/:id/status", d.CourseHandler.ExamStatus)

	authed.POST("/activities", d.ActivityHandler.AddActivity)
	authed.GET("/activities", d.ActivityHandler.GetActivities)
	authed.GET("/activities/stats", d.ActivityHandler.GetStats,
		auth.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
}
