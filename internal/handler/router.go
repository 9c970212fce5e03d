package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-hq/academics-api/internal/middleware"
	"github.com/campus-hq/academics-api/internal/models"
	"github.com/campus-hq/academics-api/internal/service"
)

// Handlers bundles everything RegisterRoutes wires up.
type Handlers struct {
	Auth        *AuthHandler
	Departments *DepartmentHandler
	Classes     *ClassHandler
	Subjects    *SubjectHandler
	Students    *StudentHandler
	Selections  *SelectionHandler
	Submissions *SubmissionHandler
	Dashboards  *DashboardHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes attaches every API route under the given prefix. Auth login
// and refresh plus report downloads stay public; everything else sits behind
// the JWT middleware with per-route role checks.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	if h.Reports != nil {
		api.GET("/reports/download", h.Reports.Download)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.GET("/auth/me", h.Auth.Me)

	staff := middleware.Staff()
	admins := middleware.RequireRoles(models.RoleDirector, models.RoleHOD)
	markers := middleware.RequireRoles(models.RoleDirector, models.RoleHOD, models.RoleClassTeacher, models.RoleFaculty)
	classManagers := middleware.RequireRoles(models.RoleDirector, models.RoleHOD, models.RoleClassTeacher)
	students := middleware.RequireRoles(models.RoleStudent)
	staffOrSelf := middleware.RBAC(
		string(models.RoleDirector), string(models.RoleHOD),
		string(models.RoleClassTeacher), string(models.RoleFaculty), "SELF")

	departments := protected.Group("/departments")
	{
		departments.GET("", h.Departments.List)
		departments.GET("/:id", h.Departments.Get)
		departments.POST("", middleware.RequireRoles(models.RoleDirector), h.Departments.Create)
		departments.PUT("/:id", middleware.RequireRoles(models.RoleDirector), h.Departments.Update)
		departments.DELETE("/:id", middleware.RequireRoles(models.RoleDirector), h.Departments.Delete)
		departments.GET("/:id/dashboard", admins, h.Dashboards.Department)
	}

	classes := protected.Group("/classes")
	{
		classes.GET("", staff, h.Classes.List)
		classes.GET("/:id", staff, h.Classes.Get)
		classes.POST("", admins, h.Classes.Create)
		classes.PUT("/:id", admins, h.Classes.Update)
		classes.PUT("/:id/teacher", admins, h.Classes.AssignTeacher)
		classes.DELETE("/:id/teacher", admins, h.Classes.RemoveTeacher)
		classes.GET("/:id/batches", staff, h.Classes.ListBatches)
		classes.POST("/:id/batches", classManagers, h.Classes.CreateBatch)
		classes.DELETE("/:id/batches/:batchId", classManagers, h.Classes.DeleteBatch)
		classes.GET("/:id/completion", classManagers, h.Dashboards.ClassCompletion)
		classes.POST("/:id/students/import", classManagers, h.Students.Import)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", staff, h.Subjects.List)
		subjects.GET("/catalog", h.Subjects.Catalog)
		subjects.GET("/:id", staff, h.Subjects.Get)
		subjects.POST("", admins, h.Subjects.Create)
		subjects.PUT("/:id", admins, h.Subjects.Update)
		subjects.DELETE("/:id", admins, h.Subjects.Delete)
		subjects.GET("/:id/roster", markers, h.Dashboards.Roster)
	}

	offerings := protected.Group("/offerings")
	{
		offerings.GET("", staff, h.Subjects.ListOfferings)
		offerings.POST("", admins, h.Subjects.CreateOffering)
		offerings.PUT("/:id/faculty", admins, h.Subjects.UpdateOfferingFaculty)
		offerings.PUT("/:id/active", admins, h.Subjects.SetOfferingActive)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.POST("", admins, h.Subjects.Assign)
		assignments.DELETE("/:id", admins, h.Subjects.Unassign)
	}

	studentRoutes := protected.Group("/students")
	{
		studentRoutes.GET("", staff, h.Students.List)
		studentRoutes.GET("/:id", staffOrSelf, h.Students.Get)
		studentRoutes.PUT("/:id", classManagers, h.Students.Update)
		studentRoutes.GET("/:id/submissions", staffOrSelf, h.Submissions.ListForStudent)
		studentRoutes.GET("/:id/defaulter-work", staffOrSelf, h.Submissions.CurrentDefaulterWork)
		studentRoutes.GET("/:id/selections", staff, h.Selections.StudentStatus)
		studentRoutes.POST("/:id/selections/unlock",
			middleware.RequireRoles(models.RoleClassTeacher, models.RoleFaculty), h.Selections.Unlock)
	}

	protected.GET("/electives", students, h.Selections.Electives)
	selections := protected.Group("/selections", students)
	{
		selections.GET("", h.Selections.Status)
		selections.POST("", h.Selections.Select)
		selections.POST("/lock", h.Selections.Lock)
	}

	submissions := protected.Group("/submissions")
	{
		submissions.GET("/types", h.Submissions.Types)
		submissions.POST("", markers, h.Submissions.Mark)
	}

	defaulterWork := protected.Group("/defaulter-work", markers)
	{
		defaulterWork.POST("", h.Submissions.AssignDefaulterWork)
		defaulterWork.POST("/:id/complete", h.Submissions.CompleteDefaulterWork)
	}

	protected.GET("/dashboard/student", students, h.Dashboards.Student)

	if h.Reports != nil {
		reports := protected.Group("/reports", staff)
		{
			reports.POST("", h.Reports.Create)
			reports.GET("/:id", h.Reports.Status)
		}
	}

	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
}
