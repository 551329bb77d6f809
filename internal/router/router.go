package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/hrms-api/internal/handler"
	"github.com/noah-isme/hrms-api/internal/middleware"
	"github.com/noah-isme/hrms-api/internal/models"
)

// Handlers groups every HTTP handler mounted by Register.
type Handlers struct {
	Employees   *handler.EmployeeHandler
	Attendance  *handler.AttendanceHandler
	MissPunches *handler.MissPunchHandler
	Leaves      *handler.LeaveHandler
	Holidays    *handler.HolidayHandler
	Payroll     *handler.PayrollHandler
	Dashboard   *handler.DashboardHandler
	Reports     *handler.ReportHandler
	Attachments *handler.AttachmentHandler
	Metrics     *handler.MetricsHandler
}

// Options tunes route registration.
type Options struct {
	APIPrefix     string
	EnableSwagger bool
	EnableMetrics bool
	AuditWriter   middleware.AuditWriter
	Logger        *zap.Logger
}

// Register mounts the operational endpoints at the root and the API under opts.APIPrefix.
func Register(r *gin.Engine, h Handlers, opts Options) {
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api"
	}
	audit := func(action, resource, idParam string) gin.HandlerFunc {
		return middleware.Audit(opts.AuditWriter, opts.Logger, action, resource, idParam)
	}

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if opts.EnableMetrics {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if opts.EnableSwagger {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)

	attendance := api.Group("/attendance")
	attendance.POST("/checkin", h.Attendance.CheckIn)
	attendance.POST("/checkout", h.Attendance.CheckOut)
	attendance.POST("/misspunch", h.MissPunches.Submit)
	attendance.GET("/misspunch/:employee_id", h.MissPunches.ListForEmployee)
	attendance.GET("/:employee_id/:month", h.Attendance.Monthly)

	leave := api.Group("/leave")
	leave.POST("/apply", h.Leaves.Apply)
	leave.GET("/:employee_id", h.Leaves.ListForEmployee)

	api.GET("/holidays", h.Holidays.List)

	payroll := api.Group("/payroll")
	payroll.POST("/generate", audit(models.AuditActionPayrollGenerate, "payroll", ""), h.Payroll.Generate)
	payroll.GET("/:employee_id", h.Payroll.History)

	api.GET("/attachments/:id/download", h.Attachments.Download)
	api.GET("/export/:token", h.Reports.DownloadReport)

	admin := api.Group("/admin")

	employees := admin.Group("/employees")
	employees.GET("", h.Employees.List)
	employees.POST("", audit(models.AuditActionEmployeeCreate, "employee", ""), h.Employees.Create)
	employees.GET("/:employee_id", h.Employees.Get)
	employees.PUT("/:employee_id", audit(models.AuditActionEmployeeUpdate, "employee", "employee_id"), h.Employees.Update)
	employees.PATCH("/:employee_id/status", audit(models.AuditActionEmployeeStatus, "employee", "employee_id"), h.Employees.SetStatus)

	adminAttendance := admin.Group("/attendance")
	adminAttendance.GET("", h.Attendance.List)
	adminAttendance.POST("", audit(models.AuditActionAttendanceMark, "attendance", ""), h.Attendance.Mark)
	adminAttendance.PUT("/:id", audit(models.AuditActionAttendanceUpdate, "attendance", "id"), h.Attendance.Correct)

	missPunch := admin.Group("/misspunch")
	missPunch.GET("", h.MissPunches.List)
	missPunch.PATCH("/:id/approve", audit(models.AuditActionMissPunchDecide, "miss_punch", "id"), h.MissPunches.Approve)
	missPunch.PATCH("/:id/reject", audit(models.AuditActionMissPunchDecide, "miss_punch", "id"), h.MissPunches.Reject)

	leaves := admin.Group("/leaves")
	leaves.GET("", h.Leaves.List)
	leaves.PATCH("/:id/approve", audit(models.AuditActionLeaveDecide, "leave", "id"), h.Leaves.Approve)
	leaves.PATCH("/:id/reject", audit(models.AuditActionLeaveDecide, "leave", "id"), h.Leaves.Reject)

	holidays := admin.Group("/holidays")
	holidays.POST("", audit(models.AuditActionHolidayCreate, "holiday", ""), h.Holidays.Create)
	holidays.DELETE("/:id", audit(models.AuditActionHolidayDelete, "holiday", "id"), h.Holidays.Delete)

	admin.POST("/payroll/run", audit(models.AuditActionPayrollRun, "payroll", ""), h.Payroll.Run)
	admin.GET("/dashboard/summary", h.Dashboard.Summary)

	reports := admin.Group("/reports")
	reports.POST("", h.Reports.GenerateReport)
	reports.GET("/:id", h.Reports.ReportStatus)

	admin.GET("/metrics", h.Metrics.Summary)
}
