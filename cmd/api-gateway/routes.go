package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-admin-api/internal/handler"
	"github.com/noah-isme/clinic-admin-api/internal/middleware"
	"github.com/noah-isme/clinic-admin-api/internal/models"
	"github.com/noah-isme/clinic-admin-api/internal/repository"
	"github.com/noah-isme/clinic-admin-api/internal/service"
	"github.com/noah-isme/clinic-admin-api/pkg/config"
)

type routeDeps struct {
	cfg          *config.Config
	logger       *zap.Logger
	metrics      *service.MetricsService
	audit        *repository.AuditRepository
	loginLimiter *middleware.RateLimiter

	auth         *service.AuthService
	users        *service.UserService
	navigation   *service.NavigationService
	appointments *service.AppointmentService
	currencies   *service.CurrencyService
	prices       *service.ServicePriceService
	salaries     *service.SalaryService
	invoices     *service.InvoiceService
	prescription *service.PrescriptionService
	labResults   *service.LabResultService
	exports      *service.ExportJobService
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	metricsHandler := handler.NewMetricsHandler(d.metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)

	authHandler := handler.NewAuthHandler(d.auth)
	authGroup := api.Group("/auth")
	if d.loginLimiter != nil {
		authGroup.POST("/login", d.loginLimiter.Middleware(), authHandler.Login)
	} else {
		authGroup.POST("/login", authHandler.Login)
	}
	authGroup.POST("/refresh", authHandler.Refresh)

	jwt := middleware.JWT(d.auth)
	authed := api.Group("")
	authed.Use(jwt)
	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	navHandler := handler.NewNavigationHandler(d.navigation)
	authed.GET("/navigation", navHandler.Tree)
	authed.GET("/navigation/quick", navHandler.Quick)

	tenant := authed.Group("")
	tenant.Use(middleware.Tenant())

	perm := middleware.RequirePermission
	tenant.GET("/system/metrics", perm(models.PermMetricsRead), metricsHandler.Snapshot)

	users := handler.NewUserHandler(d.users)
	userRoutes := tenant.Group("/users", perm(models.PermUsersManage))
	userRoutes.GET("", users.List)
	userRoutes.GET("/:id", users.Get)
	userRoutes.POST("", users.Create)
	userRoutes.PUT("/:id", users.Update)
	userRoutes.DELETE("/:id", users.Delete)

	appointments := handler.NewAppointmentHandler(d.appointments, d.cfg.Calendar.RefreshInterval)
	apptRead := perm(models.PermAppointmentsRead)
	apptWrite := perm(models.PermAppointmentsWrite)
	tenant.GET("/appointments", apptRead, appointments.List)
	tenant.GET("/appointments/calendar/week", apptRead, appointments.Week)
	tenant.GET("/appointments/calendar/day", apptRead, appointments.Day)
	tenant.GET("/appointments/:id", apptRead, appointments.Get)
	tenant.POST("/appointments", apptWrite, appointments.Create)
	tenant.PUT("/appointments/:id", apptWrite, appointments.Update)
	tenant.DELETE("/appointments/:id", apptWrite, appointments.Delete)

	finance := handler.NewFinanceHandler(d.currencies, d.prices, d.salaries, d.invoices)
	currencies := tenant.Group("/currencies")
	financeRead := perm(models.PermServicePricesRead, models.PermInvoicesRead, models.PermSalariesRead)
	currencies.GET("", financeRead, finance.ListCurrencies)
	currencies.GET("/:id", financeRead, finance.GetCurrency)
	manage := perm(models.PermCurrenciesManage)
	currencies.POST("", manage, finance.CreateCurrency)
	currencies.PUT("/:id", manage, finance.UpdateCurrency)
	currencies.DELETE("/:id", manage, finance.DeleteCurrency)

	pricesRead := perm(models.PermServicePricesRead)
	pricesWrite := perm(models.PermServicePricesWrite)
	tenant.GET("/service-prices", pricesRead, finance.ListServicePrices)
	tenant.GET("/service-prices/:id", pricesRead, finance.GetServicePrice)
	tenant.POST("/service-prices", pricesWrite, finance.CreateServicePrice)
	tenant.PUT("/service-prices/:id", pricesWrite, finance.UpdateServicePrice)
	tenant.DELETE("/service-prices/:id", pricesWrite, finance.DeleteServicePrice)

	salariesRead := perm(models.PermSalariesRead)
	salariesWrite := perm(models.PermSalariesWrite)
	tenant.GET("/salaries", salariesRead, finance.ListSalaries)
	tenant.GET("/salaries/:id", salariesRead, finance.GetSalary)
	tenant.POST("/salaries", salariesWrite, finance.CreateSalary)
	tenant.PUT("/salaries/:id", salariesWrite, finance.UpdateSalary)
	tenant.DELETE("/salaries/:id", salariesWrite, finance.DeleteSalary)

	invoicesRead := perm(models.PermInvoicesRead)
	invoicesWrite := perm(models.PermInvoicesWrite)
	tenant.GET("/invoices", invoicesRead, finance.ListInvoices)
	tenant.GET("/invoices/:id", invoicesRead, finance.GetInvoice)
	tenant.POST("/invoices", invoicesWrite, finance.CreateInvoice)
	tenant.PUT("/invoices/:id", invoicesWrite, finance.UpdateInvoice)
	tenant.DELETE("/invoices/:id", invoicesWrite, finance.DeleteInvoice)

	clinical := handler.NewClinicalHandler(d.prescription, d.labResults)
	rxRead := perm(models.PermPrescriptionsRead)
	rxWrite := perm(models.PermPrescriptionsWrite)
	tenant.GET("/prescriptions", rxRead, clinical.ListPrescriptions)
	tenant.GET("/prescriptions/:id", rxRead, clinical.GetPrescription)
	tenant.POST("/prescriptions", rxWrite, clinical.CreatePrescription)
	tenant.PUT("/prescriptions/:id", rxWrite, clinical.UpdatePrescription)
	tenant.DELETE("/prescriptions/:id", rxWrite, clinical.DeletePrescription)

	labRead := perm(models.PermLabResultsRead)
	labWrite := perm(models.PermLabResultsWrite)
	tenant.GET("/lab-results", labRead, clinical.ListLabResults)
	tenant.GET("/lab-results/:id", labRead, clinical.GetLabResult)
	tenant.POST("/lab-results", labWrite, clinical.CreateLabResult)
	tenant.PUT("/lab-results/:id", labWrite, clinical.UpdateLabResult)
	tenant.DELETE("/lab-results/:id", labWrite, clinical.DeleteLabResult)

	if d.exports != nil {
		exportHandler := handler.NewExportHandler(d.exports)
		create := perm(models.PermExportsCreate)
		tenant.POST("/exports", create, middleware.Audit(d.audit, d.logger, "EXPORT_CREATE", "export"), exportHandler.Create)
		tenant.GET("/exports/:id", create, exportHandler.Status)
		// Download tokens carry their own signed grant.
		api.GET("/exports/download/:token", exportHandler.Download)
	}
}
