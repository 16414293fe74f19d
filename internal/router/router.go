// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/equipdesk/equipdesk-backend/internal/config"
	"github.com/equipdesk/equipdesk-backend/internal/handlers"
	"github.com/equipdesk/equipdesk-backend/internal/middleware"
	"github.com/equipdesk/equipdesk-backend/internal/services"
	"github.com/equipdesk/equipdesk-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)
	ticketService := services.NewTicketService(db, cfg)
	versionService := services.NewVersionService(db)

	authService := services.NewAuthService(db, cfg)
	catalogService := services.NewCatalogService(db, versionService)
	packageService := services.NewPackageService(db, versionService)
	poolService := services.NewPoolService(db, cfg.Provisioning.EnforceSeatCap)
	approvalService := services.NewApprovalService(db, ticketService)
	assignmentService := services.NewAssignmentService(db, versionService, catalogService, approvalService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService, storageService)
	packageHandler := handlers.NewPackageHandler(packageService, versionService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	poolHandler := handlers.NewPoolHandler(poolService)
	approvalHandler := handlers.NewApprovalHandler(approvalService, ticketService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	v1 := r.Group("/v1")
	{
		// Authentication
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.AuthRateLimit(), authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/profile", middleware.AuthRequired(), authHandler.GetProfile)
			auth.PUT("/password", middleware.AuthRequired(), authHandler.ChangePassword)
		}

		// Catalog
		catalog := v1.Group("/catalog", middleware.AuthRequired())
		{
			catalog.POST("/hardware", catalogHandler.CreateHardware)
			catalog.GET("/hardware", catalogHandler.SearchHardware)
			catalog.GET("/hardware/:id", catalogHandler.GetHardware)
			catalog.POST("/hardware/:id/retire", catalogHandler.RetireHardware)
			catalog.POST("/hardware/:id/supersede", catalogHandler.SupersedeHardware)
			catalog.POST("/hardware/:id/attachments", middleware.UploadRateLimit(), catalogHandler.UploadHardwareAttachment)

			catalog.POST("/software", catalogHandler.CreateSoftware)
			catalog.GET("/software", catalogHandler.SearchSoftware)
			catalog.GET("/software/:id", catalogHandler.GetSoftware)
			catalog.POST("/software/:id/retire", catalogHandler.RetireSoftware)
		}

		// Equipment packages and versions
		packages := v1.Group("/packages", middleware.AuthRequired())
		{
			packages.POST("", packageHandler.CreatePackage)
			packages.GET("", packageHandler.SearchPackages)
			packages.GET("/:id", packageHandler.GetPackage)
			packages.PUT("/:id", packageHandler.UpdatePackage)
			packages.POST("/:id/save", packageHandler.SavePackage)
			packages.POST("/:id/archive", packageHandler.ArchivePackage)
			packages.GET("/:id/versions", packageHandler.ListVersions)
			packages.GET("/:id/versions/latest", packageHandler.GetLatestVersion)
			packages.GET("/:id/versions/:number", packageHandler.GetVersionByNumber)
		}

		// Assignments
		assignments := v1.Group("/assignments", middleware.AuthRequired())
		{
			assignments.POST("", assignmentHandler.AssignPackage)
			assignments.GET("", assignmentHandler.ListAssignments)
			assignments.GET("/:id", assignmentHandler.GetAssignment)
			assignments.GET("/:id/equipment", assignmentHandler.GetEffectiveEquipment)
			assignments.POST("/:id/unassign", assignmentHandler.Unassign)
		}

		// License pools
		pools := v1.Group("/pools", middleware.AuthRequired())
		{
			pools.POST("", poolHandler.CreatePool)
			pools.GET("", poolHandler.ListPools)
			pools.GET("/statistics", poolHandler.GetStatistics)
			pools.GET("/:id", poolHandler.GetPool)
			pools.POST("/:id/allocate", poolHandler.AllocateSeat)
			pools.POST("/:id/reclaim", poolHandler.ReclaimSeats)
			pools.GET("/:id/utilization", poolHandler.GetUtilization)
		}

		// Approvals and provisioning tickets
		approvals := v1.Group("/approvals", middleware.AuthRequired())
		{
			approvals.POST("", approvalHandler.SubmitRequest)
			approvals.GET("", approvalHandler.ListRequests)
			approvals.GET("/:id", approvalHandler.GetRequest)
			approvals.POST("/:id/decide", approvalHandler.DecideRequest)
			approvals.POST("/:id/cancel", approvalHandler.CancelRequest)
			approvals.POST("/:id/escalate", approvalHandler.EscalateRequest)
		}

		tickets := v1.Group("/tickets", middleware.AuthRequired())
		{
			tickets.GET("", approvalHandler.ListTickets)
			tickets.GET("/:id", approvalHandler.GetTicket)
			tickets.POST("/:id/close", approvalHandler.CloseTicket)
		}
	}

	return r
}
