// Package router assembles services, handlers and middleware into the gin engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "limify/internal/docs" // registers the swagger document
	"limify/internal/events"
	"limify/internal/handlers"
	"limify/internal/middleware"
	"limify/internal/services"
)

// Options carries the handles the route table is built from.
type Options struct {
	DB            *gorm.DB
	Tokens        *middleware.TokenIssuer
	Publisher     events.Publisher
	BillingAPIKey string
	PublicBaseURL string
	Swagger       bool
}

// New wires every service and handler and returns the engine serving /api/v1.
func New(opts Options) *gin.Engine {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.LogPublisher{}
	}

	db := opts.DB
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	planService := services.NewPlanService(db)
	clientService := services.NewClientService(db, planService)
	categoryService := services.NewCategoryService(db)
	expenseService := services.NewExpenseService(db)
	budgetService := services.NewBudgetService(db, planService)
	publicationService := services.NewPublicationService(db)
	teamService := services.NewTeamService(db, planService)

	authHandler := handlers.NewAuthHandler(userService, auditService, opts.Tokens)
	clientHandler := handlers.NewClientHandler(clientService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService, publisher)
	publicationHandler := handlers.NewPublicationHandler(publicationService, auditService, publisher, opts.PublicBaseURL)
	planHandler := handlers.NewPlanHandler(planService, auditService)
	teamHandler := handlers.NewTeamHandler(teamService, auditService, publisher, opts.PublicBaseURL)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	v1.GET("/public/budgets/:id", publicationHandler.GetPublicBudget)

	// Billing collaborator
	billing := v1.Group("/billing")
	billing.Use(middleware.APIKeyMiddleware(opts.BillingAPIKey))
	billing.POST("/plans", planHandler.ApplyPlan)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.Tokens))

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/plan", planHandler.GetPlan)

	clients := protected.Group("/clients")
	clients.POST("", clientHandler.CreateClient)
	clients.GET("", clientHandler.GetUserClients)
	clients.GET("/:id", clientHandler.GetClientByID)
	clients.PUT("/:id", clientHandler.UpdateClient)
	clients.DELETE("/:id", clientHandler.DeleteClient)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetUserExpenses)
	expenses.GET("/summary", expenseHandler.GetSummary)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.POST("/:id/trash", expenseHandler.TrashExpense)
	expenses.POST("/:id/restore", expenseHandler.RestoreExpense)
	expenses.POST("/:id/archive", expenseHandler.ArchiveExpense)
	expenses.POST("/:id/unarchive", expenseHandler.UnarchiveExpense)
	expenses.DELETE("/:id", expenseHandler.PurgeExpense)

	budgets := protected.Group("/budgets")
	budgets.POST("/quote", budgetHandler.QuoteBudget)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetUserBudgets)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.PATCH("/:id/status", budgetHandler.UpdateStatus)
	budgets.POST("/:id/trash", budgetHandler.TrashBudget)
	budgets.POST("/:id/restore", budgetHandler.RestoreBudget)
	budgets.DELETE("/:id", budgetHandler.PurgeBudget)
	budgets.POST("/:id/publish", publicationHandler.Publish)
	budgets.GET("/:id/publications", publicationHandler.GetPublications)

	team := protected.Group("/team")
	team.GET("", teamHandler.GetTeam)
	team.GET("/invites", teamHandler.GetInvites)
	team.POST("/invites", teamHandler.CreateInvite)
	team.POST("/invites/accept", teamHandler.AcceptInvite)
	team.DELETE("/members/:id", teamHandler.RemoveMember)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
