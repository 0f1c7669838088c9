package app

import (
	"database/sql"
	"path/filepath"

	"leavedesk/internal/allocation"
	"leavedesk/internal/leaverequest"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/middleware"
	"leavedesk/internal/rbac"
	"leavedesk/internal/rbac/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	allocationRepo := allocation.NewRepository(gormDB, db)
	leaveRequestRepo := leaverequest.NewRepository(gormDB, db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService, err := rbac.NewService(enforcer)
	if err != nil {
		return err
	}

	// --- Services ---
	leaveTypeService := leavetype.NewService(leaveTypeRepo, rdb)
	allocationLedger := allocation.NewLedger(allocationRepo)
	allocationService := allocation.NewService(allocationRepo, leaveTypeRepo)
	leaveRequestService := leaverequest.NewServiceWithOutbox(
		db,
		leaveRequestRepo,
		allocationLedger,
		allocationService,
		leaveTypeRepo,
		outboxRepo,
	)

	// --- Handlers ---
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	allocationHandler := allocation.NewHandler(allocationService)
	leaveRequestHandler := leaverequest.NewHandlerWithRedis(leaveRequestService, rdb)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimitByIP(rate.Limit(50), 100))

	api := router.Group("/api/v1")
	{
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService)
		allocation.RegisterRoutes(api, allocationHandler, rbacService)
		leaverequest.RegisterRoutes(api, leaveRequestHandler, rbacService, rdb)
	}

	return nil
}
