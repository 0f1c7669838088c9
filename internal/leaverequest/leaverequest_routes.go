package leaverequest

import (
	"leavedesk/internal/middleware"
	"leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	requests := r.Group("/leave-requests")
	requests.Use(middleware.AuthMiddleware())
	{
		requests.POST("", middleware.RBACAuthorize(rbacService, "leave-request", "create"), middleware.Idempotency(rdb), handler.Submit)
		requests.GET("", middleware.RBACAuthorize(rbacService, "leave-request", "read-all"), handler.GetAll)
		requests.GET("/me", middleware.RBACAuthorize(rbacService, "leave-request", "read"), handler.GetMine)
		requests.GET("/:id", middleware.RBACAuthorize(rbacService, "leave-request", "read-all"), handler.GetById)
		requests.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave-request", "approve"), handler.Approve)
		requests.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave-request", "approve"), handler.Reject)
		requests.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave-request", "cancel"), handler.Cancel)
	}
}
