package leavetype

import (
	"leavedesk/internal/middleware"
	"leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	types := r.Group("/leave-types")
	types.Use(middleware.AuthMiddleware())
	{
		types.GET("", middleware.RBACAuthorize(rbacService, "leave-type", "read"), handler.GetAll)
		types.GET("/options", middleware.RBACAuthorize(rbacService, "leave-type", "read"), handler.GetOptions)
		types.GET("/:id", middleware.RBACAuthorize(rbacService, "leave-type", "read"), handler.GetById)
		types.POST("", middleware.RBACAuthorize(rbacService, "leave-type", "manage"), handler.Create)
		types.PUT("/:id", middleware.RBACAuthorize(rbacService, "leave-type", "manage"), handler.Update)
		types.DELETE("/:id", middleware.RBACAuthorize(rbacService, "leave-type", "manage"), handler.Delete)
	}
}
