package allocation

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
	allocations := r.Group("/allocations")
	allocations.Use(middleware.AuthMiddleware())
	{
		allocations.GET("/me", middleware.RBACAuthorize(rbacService, "allocation", "read"), handler.GetMine)
		allocations.GET("/employees/:id", middleware.RBACAuthorize(rbacService, "allocation", "read-all"), handler.GetByEmployee)
		allocations.POST("/provision", middleware.RBACAuthorize(rbacService, "allocation", "provision"), handler.Provision)
	}
}
