package routes

import (
	"townreq-be/controllers"
	"townreq-be/middlewares"
	"townreq-be/models"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.RegisterUser)
		auth.POST("/login", controllers.LoginUser)
		auth.GET("/me", middlewares.AuthMiddleware(), controllers.GetMe)
	}

	admin := r.Group("/api/admin")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireRole(func(role models.Role) bool {
		return role == models.RoleAdmin
	}))
	{
		admin.POST("/staff", controllers.CreateStaffUser)
	}
}
