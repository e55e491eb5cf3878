package routes

import (
	"townreq-be/controllers"
	"townreq-be/middlewares"

	"github.com/gin-gonic/gin"
)

// RequestRoutes sets up the service-request routes
func RequestRoutes(r *gin.Engine, rateLimit int) {
	request := r.Group("/api/request", middlewares.AuthMiddleware())
	{
		request.POST("/create", middlewares.RequestRateLimiter(rateLimit), controllers.CreateRequest)
		request.GET("", controllers.ListRequests)
		request.GET("/:id", controllers.GetRequest)
		request.POST("/:id/transition", controllers.TransitionRequest)
		request.POST("/:id/assign", controllers.AssignRequest)
		request.GET("/:id/audit", controllers.ListRequestAudit)

		request.POST("/:id/comments", controllers.PostComment)
		request.GET("/:id/comments", controllers.ListComments)

		request.POST("/:id/attachments", controllers.UploadAttachment)
		request.GET("/:id/attachments", controllers.ListAttachments)
	}

	attachment := r.Group("/api/attachment", middlewares.AuthMiddleware())
	{
		attachment.GET("/:id/download", controllers.DownloadAttachment)
	}
}
