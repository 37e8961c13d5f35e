package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/promittee/givehub-go/config"
	controllers "github.com/promittee/givehub-go/controllers"
	middleware "github.com/promittee/givehub-go/middleware"
	services "github.com/promittee/givehub-go/services"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, gateway *services.PaymentGateway) {
	// public
	r.GET("/campaigns", controllers.ListApprovedCampaigns(cfg))
	r.GET("/opportunities", controllers.ListActiveOpportunities(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	camps := r.Group("/campaigns")
	camps.Use(auth)
	{
		camps.POST("", controllers.CreateCampaign(cfg))
		camps.GET("/mine", controllers.ListMyCampaigns(cfg))
		camps.GET("/unapproved", controllers.ListUnapprovedCampaigns(cfg))
		camps.GET("/:id", controllers.GetCampaign(cfg))
		camps.PATCH("/:id", controllers.UpdateCampaign(cfg))
		camps.DELETE("/:id", controllers.DeleteCampaign(cfg))
		camps.PUT("/:id/approve", controllers.ApproveCampaign(cfg))
		camps.PUT("/:id/reject", controllers.RejectCampaign(cfg))
		camps.POST("/:id/donations", controllers.DonateToCampaign(cfg))
	}

	donations := r.Group("/donations")
	donations.Use(auth)
	{
		donations.POST("", controllers.DirectDonate(cfg, gateway))
		donations.GET("", controllers.DonationHistory(cfg))
	}

	opps := r.Group("/opportunities")
	opps.Use(auth)
	{
		opps.POST("", controllers.CreateOpportunity(cfg))
		opps.GET("/mine", controllers.ListMyOpportunities(cfg))
		opps.PUT("/:id/close", controllers.CloseOpportunity(cfg))
		opps.POST("/:id/applications", controllers.ApplyToOpportunity(cfg))
	}

	vols := r.Group("/volunteers")
	vols.Use(auth)
	{
		vols.GET("", controllers.MyApplications(cfg))
		vols.GET("/ngo", controllers.NgoApplications(cfg))
		vols.PUT("/:id/approve", controllers.ApproveApplication(cfg))
		vols.PUT("/:id/complete", controllers.CompleteApplication(cfg))
		vols.PUT("/:id/cancel", controllers.CancelApplication(cfg))
	}
}
