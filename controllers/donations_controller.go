package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
	services "github.com/promittee/givehub-go/services"
)

// ---------------- CAMPAIGN DONATION ----------------
func DonateToCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleDonor {
			c.JSON(http.StatusForbidden, gin.H{"error": "only donors can donate"})
			return
		}

		campaignID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Amount        *int `json:"amount"`
			VolunteerTime bool `json:"volunteer_time"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var campaign models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": campaignID}).Decode(&campaign); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		if err := campaign.ValidateDonation(input.Amount, input.VolunteerTime); err != nil {
			respondError(c, err)
			return
		}

		donation := models.CampaignDonation{
			DonorEmail:    c.GetString("email"),
			Amount:        input.Amount,
			VolunteerTime: input.VolunteerTime,
			CreatedAt:     time.Now(),
		}

		// One write appends the ledger entry and bumps the cached total, so
		// the two can never drift. The filter re-asserts the accepts flags in
		// case the campaign changed since validation.
		update := bson.M{
			"$push": bson.M{"donations": donation},
			"$set":  bson.M{"updated_at": donation.CreatedAt},
		}
		if input.Amount != nil {
			update["$inc"] = bson.M{"amount": *input.Amount}
		}

		filter := bson.M{"_id": campaignID}
		if input.Amount != nil {
			filter["accepts_money"] = true
		}
		if input.VolunteerTime {
			filter["accepts_time"] = true
		}

		res, err := col.UpdateOne(ctx, filter, update)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record donation"})
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, models.Conflictf("campaign no longer accepts this donation type"))
			return
		}

		c.JSON(http.StatusCreated, donation)
	}
}

// ---------------- DIRECT NGO DONATION ----------------
// The gateway outcome is a business result: SUCCESS and FAILED payments are
// both recorded and both returned with 200. Only SUCCESS touches the donor's
// running total.
func DirectDonate(cfg *config.Config, gateway *services.PaymentGateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleDonor {
			c.JSON(http.StatusForbidden, gin.H{"error": "only donors can donate"})
			return
		}
		donorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			NgoID      string  `json:"ngo_id" binding:"required"`
			CampaignID *string `json:"campaign_id"`
			Amount     float64 `json:"amount"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := models.ValidateDirectDonation(input.Amount); err != nil {
			respondError(c, err)
			return
		}

		ngoID, err := primitive.ObjectIDFromHex(input.NgoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ngo id"})
			return
		}

		var campaignID *primitive.ObjectID
		if input.CampaignID != nil && *input.CampaignID != "" {
			cid, err := primitive.ObjectIDFromHex(*input.CampaignID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
				return
			}
			campaignID = &cid
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		users := cfg.Collection("users")
		n, err := users.CountDocuments(ctx, bson.M{"_id": ngoID, "role": models.RoleNGO})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify NGO"})
			return
		}
		if n == 0 {
			respondError(c, models.NotFoundf("NGO not found"))
			return
		}

		payment := models.Payment{
			ID:             primitive.NewObjectID(),
			TransactionRef: uuid.NewString(),
			DonorID:        donorID,
			NgoID:          ngoID,
			CampaignID:     campaignID,
			Amount:         input.Amount,
			Status:         models.PaymentFailed,
			CreatedAt:      time.Now(),
		}

		if gateway.Authorize(ctx, donorID.Hex(), input.Amount) {
			payment.Status = models.PaymentSuccess
		}

		if _, err := cfg.Collection("payments").InsertOne(ctx, payment); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record payment"})
			return
		}

		if payment.Status == models.PaymentSuccess {
			_, err := users.UpdateOne(ctx,
				bson.M{"_id": donorID},
				bson.M{"$inc": bson.M{"total_donated": input.Amount}},
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update donor totals"})
				return
			}
		}

		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- DONATION HISTORY ----------------
func DonationHistory(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cursor, err := cfg.Collection("payments").Find(ctx, bson.M{"donor_id": donorID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch payments"})
			return
		}

		var payments []models.Payment
		if err := cursor.All(ctx, &payments); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode payments"})
			return
		}

		if len(payments) == 0 {
			c.JSON(http.StatusOK, []models.Payment{})
			return
		}

		c.JSON(http.StatusOK, payments)
	}
}
