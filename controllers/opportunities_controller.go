package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
	utils "github.com/promittee/givehub-go/utils"
)

// ---------------- CREATE ----------------
func CreateOpportunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleNGO {
			c.JSON(http.StatusForbidden, gin.H{"error": "only NGOs can publish opportunities"})
			return
		}
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		var input struct {
			Title            string   `json:"title" binding:"required"`
			Description      string   `json:"description" binding:"required"`
			Location         string   `json:"location"`
			StartDate        *string  `json:"start_date"`
			EndDate          *string  `json:"end_date"`
			MaxVolunteers    int      `json:"max_volunteers"`
			SkillsRequired   []string `json:"skills_required"`
			LinkedCampaignID *string  `json:"linked_campaign_id"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		in := models.OpportunityInput{
			Title:          input.Title,
			Description:    input.Description,
			Location:       input.Location,
			MaxVolunteers:  input.MaxVolunteers,
			SkillsRequired: input.SkillsRequired,
		}

		if input.StartDate != nil && *input.StartDate != "" {
			parsed, err := parseFlexibleTime(*input.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			in.StartDate = &parsed
		}
		if input.EndDate != nil && *input.EndDate != "" {
			parsed, err := parseFlexibleTime(*input.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			in.EndDate = &parsed
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// A standalone opportunity has no linked campaign; a linked one must
		// point at a real campaign.
		if input.LinkedCampaignID != nil && *input.LinkedCampaignID != "" {
			cid, err := primitive.ObjectIDFromHex(*input.LinkedCampaignID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid linked campaign id"})
				return
			}
			n, err := cfg.Collection("campaigns").CountDocuments(ctx, bson.M{"_id": cid})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify linked campaign"})
				return
			}
			if n == 0 {
				respondError(c, models.NotFoundf("linked campaign not found"))
				return
			}
			in.LinkedCampaignID = &cid
		}

		opp, err := models.NewOpportunity(ngoID, in, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}

		if _, err := cfg.Collection("opportunities").InsertOne(ctx, opp); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create opportunity"})
			return
		}

		c.JSON(http.StatusCreated, opp)
	}
}

// ---------------- LIST (public, active) ----------------
func ListActiveOpportunities(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		listOpportunities(c, cfg, bson.M{"active": true})
	}
}

// ---------------- LIST (owner) ----------------
func ListMyOpportunities(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		listOpportunities(c, cfg, bson.M{"ngo_id": ngoID})
	}
}

func listOpportunities(c *gin.Context, cfg *config.Config, filter bson.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cfg.Collection("opportunities").Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch opportunities"})
		return
	}

	var opportunities []models.VolunteerOpportunity
	if err := cursor.All(ctx, &opportunities); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode opportunities"})
		return
	}

	if len(opportunities) == 0 {
		c.JSON(http.StatusOK, []models.VolunteerOpportunity{})
		return
	}

	latest := opportunities[0]
	for _, op := range opportunities {
		if op.UpdatedAt.After(latest.UpdatedAt) {
			latest = op
		}
	}

	etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

	c.JSON(http.StatusOK, opportunities)
}

// ---------------- CLOSE ----------------
// Closing an opportunity only stops new applications; existing ones keep
// their state and opportunities are never physically deleted. Idempotent.
func CloseOpportunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		col := cfg.Collection("opportunities")
		res, err := col.UpdateOne(ctx,
			bson.M{"_id": oid, "ngo_id": ngoID},
			bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}},
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not close opportunity"})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "opportunity not found or not owned"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "opportunity closed", "id": oid.Hex()})
	}
}
