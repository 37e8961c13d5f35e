package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
	utils "github.com/promittee/givehub-go/utils"
)

// ---------------- CREATE ----------------
func CreateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// --- Authenticated NGO ---
		if c.GetString("role") != models.RoleNGO {
			c.JSON(http.StatusForbidden, gin.H{"error": "only NGOs can create campaigns"})
			return
		}
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		// --- Bind form fields ---
		var input struct {
			Description   string  `form:"description" binding:"required"`
			Expiration    *string `form:"expiration"`
			VolunteerTime *int    `form:"volunteer_time"`
			AcceptsMoney  bool    `form:"accepts_money"`
			AcceptsTime   bool    `form:"accepts_time"`
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// --- Parse expiration if provided ---
		var expiration *time.Time
		if input.Expiration != nil && *input.Expiration != "" {
			parsed, err := parseFlexibleTime(*input.Expiration)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiration format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			expiration = &parsed
		}

		campaign, err := models.NewCampaign(ngoID, c.GetString("email"), models.CampaignInput{
			Description:   input.Description,
			Expiration:    expiration,
			VolunteerTime: input.VolunteerTime,
			AcceptsMoney:  input.AcceptsMoney,
			AcceptsTime:   input.AcceptsTime,
		}, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}

		// --- Handle image uploads ---
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
			return
		}
		if form != nil {
			files := form.File["images"] // key must be "images"
			for _, fileHeader := range files {
				file, err := fileHeader.Open()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open file"})
					return
				}

				url, err := utils.UploadToCloudinary(file, fileHeader)
				file.Close()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{
						"error":   "image upload failed",
						"details": err.Error(),
						"file":    fileHeader.Filename,
					})
					return
				}

				campaign.Images = append(campaign.Images, url)
			}
		}

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := col.InsertOne(ctx, campaign); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create campaign"})
			return
		}

		c.JSON(http.StatusCreated, campaign)
	}
}

// ---------------- LIST (owner) ----------------
func ListMyCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		listCampaigns(c, cfg, bson.M{"ngo_id": ngoID})
	}
}

// ---------------- LIST (public, approved & unexpired) ----------------
func ListApprovedCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		listCampaigns(c, cfg, bson.M{
			"approved": true,
			"$or": []bson.M{
				{"expiration_time": bson.M{"$exists": false}},
				{"expiration_time": bson.M{"$gt": time.Now()}},
			},
		})
	}
}

// ---------------- LIST (admin review queue) ----------------
// Rejected campaigns awaiting NGO revision stay out of the queue unless
// ?include_pending=true: there is nothing new for an admin to review.
func ListUnapprovedCampaigns(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		filter := bson.M{"approved": false}
		if c.Query("include_pending") != "true" {
			filter["pending_checkup"] = false
		}

		listCampaigns(c, cfg, filter)
	}
}

func listCampaigns(c *gin.Context, cfg *config.Config, filter bson.M) {
	col := cfg.Collection("campaigns")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := col.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch campaigns"})
		return
	}

	var campaigns []models.Campaign
	if err := cursor.All(ctx, &campaigns); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode campaigns"})
		return
	}

	if len(campaigns) == 0 {
		c.JSON(http.StatusOK, []models.Campaign{})
		return
	}

	// --- Pick the most recently updated campaign ---
	latest := campaigns[0]
	for _, cp := range campaigns {
		if cp.UpdatedAt.After(latest.UpdatedAt) {
			latest = cp
		}
	}

	// --- Generate ETag from latest campaign ---
	etag := utils.GenerateETag(latest.ID, latest.UpdatedAt)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

	c.JSON(http.StatusOK, campaigns)
}

// ---------------- GET ----------------
func GetCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var campaign models.Campaign
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = cfg.Collection("campaigns").
			FindOne(ctx, bson.M{"_id": oid}).
			Decode(&campaign)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		etag := utils.GenerateETag(campaign.ID, campaign.UpdatedAt)
		if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
			c.Status(http.StatusNotModified)
			return
		}
		c.Header("ETag", etag)

		c.JSON(http.StatusOK, campaign)
	}
}

// ---------------- UPDATE ----------------
func UpdateCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("user_id")
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Description     *string `json:"description"`
			Expiration      *string `json:"expiration"`
			ClearExpiration bool    `json:"clear_expiration"`
			VolunteerTime   *int    `json:"volunteer_time"`
			AcceptsMoney    *bool   `json:"accepts_money"`
			AcceptsTime     *bool   `json:"accepts_time"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		if existing.NgoID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		patch := models.CampaignPatch{
			Description:     input.Description,
			ClearExpiration: input.ClearExpiration,
			VolunteerTime:   input.VolunteerTime,
			AcceptsMoney:    input.AcceptsMoney,
			AcceptsTime:     input.AcceptsTime,
		}
		if input.Expiration != nil && *input.Expiration != "" {
			parsed, err := parseFlexibleTime(*input.Expiration)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expiration format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			patch.Expiration = &parsed
		}

		version := existing.UpdatedAt
		if err := existing.ApplyPatch(patch, time.Now()); err != nil {
			respondError(c, err)
			return
		}

		// Write only the fields an update owns; the donation ledger, strike
		// counter and approval fields must survive a concurrent writer. The
		// updated_at filter is the optimistic version check: if anything
		// touched the campaign since the read, match nothing and let the
		// client retry against a fresh copy.
		res, err := col.UpdateOne(ctx,
			bson.M{"_id": oid, "ngo_id": existing.NgoID, "updated_at": version},
			campaignPatchUpdate(&existing),
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update campaign"})
			return
		}
		if res.MatchedCount == 0 {
			respondError(c, models.Conflictf("campaign was modified concurrently, retry"))
			return
		}

		c.JSON(http.StatusOK, existing)
	}
}

// campaignPatchUpdate builds the $set/$unset document for a patched campaign
// snapshot. Optional fields that went nil are $unset so a cleared expiration
// really leaves the document; fields outside the patch surface (donations,
// amount, reject_flag, approved, feedback, images) are never written here.
func campaignPatchUpdate(campaign *models.Campaign) bson.M {
	set := bson.M{
		"description":             campaign.Description,
		"accepts_money":           campaign.AcceptsMoney,
		"accepts_time":            campaign.AcceptsTime,
		"manual_deletion_allowed": campaign.ManualDeletionAllowed,
		"pending_checkup":         campaign.PendingCheckup,
		"updated_at":              campaign.UpdatedAt,
	}
	unset := bson.M{}

	if campaign.VolunteerTime != nil {
		set["volunteer_time"] = campaign.VolunteerTime
	} else {
		unset["volunteer_time"] = ""
	}
	if campaign.ExpirationTime != nil {
		set["expiration_time"] = campaign.ExpirationTime
	} else {
		unset["expiration_time"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

// ---------------- DELETE (manual, owner) ----------------
func DeleteCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		requesterID := c.GetString("user_id")
		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var existing models.Campaign
		if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&existing); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		if c.GetString("role") != models.RoleAdmin && existing.NgoID.Hex() != requesterID {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		if err := existing.CanDeleteManually(); err != nil {
			respondError(c, err)
			return
		}

		res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete campaign"})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}

		for _, img := range existing.Images {
			utils.DeleteFromCloudinary(img)
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "campaign deleted successfully",
			"id":      oid.Hex(),
		})
	}
}

// ---------------- APPROVE (admin) ----------------
func ApproveCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Notes string `json:"notes"`
		}
		c.ShouldBindJSON(&input) // body is optional

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// pending_checkup is not touched here: only an NGO edit clears it.
		update := bson.M{
			"approved":   true,
			"updated_at": time.Now(),
		}
		if input.Notes != "" {
			update["feedback"] = input.Notes
		}

		// The approved:false filter makes check-then-set a single atomic
		// write: a second concurrent approval matches nothing.
		var approved models.Campaign
		err = col.FindOneAndUpdate(ctx,
			bson.M{"_id": oid, "approved": false},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&approved)
		if err == mongo.ErrNoDocuments {
			if n, _ := col.CountDocuments(ctx, bson.M{"_id": oid}); n == 0 {
				respondError(c, models.NotFoundf("campaign not found"))
			} else {
				respondError(c, models.Statef("campaign is already approved"))
			}
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve campaign"})
			return
		}

		go utils.NotifyCampaignApproved(approved.NgoEmail, approved.Description)

		c.JSON(http.StatusOK, approved)
	}
}

// ---------------- REJECT (admin, two-strike) ----------------
func RejectCampaign(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}

		oid, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
			return
		}

		var input struct {
			Reason string `json:"reason" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
			return
		}

		col := cfg.Collection("campaigns")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// $inc keeps the strike counter safe under concurrent rejections;
		// pending_checkup keeps the campaign out of the review queue until
		// the NGO edits it.
		var rejected models.Campaign
		err = col.FindOneAndUpdate(ctx,
			bson.M{"_id": oid, "approved": false},
			bson.M{
				"$inc": bson.M{"reject_flag": 1},
				"$set": bson.M{
					"feedback":        input.Reason,
					"pending_checkup": true,
					"updated_at":      time.Now(),
				},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&rejected)
		if err == mongo.ErrNoDocuments {
			if n, _ := col.CountDocuments(ctx, bson.M{"_id": oid}); n == 0 {
				respondError(c, models.NotFoundf("campaign not found"))
			} else {
				respondError(c, models.Statef("campaign is already approved"))
			}
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not reject campaign"})
			return
		}

		if rejected.RejectFlag >= models.RejectDeleteThreshold {
			if _, err := col.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete campaign"})
				return
			}
			for _, img := range rejected.Images {
				utils.DeleteFromCloudinary(img)
			}

			go utils.NotifyCampaignRejected(rejected.NgoEmail, rejected.Description, input.Reason, true)

			c.JSON(http.StatusOK, gin.H{
				"message": "campaign rejected twice and deleted",
				"deleted": true,
				"id":      oid.Hex(),
			})
			return
		}

		go utils.NotifyCampaignRejected(rejected.NgoEmail, rejected.Description, input.Reason, false)

		c.JSON(http.StatusOK, rejected)
	}
}
