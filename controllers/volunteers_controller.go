package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
)

// occupyOpportunitySlot bumps current_volunteers only while the bound still
// holds; the $expr filter makes the capacity check and the increment a single
// atomic write.
func occupyOpportunitySlot(ctx context.Context, cfg *config.Config, oppID primitive.ObjectID) error {
	res, err := cfg.Collection("opportunities").UpdateOne(ctx,
		bson.M{
			"_id":    oppID,
			"active": true,
			"$expr":  bson.M{"$lt": bson.A{"$current_volunteers", "$max_volunteers"}},
		},
		bson.M{
			"$inc": bson.M{"current_volunteers": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.Conflictf("opportunity is closed or has no available slots")
	}
	return nil
}

// releaseOpportunitySlot hands a slot back, never dropping below zero.
func releaseOpportunitySlot(ctx context.Context, cfg *config.Config, oppID primitive.ObjectID) error {
	_, err := cfg.Collection("opportunities").UpdateOne(ctx,
		bson.M{"_id": oppID, "current_volunteers": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"current_volunteers": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// ---------------- APPLY ----------------
func ApplyToOpportunity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleDonor {
			c.JSON(http.StatusForbidden, gin.H{"error": "only donors can apply"})
			return
		}
		donorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		oppID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opportunity id"})
			return
		}

		var input struct {
			Message        string `json:"message"`
			HoursCommitted int    `json:"hours_committed"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// One live application per donor per opportunity: a rejected one may
		// be retried, anything else blocks a resubmission. This pre-check
		// gives the common case a clean error; the unique partial index on
		// volunteers catches the race where two submissions interleave.
		vols := cfg.Collection("volunteers")
		n, err := vols.CountDocuments(ctx, bson.M{
			"donor_id":       donorID,
			"opportunity_id": oppID,
			"status":         bson.M{"$ne": models.StatusRejected},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check existing applications"})
			return
		}
		if n > 0 {
			respondError(c, models.Conflictf("already applied to this opportunity"))
			return
		}

		var opp models.VolunteerOpportunity
		if err := cfg.Collection("opportunities").FindOne(ctx, bson.M{"_id": oppID}).Decode(&opp); err != nil {
			respondError(c, models.NotFoundf("opportunity not found"))
			return
		}

		application, err := models.NewApplication(donorID, &opp, input.Message, input.HoursCommitted, time.Now())
		if err != nil {
			respondError(c, err)
			return
		}

		if _, err := vols.InsertOne(ctx, application); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, models.Conflictf("already applied to this opportunity"))
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit application"})
			return
		}

		c.JSON(http.StatusCreated, application)
	}
}

// ---------------- APPROVE (NGO) ----------------
// Occupying the slot and flipping the status form one logical unit. The slot
// is taken first; if the status CAS then loses (application no longer
// pending, or not ours), the slot is handed straight back.
func ApproveApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		volID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		vols := cfg.Collection("volunteers")
		var existing models.Volunteer
		if err := vols.FindOne(ctx, bson.M{"_id": volID}).Decode(&existing); err != nil {
			respondError(c, models.NotFoundf("volunteer application not found"))
			return
		}

		// Run the transition on the snapshot first: it reports authorization
		// and state problems without touching the opportunity.
		if err := existing.Approve(ngoID); err != nil {
			respondError(c, err)
			return
		}

		if err := occupyOpportunitySlot(ctx, cfg, existing.OpportunityID); err != nil {
			respondError(c, err)
			return
		}

		var approved models.Volunteer
		err = vols.FindOneAndUpdate(ctx,
			bson.M{"_id": volID, "ngo_id": ngoID, "status": models.StatusPending},
			bson.M{"$set": bson.M{"status": models.StatusApproved}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&approved)
		if err == mongo.ErrNoDocuments {
			// Lost the race; give the slot back.
			if e := releaseOpportunitySlot(ctx, cfg, existing.OpportunityID); e != nil {
				log.Printf("Failed to release slot on opportunity %s: %v", existing.OpportunityID.Hex(), e)
			}
			respondError(c, models.Statef("application is no longer pending"))
			return
		}
		if err != nil {
			if e := releaseOpportunitySlot(ctx, cfg, existing.OpportunityID); e != nil {
				log.Printf("Failed to release slot on opportunity %s: %v", existing.OpportunityID.Hex(), e)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not approve application"})
			return
		}

		c.JSON(http.StatusOK, approved)
	}
}

// ---------------- COMPLETE (NGO) ----------------
func CompleteApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		volID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		var input struct {
			HoursDone   int    `json:"hours_done"`
			NgoFeedback string `json:"ngo_feedback"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.HoursDone < 0 {
			respondError(c, models.Validationf("hours_done cannot be negative"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		now := time.Now()
		update := bson.M{
			"status":          models.StatusCompleted,
			"hours_completed": input.HoursDone,
			"completed_date":  now,
		}
		if input.NgoFeedback != "" {
			update["ngo_feedback"] = input.NgoFeedback
		}

		vols := cfg.Collection("volunteers")
		var completed models.Volunteer
		err = vols.FindOneAndUpdate(ctx,
			bson.M{"_id": volID, "ngo_id": ngoID, "status": models.StatusApproved},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&completed)
		if err == mongo.ErrNoDocuments {
			var existing models.Volunteer
			if e := vols.FindOne(ctx, bson.M{"_id": volID}).Decode(&existing); e != nil {
				respondError(c, models.NotFoundf("volunteer application not found"))
			} else if existing.NgoID != ngoID {
				respondError(c, models.Authorizationf("not authorized to complete this application"))
			} else {
				respondError(c, models.Statef("application must be approved before completion (status %s)", existing.Status))
			}
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not complete application"})
			return
		}

		c.JSON(http.StatusOK, completed)
	}
}

// ---------------- CANCEL (donor) ----------------
// Cancelling an already-approved application releases its slot so someone
// else can take it; a pending one just goes terminal.
func CancelApplication(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		volID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid application id"})
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		vols := cfg.Collection("volunteers")

		// ReturnDocument(Before) exposes the pre-cancel status, which decides
		// whether a slot has to be released.
		var before models.Volunteer
		err = vols.FindOneAndUpdate(ctx,
			bson.M{
				"_id":      volID,
				"donor_id": donorID,
				"status":   bson.M{"$in": bson.A{models.StatusPending, models.StatusApproved}},
			},
			bson.M{"$set": bson.M{"status": models.StatusCancelled}},
			options.FindOneAndUpdate().SetReturnDocument(options.Before),
		).Decode(&before)
		if err == mongo.ErrNoDocuments {
			var existing models.Volunteer
			if e := vols.FindOne(ctx, bson.M{"_id": volID, "donor_id": donorID}).Decode(&existing); e != nil {
				respondError(c, models.NotFoundf("volunteer application not found"))
			} else {
				respondError(c, models.Statef("application is already %s", existing.Status))
			}
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not cancel application"})
			return
		}

		if before.Status == models.StatusApproved {
			if err := releaseOpportunitySlot(ctx, cfg, before.OpportunityID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not release opportunity slot"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "application cancelled", "id": volID.Hex()})
	}
}

// ---------------- HISTORY ----------------
func MyApplications(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		donorID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		listApplications(c, cfg, bson.M{"donor_id": donorID})
	}
}

func NgoApplications(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ngoID, err := primitive.ObjectIDFromHex(c.GetString("user_id"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}

		listApplications(c, cfg, bson.M{"ngo_id": ngoID})
	}
}

func listApplications(c *gin.Context, cfg *config.Config, filter bson.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cfg.Collection("volunteers").Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch applications"})
		return
	}

	var applications []models.Volunteer
	if err := cursor.All(ctx, &applications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decode applications"})
		return
	}

	if len(applications) == 0 {
		c.JSON(http.StatusOK, []models.Volunteer{})
		return
	}

	c.JSON(http.StatusOK, applications)
}
