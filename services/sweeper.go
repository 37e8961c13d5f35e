package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/promittee/givehub-go/config"
	models "github.com/promittee/givehub-go/models"
	utils "github.com/promittee/givehub-go/utils"
)

// StartSweeper launches the daily campaign-expiration sweep. It fires at the
// next local midnight and every 24 hours after that, independent of request
// traffic.
func StartSweeper(cfg *config.Config) {
	go func() {
		log.Println("Expiration sweeper started...")
		for {
			wait := time.Until(NextMidnight(time.Now()))
			time.Sleep(wait)

			if n, err := DeleteExpiredCampaigns(cfg); err != nil {
				log.Printf("Expiration sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Expiration sweep deleted %d campaign(s)", n)
			}
		}
	}()
}

// NextMidnight returns the first local midnight strictly after now.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// DeleteExpiredCampaigns removes every campaign whose expiration time has
// passed, along with its uploaded images. Campaigns without an expiration are
// never touched: the $lte filter only matches documents that carry the field.
func DeleteExpiredCampaigns(cfg *config.Config) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	col := cfg.Collection("campaigns")

	cursor, err := col.Find(ctx, bson.M{
		"expiration_time": bson.M{"$lte": time.Now()},
	})
	if err != nil {
		return 0, err
	}

	var expired []models.Campaign
	if err := cursor.All(ctx, &expired); err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, 0, len(expired))
	for _, campaign := range expired {
		ids = append(ids, campaign.ID)
	}

	res, err := col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}

	for _, campaign := range expired {
		for _, img := range campaign.Images {
			if err := utils.DeleteFromCloudinary(img); err != nil {
				log.Printf("Failed to delete image for expired campaign %s: %v", campaign.ID.Hex(), err)
			}
		}
	}

	return res.DeletedCount, nil
}
