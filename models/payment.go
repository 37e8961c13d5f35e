package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PaymentSuccess = "SUCCESS"
	PaymentFailed  = "FAILED"
)

// MinDirectDonation is the floor for direct NGO donations; amounts at or
// below it are rejected before the gateway is ever contacted.
const MinDirectDonation = 50.0

// Payment is an append-only record of a direct money transfer to an NGO.
// A FAILED payment is a kept business outcome, not an error.
type Payment struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TransactionRef string              `bson:"transaction_ref" json:"transaction_ref"`
	DonorID        primitive.ObjectID  `bson:"donor_id" json:"donor_id"`
	NgoID          primitive.ObjectID  `bson:"ngo_id" json:"ngo_id"`
	CampaignID     *primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	Amount         float64             `bson:"amount" json:"amount"`
	Status         string              `bson:"status" json:"status"`
	CreatedAt      time.Time           `bson:"created_at" json:"created_at"`
}

// ValidateDirectDonation enforces the minimum-contribution floor.
func ValidateDirectDonation(amount float64) error {
	if amount <= MinDirectDonation {
		return Validationf("amount must be greater than %.0f", MinDirectDonation)
	}
	return nil
}
