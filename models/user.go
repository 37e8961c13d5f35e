package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleDonor = "donor"
	RoleNGO   = "ngo"
	RoleAdmin = "admin"
)

// User is a platform account. Registration and credentials live with the
// external auth service; this collection only mirrors what the backend needs
// for ownership checks and donor-side aggregates.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email string             `bson:"email" json:"email"`
	Name  string             `bson:"name,omitempty" json:"name,omitempty"`
	Role  string             `bson:"role" json:"role"`

	// TotalDonated sums the donor's successful direct donations. Updated
	// with an atomic $inc alongside the Payment insert.
	TotalDonated float64 `bson:"total_donated" json:"total_donated"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
