package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// MinDescriptionLen is the shortest campaign description admins will review.
	MinDescriptionLen = 10

	// RejectDeleteThreshold is the two-strike limit: a campaign rejected this
	// many times without ever being approved is deleted outright.
	RejectDeleteThreshold = 2
)

type Campaign struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NgoID    primitive.ObjectID `bson:"ngo_id" json:"ngo_id"`
	NgoEmail string             `bson:"ngo_email" json:"ngo_email"`

	Description   string `bson:"description" json:"description"`
	AcceptsMoney  bool   `bson:"accepts_money" json:"accepts_money"`
	AcceptsTime   bool   `bson:"accepts_time" json:"accepts_time"`
	VolunteerTime *int   `bson:"volunteer_time,omitempty" json:"volunteer_time,omitempty"`

	Approved       bool   `bson:"approved" json:"approved"`
	RejectFlag     int    `bson:"reject_flag" json:"reject_flag"`
	Feedback       string `bson:"feedback,omitempty" json:"feedback,omitempty"`
	PendingCheckup bool   `bson:"pending_checkup" json:"pending_checkup"`

	// ExpirationTime == nil means the campaign never expires and may be
	// deleted on demand. ManualDeletionAllowed is kept in lockstep with it
	// through setExpiration; nothing else writes either field.
	ExpirationTime        *time.Time `bson:"expiration_time,omitempty" json:"expiration_time,omitempty"`
	ManualDeletionAllowed bool       `bson:"manual_deletion_allowed" json:"manual_deletion_allowed"`

	// Amount is the running sum of money donations. It is updated in the
	// same atomic write that appends the donation record.
	Amount    int                `bson:"amount" json:"amount"`
	Donations []CampaignDonation `bson:"donations" json:"donations"`

	Images    []string  `bson:"images" json:"images"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CampaignDonation is an append-only ledger entry owned by one campaign.
type CampaignDonation struct {
	DonorEmail    string    `bson:"donor_email" json:"donor_email"`
	Amount        *int      `bson:"amount,omitempty" json:"amount,omitempty"`
	VolunteerTime bool      `bson:"volunteer_time" json:"volunteer_time"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// CampaignInput carries the fields an NGO supplies when opening a campaign.
type CampaignInput struct {
	Description   string
	Expiration    *time.Time
	VolunteerTime *int
	AcceptsMoney  bool
	AcceptsTime   bool
}

func validateCampaign(in CampaignInput) error {
	if len(in.Description) < MinDescriptionLen {
		return Validationf("description must be at least %d characters", MinDescriptionLen)
	}
	if !in.AcceptsMoney && !in.AcceptsTime {
		return Validationf("campaign must accept money or volunteer time")
	}
	if in.AcceptsTime && (in.VolunteerTime == nil || *in.VolunteerTime <= 0) {
		return Validationf("volunteer_time must be a positive number of hours when time is accepted")
	}
	return nil
}

// NewCampaign validates the input and returns an unapproved campaign snapshot.
func NewCampaign(ngoID primitive.ObjectID, ngoEmail string, in CampaignInput, now time.Time) (*Campaign, error) {
	if err := validateCampaign(in); err != nil {
		return nil, err
	}

	c := &Campaign{
		ID:            primitive.NewObjectID(),
		NgoID:         ngoID,
		NgoEmail:      ngoEmail,
		Description:   in.Description,
		AcceptsMoney:  in.AcceptsMoney,
		AcceptsTime:   in.AcceptsTime,
		VolunteerTime: in.VolunteerTime,
		Approved:      false,
		RejectFlag:    0,
		Donations:     []CampaignDonation{},
		Images:        []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	c.setExpiration(in.Expiration)
	return c, nil
}

// setExpiration is the single place the expiry and its derived deletion rule
// change: no expiry means the NGO may delete the campaign whenever it likes.
func (c *Campaign) setExpiration(t *time.Time) {
	c.ExpirationTime = t
	c.ManualDeletionAllowed = t == nil
}

// CampaignPatch is a partial update from the owning NGO. Expiration uses two
// fields: setting one while ClearExpiration is false leaves the expiry alone.
type CampaignPatch struct {
	Description     *string
	Expiration      *time.Time
	ClearExpiration bool
	VolunteerTime   *int
	AcceptsMoney    *bool
	AcceptsTime     *bool
}

// ApplyPatch merges the patch, re-validates the merged result against the same
// rules as creation, and clears the pending-checkup flag: editing is the only
// way a rejected campaign re-enters the admin review queue.
func (c *Campaign) ApplyPatch(p CampaignPatch, now time.Time) error {
	merged := CampaignInput{
		Description:   c.Description,
		Expiration:    c.ExpirationTime,
		VolunteerTime: c.VolunteerTime,
		AcceptsMoney:  c.AcceptsMoney,
		AcceptsTime:   c.AcceptsTime,
	}
	if p.Description != nil {
		merged.Description = *p.Description
	}
	if p.VolunteerTime != nil {
		merged.VolunteerTime = p.VolunteerTime
	}
	if p.AcceptsMoney != nil {
		merged.AcceptsMoney = *p.AcceptsMoney
	}
	if p.AcceptsTime != nil {
		merged.AcceptsTime = *p.AcceptsTime
	}
	if p.ClearExpiration {
		merged.Expiration = nil
	} else if p.Expiration != nil {
		merged.Expiration = p.Expiration
	}

	if err := validateCampaign(merged); err != nil {
		return err
	}

	c.Description = merged.Description
	c.VolunteerTime = merged.VolunteerTime
	c.AcceptsMoney = merged.AcceptsMoney
	c.AcceptsTime = merged.AcceptsTime
	c.setExpiration(merged.Expiration)
	c.PendingCheckup = false
	c.UpdatedAt = now
	return nil
}

// Approve marks the campaign approved. Approving twice is a state error.
func (c *Campaign) Approve(notes string, now time.Time) error {
	if c.Approved {
		return Statef("campaign is already approved")
	}
	c.Approved = true
	if notes != "" {
		c.Feedback = notes
	}
	c.UpdatedAt = now
	return nil
}

// RegisterRejection records an admin rejection. The reject counter only ever
// grows; reaching RejectDeleteThreshold reports deleted=true and the caller
// must remove the campaign instead of saving it.
func (c *Campaign) RegisterRejection(reason string, now time.Time) (deleted bool, err error) {
	if c.Approved {
		return false, Statef("campaign is already approved")
	}
	c.RejectFlag++
	if c.RejectFlag >= RejectDeleteThreshold {
		return true, nil
	}
	c.Feedback = reason
	c.PendingCheckup = true
	c.UpdatedAt = now
	return false, nil
}

// CanDeleteManually reports whether the owning NGO may delete on demand.
func (c *Campaign) CanDeleteManually() error {
	if !c.ManualDeletionAllowed {
		return Conflictf("campaign cannot be deleted manually: an expiry date is set")
	}
	return nil
}

// ValidateDonation checks a prospective donation against the accepts flags.
func (c *Campaign) ValidateDonation(amount *int, volunteerTime bool) error {
	if amount != nil && *amount < 0 {
		return Validationf("donation amount cannot be negative")
	}
	if amount == nil && !volunteerTime {
		return Validationf("donation must carry money, a time pledge, or both")
	}
	if amount != nil && !c.AcceptsMoney {
		return Validationf("this campaign does not accept money donations")
	}
	if volunteerTime && !c.AcceptsTime {
		return Validationf("this campaign does not accept time donations")
	}
	return nil
}

// AcceptDonation appends a ledger entry and bumps the running total. The
// persistent form of this is a single $push + $inc write; this snapshot form
// keeps the same invariant for callers holding the document in memory.
func (c *Campaign) AcceptDonation(d CampaignDonation) error {
	if err := c.ValidateDonation(d.Amount, d.VolunteerTime); err != nil {
		return err
	}
	c.Donations = append(c.Donations, d)
	if d.Amount != nil {
		c.Amount += *d.Amount
	}
	c.UpdatedAt = d.CreatedAt
	return nil
}

// Expired reports whether the sweeper should remove this campaign. The
// boundary is inclusive to match the sweep's $lte filter: a campaign exactly
// at its expiration instant is already gone.
func (c *Campaign) Expired(now time.Time) bool {
	return c.ExpirationTime != nil && !now.Before(*c.ExpirationTime)
}
