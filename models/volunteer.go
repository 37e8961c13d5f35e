package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VolunteerStatus is the application lifecycle state.
//
// IN_PROGRESS exists for parity with clients that already know the value but
// no transition currently produces it; APPROVED moves straight to COMPLETED.
type VolunteerStatus string

const (
	StatusPending    VolunteerStatus = "PENDING"
	StatusApproved   VolunteerStatus = "APPROVED"
	StatusRejected   VolunteerStatus = "REJECTED"
	StatusInProgress VolunteerStatus = "IN_PROGRESS"
	StatusCompleted  VolunteerStatus = "COMPLETED"
	StatusCancelled  VolunteerStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s VolunteerStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ActiveApplicationStatuses lists every status that blocks a donor from
// applying to the same opportunity again. Only a REJECTED application frees
// the donor for a fresh attempt; the unique partial index on volunteers uses
// this list as its filter.
func ActiveApplicationStatuses() []VolunteerStatus {
	return []VolunteerStatus{
		StatusPending,
		StatusApproved,
		StatusInProgress,
		StatusCompleted,
		StatusCancelled,
	}
}

type VolunteerOpportunity struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NgoID primitive.ObjectID `bson:"ngo_id" json:"ngo_id"`

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Location    string `bson:"location,omitempty" json:"location,omitempty"`

	StartDate *time.Time `bson:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time `bson:"end_date,omitempty" json:"end_date,omitempty"`

	MaxVolunteers     int      `bson:"max_volunteers" json:"max_volunteers"`
	CurrentVolunteers int      `bson:"current_volunteers" json:"current_volunteers"`
	SkillsRequired    []string `bson:"skills_required,omitempty" json:"skills_required,omitempty"`

	LinkedCampaignID *primitive.ObjectID `bson:"linked_campaign_id,omitempty" json:"linked_campaign_id,omitempty"`
	Active           bool                `bson:"active" json:"active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type OpportunityInput struct {
	Title            string
	Description      string
	Location         string
	StartDate        *time.Time
	EndDate          *time.Time
	MaxVolunteers    int
	SkillsRequired   []string
	LinkedCampaignID *primitive.ObjectID
}

// NewOpportunity validates the input and returns an open opportunity with no
// volunteers yet. MaxVolunteers defaults to a single slot.
func NewOpportunity(ngoID primitive.ObjectID, in OpportunityInput, now time.Time) (*VolunteerOpportunity, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, Validationf("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, Validationf("description is required")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, Validationf("end date cannot be before start date")
	}

	max := in.MaxVolunteers
	if max < 1 {
		max = 1
	}

	return &VolunteerOpportunity{
		ID:                primitive.NewObjectID(),
		NgoID:             ngoID,
		Title:             in.Title,
		Description:       in.Description,
		Location:          in.Location,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		MaxVolunteers:     max,
		CurrentVolunteers: 0,
		SkillsRequired:    in.SkillsRequired,
		LinkedCampaignID:  in.LinkedCampaignID,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// HasCapacity reports whether another application could still be approved.
func (o *VolunteerOpportunity) HasCapacity() bool {
	return o.Active && o.CurrentVolunteers < o.MaxVolunteers
}

// AddVolunteer occupies one slot. The persistent form is a conditional $inc
// that re-checks the bound; this is the same rule on an in-memory snapshot.
func (o *VolunteerOpportunity) AddVolunteer() error {
	if !o.Active {
		return Conflictf("opportunity is no longer active")
	}
	if o.CurrentVolunteers >= o.MaxVolunteers {
		return Conflictf("no available slots for this opportunity")
	}
	o.CurrentVolunteers++
	return nil
}

// ReleaseVolunteer frees a slot after a cancelled approval.
func (o *VolunteerOpportunity) ReleaseVolunteer() {
	if o.CurrentVolunteers > 0 {
		o.CurrentVolunteers--
	}
}

type Volunteer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID       primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	OpportunityID primitive.ObjectID `bson:"opportunity_id" json:"opportunity_id"`

	// NgoID is copied from the opportunity at application time so NGO-side
	// queries never need a join.
	NgoID primitive.ObjectID `bson:"ngo_id" json:"ngo_id"`

	ApplicationDate time.Time       `bson:"application_date" json:"application_date"`
	Status          VolunteerStatus `bson:"status" json:"status"`

	DonorMessage string `bson:"donor_message,omitempty" json:"donor_message,omitempty"`
	NgoFeedback  string `bson:"ngo_feedback,omitempty" json:"ngo_feedback,omitempty"`

	HoursCommitted int        `bson:"hours_committed" json:"hours_committed"`
	HoursCompleted int        `bson:"hours_completed" json:"hours_completed"`
	CompletedDate  *time.Time `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
}

// NewApplication builds a PENDING application against an open opportunity.
// The duplicate-application guard is a storage-level query and stays with the
// caller; everything checkable from the snapshot is checked here.
func NewApplication(donorID primitive.ObjectID, opp *VolunteerOpportunity, message string, hoursCommitted int, now time.Time) (*Volunteer, error) {
	if hoursCommitted <= 0 {
		return nil, Validationf("hours_committed must be greater than 0")
	}
	if !opp.Active {
		return nil, Conflictf("opportunity is no longer active")
	}
	if !opp.HasCapacity() {
		return nil, Conflictf("no available slots for this opportunity")
	}

	return &Volunteer{
		ID:              primitive.NewObjectID(),
		DonorID:         donorID,
		OpportunityID:   opp.ID,
		NgoID:           opp.NgoID,
		ApplicationDate: now,
		Status:          StatusPending,
		DonorMessage:    message,
		HoursCommitted:  hoursCommitted,
		HoursCompleted:  0,
	}, nil
}

// Approve moves PENDING to APPROVED for the owning NGO. The caller must pair
// this with occupying a slot on the opportunity as one logical unit.
func (v *Volunteer) Approve(ngoID primitive.ObjectID) error {
	if v.NgoID != ngoID {
		return Authorizationf("not authorized to approve this application")
	}
	if v.Status != StatusPending {
		return Statef("application is not pending (status %s)", v.Status)
	}
	v.Status = StatusApproved
	return nil
}

// Complete moves APPROVED to COMPLETED and records the hours worked.
func (v *Volunteer) Complete(hoursDone int, now time.Time) error {
	if hoursDone < 0 {
		return Validationf("hours_done cannot be negative")
	}
	if v.Status != StatusApproved {
		return Statef("application must be approved before completion (status %s)", v.Status)
	}
	v.Status = StatusCompleted
	v.HoursCompleted = hoursDone
	v.CompletedDate = &now
	return nil
}

// Cancel moves any non-terminal status to CANCELLED. releaseSlot is true when
// the application had already been approved, in which case the caller must
// hand the occupied slot back to the opportunity.
func (v *Volunteer) Cancel() (releaseSlot bool, err error) {
	if v.Status.Terminal() {
		return false, Statef("application is already %s", v.Status)
	}
	releaseSlot = v.Status == StatusApproved
	v.Status = StatusCancelled
	return releaseSlot, nil
}
