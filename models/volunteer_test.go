package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestOpportunity(t *testing.T, max int) *VolunteerOpportunity {
	t.Helper()
	opp, err := NewOpportunity(primitive.NewObjectID(), OpportunityInput{
		Title:         "River cleanup",
		Description:   "Help clear debris from the riverbank",
		MaxVolunteers: max,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewOpportunity: %v", err)
	}
	return opp
}

func TestNewOpportunity_Validation(t *testing.T) {
	ngoID := primitive.NewObjectID()
	now := time.Now()
	start := now
	end := now.Add(-time.Hour)

	tests := []struct {
		name    string
		in      OpportunityInput
		wantErr bool
	}{
		{"missing title", OpportunityInput{Description: "d"}, true},
		{"missing description", OpportunityInput{Title: "t"}, true},
		{"end before start", OpportunityInput{Title: "t", Description: "d", StartDate: &start, EndDate: &end}, true},
		{"valid", OpportunityInput{Title: "t", Description: "d"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpportunity(ngoID, tt.in, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewOpportunity_Defaults(t *testing.T) {
	opp, err := NewOpportunity(primitive.NewObjectID(), OpportunityInput{
		Title: "River cleanup", Description: "Help clear debris",
	}, time.Now())
	if err != nil {
		t.Fatalf("NewOpportunity: %v", err)
	}
	if opp.MaxVolunteers != 1 {
		t.Errorf("MaxVolunteers = %d, want default 1", opp.MaxVolunteers)
	}
	if opp.CurrentVolunteers != 0 {
		t.Errorf("CurrentVolunteers = %d, want 0", opp.CurrentVolunteers)
	}
	if !opp.Active {
		t.Error("new opportunity must be active")
	}
	if opp.LinkedCampaignID != nil {
		t.Error("unlinked opportunity must have nil LinkedCampaignID")
	}
}

func TestOpportunity_CapacityBounds(t *testing.T) {
	opp := newTestOpportunity(t, 2)

	if !opp.HasCapacity() {
		t.Fatal("fresh opportunity must have capacity")
	}
	if err := opp.AddVolunteer(); err != nil {
		t.Fatalf("first AddVolunteer: %v", err)
	}
	if err := opp.AddVolunteer(); err != nil {
		t.Fatalf("second AddVolunteer: %v", err)
	}
	if opp.HasCapacity() {
		t.Error("full opportunity must report no capacity")
	}

	err := opp.AddVolunteer()
	if KindOf(err) != KindConflict {
		t.Errorf("overfill kind = %q, want %q", KindOf(err), KindConflict)
	}
	if opp.CurrentVolunteers != 2 {
		t.Errorf("CurrentVolunteers = %d, want 2", opp.CurrentVolunteers)
	}

	opp.ReleaseVolunteer()
	if opp.CurrentVolunteers != 1 {
		t.Errorf("CurrentVolunteers after release = %d, want 1", opp.CurrentVolunteers)
	}
	if !opp.HasCapacity() {
		t.Error("released slot must restore capacity")
	}

	opp.ReleaseVolunteer()
	opp.ReleaseVolunteer() // no-op at zero
	if opp.CurrentVolunteers != 0 {
		t.Errorf("CurrentVolunteers = %d, want 0", opp.CurrentVolunteers)
	}
}

func TestOpportunity_ClosedHasNoCapacity(t *testing.T) {
	opp := newTestOpportunity(t, 5)
	opp.Active = false

	if opp.HasCapacity() {
		t.Error("inactive opportunity must report no capacity")
	}
	if KindOf(opp.AddVolunteer()) != KindConflict {
		t.Error("adding to an inactive opportunity must conflict")
	}
}

func TestNewApplication(t *testing.T) {
	donorID := primitive.NewObjectID()
	opp := newTestOpportunity(t, 1)

	v, err := NewApplication(donorID, opp, "happy to help", 5, time.Now())
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	if v.Status != StatusPending {
		t.Errorf("Status = %s, want %s", v.Status, StatusPending)
	}
	if v.NgoID != opp.NgoID {
		t.Error("application must denormalize the opportunity's NGO id")
	}
	if v.HoursCommitted != 5 {
		t.Errorf("HoursCommitted = %d, want 5", v.HoursCommitted)
	}
	if v.HoursCompleted != 0 {
		t.Errorf("HoursCompleted = %d, want 0", v.HoursCompleted)
	}
}

func TestNewApplication_Rejections(t *testing.T) {
	donorID := primitive.NewObjectID()

	full := newTestOpportunity(t, 1)
	if err := full.AddVolunteer(); err != nil {
		t.Fatalf("AddVolunteer: %v", err)
	}

	closed := newTestOpportunity(t, 1)
	closed.Active = false

	tests := []struct {
		name    string
		opp     *VolunteerOpportunity
		hours   int
		wantErr ErrorKind
	}{
		{"zero hours", newTestOpportunity(t, 1), 0, KindValidation},
		{"negative hours", newTestOpportunity(t, 1), -3, KindValidation},
		{"no capacity", full, 5, KindConflict},
		{"inactive opportunity", closed, 5, KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewApplication(donorID, tt.opp, "", tt.hours, time.Now())
			if KindOf(err) != tt.wantErr {
				t.Errorf("error kind = %q, want %q (err: %v)", KindOf(err), tt.wantErr, err)
			}
		})
	}
}

func TestVolunteer_Approve_OnlyFromPending(t *testing.T) {
	ngoID := primitive.NewObjectID()

	tests := []struct {
		status  VolunteerStatus
		wantErr ErrorKind
	}{
		{StatusPending, ""},
		{StatusApproved, KindState},
		{StatusRejected, KindState},
		{StatusCompleted, KindState},
		{StatusCancelled, KindState},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			v := &Volunteer{NgoID: ngoID, Status: tt.status}
			err := v.Approve(ngoID)
			if KindOf(err) != tt.wantErr {
				t.Fatalf("error kind = %q, want %q", KindOf(err), tt.wantErr)
			}
			if tt.wantErr != "" && v.Status != tt.status {
				t.Errorf("failed approve must leave status %s, got %s", tt.status, v.Status)
			}
			if tt.wantErr == "" && v.Status != StatusApproved {
				t.Errorf("Status = %s, want %s", v.Status, StatusApproved)
			}
		})
	}
}

func TestVolunteer_Approve_WrongNGO(t *testing.T) {
	v := &Volunteer{NgoID: primitive.NewObjectID(), Status: StatusPending}
	err := v.Approve(primitive.NewObjectID())
	if KindOf(err) != KindAuthorization {
		t.Errorf("error kind = %q, want %q", KindOf(err), KindAuthorization)
	}
	if v.Status != StatusPending {
		t.Error("failed approve must not change status")
	}
}

func TestVolunteer_Complete(t *testing.T) {
	ngoID := primitive.NewObjectID()
	v := &Volunteer{NgoID: ngoID, Status: StatusPending, HoursCommitted: 5}

	// Completing a pending application is a state error.
	if KindOf(v.Complete(8, time.Now())) != KindState {
		t.Error("completing a pending application must be a state error")
	}

	if err := v.Approve(ngoID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := v.Complete(8, time.Now()); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if v.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", v.Status, StatusCompleted)
	}
	if v.HoursCompleted != 8 {
		t.Errorf("HoursCompleted = %d, want 8", v.HoursCompleted)
	}
	if v.CompletedDate == nil {
		t.Error("CompletedDate must be stamped")
	}

	// A second completion is a state error and changes nothing.
	if KindOf(v.Complete(2, time.Now())) != KindState {
		t.Error("double completion must be a state error")
	}
	if v.HoursCompleted != 8 {
		t.Errorf("HoursCompleted = %d, want 8 after failed re-completion", v.HoursCompleted)
	}
}

func TestVolunteer_Complete_NegativeHours(t *testing.T) {
	v := &Volunteer{Status: StatusApproved}
	if KindOf(v.Complete(-1, time.Now())) != KindValidation {
		t.Error("negative hours must be a validation error")
	}
}

func TestVolunteer_Cancel(t *testing.T) {
	tests := []struct {
		status      VolunteerStatus
		wantRelease bool
		wantErr     ErrorKind
	}{
		{StatusPending, false, ""},
		{StatusApproved, true, ""},
		{StatusRejected, false, KindState},
		{StatusCompleted, false, KindState},
		{StatusCancelled, false, KindState},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			v := &Volunteer{Status: tt.status}
			release, err := v.Cancel()
			if KindOf(err) != tt.wantErr {
				t.Fatalf("error kind = %q, want %q", KindOf(err), tt.wantErr)
			}
			if tt.wantErr != "" {
				if v.Status != tt.status {
					t.Errorf("failed cancel must leave status %s, got %s", tt.status, v.Status)
				}
				return
			}
			if release != tt.wantRelease {
				t.Errorf("release = %v, want %v", release, tt.wantRelease)
			}
			if v.Status != StatusCancelled {
				t.Errorf("Status = %s, want %s", v.Status, StatusCancelled)
			}
		})
	}
}

func TestVolunteerStatus_Terminal(t *testing.T) {
	terminal := []VolunteerStatus{StatusRejected, StatusCompleted, StatusCancelled}
	open := []VolunteerStatus{StatusPending, StatusApproved, StatusInProgress}

	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestActiveApplicationStatuses_OnlyRejectedFreesTheDonor(t *testing.T) {
	all := []VolunteerStatus{
		StatusPending, StatusApproved, StatusRejected,
		StatusInProgress, StatusCompleted, StatusCancelled,
	}

	active := map[VolunteerStatus]bool{}
	for _, s := range ActiveApplicationStatuses() {
		active[s] = true
	}

	for _, s := range all {
		want := s != StatusRejected
		if active[s] != want {
			t.Errorf("ActiveApplicationStatuses contains %s = %v, want %v", s, active[s], want)
		}
	}
}
