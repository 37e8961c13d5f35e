package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func newTestCampaign(t *testing.T, in CampaignInput) *Campaign {
	t.Helper()
	c, err := NewCampaign(primitive.NewObjectID(), "ngo@example.org", in, time.Now())
	if err != nil {
		t.Fatalf("NewCampaign: %v", err)
	}
	return c
}

func TestNewCampaign_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      CampaignInput
		wantErr ErrorKind
	}{
		{
			name:    "short description",
			in:      CampaignInput{Description: "too short", AcceptsMoney: true},
			wantErr: KindValidation,
		},
		{
			name:    "neither money nor time",
			in:      CampaignInput{Description: "Help flood victims"},
			wantErr: KindValidation,
		},
		{
			name:    "time without volunteer hours",
			in:      CampaignInput{Description: "Help flood victims", AcceptsTime: true},
			wantErr: KindValidation,
		},
		{
			name:    "time with zero hours",
			in:      CampaignInput{Description: "Help flood victims", AcceptsTime: true, VolunteerTime: intPtr(0)},
			wantErr: KindValidation,
		},
		{
			name: "money only",
			in:   CampaignInput{Description: "Help flood victims", AcceptsMoney: true},
		},
		{
			name: "time with hours",
			in:   CampaignInput{Description: "Help flood victims", AcceptsTime: true, VolunteerTime: intPtr(20)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCampaign(primitive.NewObjectID(), "ngo@example.org", tt.in, time.Now())
			if tt.wantErr != "" {
				if KindOf(err) != tt.wantErr {
					t.Fatalf("error kind = %q, want %q (err: %v)", KindOf(err), tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Approved {
				t.Error("new campaign must not be approved")
			}
			if c.RejectFlag != 0 {
				t.Errorf("RejectFlag = %d, want 0", c.RejectFlag)
			}
			if c.PendingCheckup {
				t.Error("new campaign must not be pending checkup")
			}
		})
	}
}

func TestCampaign_ManualDeletionFollowsExpiration(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})
	if !c.ManualDeletionAllowed {
		t.Fatal("campaign without expiration must allow manual deletion")
	}
	if err := c.CanDeleteManually(); err != nil {
		t.Fatalf("CanDeleteManually: %v", err)
	}

	exp := time.Now().Add(48 * time.Hour)
	if err := c.ApplyPatch(CampaignPatch{Expiration: &exp}, time.Now()); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if c.ManualDeletionAllowed {
		t.Error("setting an expiration must forbid manual deletion")
	}
	if KindOf(c.CanDeleteManually()) != KindConflict {
		t.Errorf("CanDeleteManually kind = %q, want %q", KindOf(c.CanDeleteManually()), KindConflict)
	}

	if err := c.ApplyPatch(CampaignPatch{ClearExpiration: true}, time.Now()); err != nil {
		t.Fatalf("ApplyPatch clear: %v", err)
	}
	if !c.ManualDeletionAllowed {
		t.Error("clearing the expiration must re-allow manual deletion")
	}
	if c.ExpirationTime != nil {
		t.Error("cleared expiration must be nil")
	}
}

func TestCampaign_ApplyPatch_RevalidatesMergedResult(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})

	// Turning money off with time still off must fail and leave the
	// snapshot untouched.
	err := c.ApplyPatch(CampaignPatch{AcceptsMoney: boolPtr(false)}, time.Now())
	if KindOf(err) != KindValidation {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindValidation)
	}
	if !c.AcceptsMoney {
		t.Error("failed patch must not mutate the campaign")
	}

	err = c.ApplyPatch(CampaignPatch{Description: strPtr("tiny")}, time.Now())
	if KindOf(err) != KindValidation {
		t.Fatalf("error kind = %q, want %q", KindOf(err), KindValidation)
	}
}

func TestCampaign_ApplyPatch_ClearsPendingCheckup(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})

	if _, err := c.RegisterRejection("incomplete", time.Now()); err != nil {
		t.Fatalf("RegisterRejection: %v", err)
	}
	if !c.PendingCheckup {
		t.Fatal("rejection must set pending checkup")
	}

	if err := c.ApplyPatch(CampaignPatch{Description: strPtr("Help flood victims, revised")}, time.Now()); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}
	if c.PendingCheckup {
		t.Error("editing must clear pending checkup")
	}
}

func TestCampaign_Approve(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})

	if err := c.Approve("looks good", time.Now()); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !c.Approved {
		t.Fatal("campaign must be approved")
	}

	err := c.Approve("", time.Now())
	if KindOf(err) != KindState {
		t.Errorf("second approve kind = %q, want %q", KindOf(err), KindState)
	}
}

func TestCampaign_ApprovePreservesPendingCheckup(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})

	if _, err := c.RegisterRejection("incomplete", time.Now()); err != nil {
		t.Fatalf("RegisterRejection: %v", err)
	}
	if err := c.Approve("revised offline, fine now", time.Now()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// Only an NGO edit clears the flag; approval leaves it alone.
	if !c.PendingCheckup {
		t.Error("approval must not clear pending checkup")
	}
}

func TestCampaign_TwoStrikeRejection(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})

	deleted, err := c.RegisterRejection("incomplete", time.Now())
	if err != nil {
		t.Fatalf("first rejection: %v", err)
	}
	if deleted {
		t.Fatal("first rejection must not delete")
	}
	if c.RejectFlag != 1 {
		t.Errorf("RejectFlag = %d, want 1", c.RejectFlag)
	}
	if c.Feedback != "incomplete" {
		t.Errorf("Feedback = %q, want %q", c.Feedback, "incomplete")
	}
	if !c.PendingCheckup {
		t.Error("rejection must set pending checkup")
	}

	deleted, err = c.RegisterRejection("still incomplete", time.Now())
	if err != nil {
		t.Fatalf("second rejection: %v", err)
	}
	if !deleted {
		t.Error("second rejection must delete the campaign")
	}
}

func TestCampaign_RejectAfterApproveIsStateError(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})
	if err := c.Approve("", time.Now()); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	_, err := c.RegisterRejection("too late", time.Now())
	if KindOf(err) != KindState {
		t.Errorf("error kind = %q, want %q", KindOf(err), KindState)
	}
	if c.RejectFlag != 0 {
		t.Errorf("RejectFlag = %d, want 0 after failed rejection", c.RejectFlag)
	}
}

func TestCampaign_ValidateDonation(t *testing.T) {
	moneyOnly := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})
	timeOnly := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsTime: true, VolunteerTime: intPtr(10)})

	tests := []struct {
		name          string
		campaign      *Campaign
		amount        *int
		volunteerTime bool
		wantErr       ErrorKind
	}{
		{"money to money campaign", moneyOnly, intPtr(100), false, ""},
		{"time pledge to money-only campaign", moneyOnly, nil, true, KindValidation},
		{"money to time-only campaign", timeOnly, intPtr(100), false, KindValidation},
		{"time pledge to time campaign", timeOnly, nil, true, ""},
		{"empty donation", moneyOnly, nil, false, KindValidation},
		{"negative amount", moneyOnly, intPtr(-5), false, KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.campaign.ValidateDonation(tt.amount, tt.volunteerTime)
			if KindOf(err) != tt.wantErr {
				t.Errorf("error kind = %q, want %q (err: %v)", KindOf(err), tt.wantErr, err)
			}
		})
	}
}

func TestCampaign_AcceptDonation_KeepsAmountInSync(t *testing.T) {
	c := newTestCampaign(t, CampaignInput{
		Description: "Help flood victims", AcceptsMoney: true, AcceptsTime: true, VolunteerTime: intPtr(10),
	})

	donations := []CampaignDonation{
		{DonorEmail: "a@example.org", Amount: intPtr(100), CreatedAt: time.Now()},
		{DonorEmail: "b@example.org", VolunteerTime: true, CreatedAt: time.Now()},
		{DonorEmail: "c@example.org", Amount: intPtr(250), VolunteerTime: true, CreatedAt: time.Now()},
	}
	for _, d := range donations {
		if err := c.AcceptDonation(d); err != nil {
			t.Fatalf("AcceptDonation(%s): %v", d.DonorEmail, err)
		}
	}

	sum := 0
	for _, d := range c.Donations {
		if d.Amount != nil {
			sum += *d.Amount
		}
	}
	if c.Amount != sum {
		t.Errorf("Amount = %d, want sum of donations %d", c.Amount, sum)
	}
	if c.Amount != 350 {
		t.Errorf("Amount = %d, want 350", c.Amount)
	}
	if len(c.Donations) != 3 {
		t.Errorf("len(Donations) = %d, want 3", len(c.Donations))
	}
}

func TestCampaign_Expired(t *testing.T) {
	now := time.Now()

	never := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true})
	if never.Expired(now) {
		t.Error("campaign without expiration must never expire")
	}

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true, Expiration: &past})
	if !expired.Expired(now) {
		t.Error("campaign past its expiration must report expired")
	}

	live := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true, Expiration: &future})
	if live.Expired(now) {
		t.Error("campaign before its expiration must not report expired")
	}

	// The sweeper deletes with $lte, so the exact expiration instant already
	// counts as expired.
	boundary := newTestCampaign(t, CampaignInput{Description: "Help flood victims", AcceptsMoney: true, Expiration: &now})
	if !boundary.Expired(now) {
		t.Error("campaign exactly at its expiration must report expired")
	}
}
