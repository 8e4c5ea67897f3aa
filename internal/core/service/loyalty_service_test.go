package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

func newLoyaltySvc(profiles *stubProfileRepo, scans *stubScanRepo, dedup ScanDeduplicator) *LoyaltyService {
	return NewLoyaltyService(domain.MustMilestoneTable(domain.DefaultMilestones()), profiles, scans, dedup, zerolog.Nop())
}

func seededProfiles(id string, points int) *stubProfileRepo {
	repo := newStubProfileRepo()
	repo.seed(domain.UserProfile{ID: id, Name: "Test", Points: points})
	return repo
}

func TestLoyaltyService_Scan_HappyPath(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	scans := &stubScanRepo{}
	svc := newLoyaltySvc(profiles, scans, newStubScanDedup())

	res, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.Points != 1 {
		t.Fatalf("expected 1 point, got %d", res.Points)
	}
	if len(res.NewlyAchieved) != 1 || res.NewlyAchieved[0].ID != "m1" {
		t.Fatalf("expected m1 unlocked, got %+v", res.NewlyAchieved)
	}
	if res.ResetRecommended {
		t.Fatalf("reset must not be recommended at 1 point")
	}
	if len(scans.events) != 1 || scans.events[0].UserID != "u1" || scans.events[0].PayloadDigest == "" {
		t.Fatalf("expected scan event recorded, got %+v", scans.events)
	}
	p := profiles.byID["u1"]
	if p.VisitsCount != 1 || p.ClaimedRewardsCount != 1 {
		t.Fatalf("expected visit and claimed reward counted, got %+v", p)
	}
	if res.Progress.Next == nil || res.Progress.Next.ID != "m2" {
		t.Fatalf("expected next milestone m2, got %+v", res.Progress.Next)
	}
}

func TestLoyaltyService_Scan_FullJourney(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, nil)

	unlocked := map[int]string{}
	for i := 0; i < 11; i++ {
		res, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1"})
		if err != nil {
			t.Fatalf("scan %d failed: %v", i, err)
		}
		for _, m := range res.NewlyAchieved {
			unlocked[res.Points] = m.ID
		}
		if res.ResetRecommended != (res.Points == 10) {
			t.Fatalf("reset recommendation wrong at %d points", res.Points)
		}
	}

	want := map[int]string{1: "m1", 3: "m2", 7: "m3", 10: "m4"}
	if len(unlocked) != len(want) {
		t.Fatalf("unexpected unlocks: %v", unlocked)
	}
	for pts, id := range want {
		if unlocked[pts] != id {
			t.Fatalf("expected %s at %d, got %v", id, pts, unlocked)
		}
	}
	if profiles.byID["u1"].ClaimedRewardsCount != 4 {
		t.Fatalf("expected 4 claimed rewards, got %d", profiles.byID["u1"].ClaimedRewardsCount)
	}
}

func TestLoyaltyService_Scan_DuplicatePayloadRejected(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, newStubScanDedup())

	if _, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"}); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	_, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"})
	if !errors.Is(err, domain.ErrDuplicateScan) {
		t.Fatalf("expected ErrDuplicateScan, got %v", err)
	}
	if profiles.byID["u1"].Points != 1 {
		t.Fatalf("duplicate scan must not add points")
	}
}

func TestLoyaltyService_Scan_DedupErrorProcessesAnyway(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	dedup := newStubScanDedup()
	dedup.err = errors.New("redis timeout")
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, dedup)

	res, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"})
	if err != nil {
		t.Fatalf("expected scan to proceed, got: %v", err)
	}
	if res.Points != 1 {
		t.Fatalf("expected 1 point, got %d", res.Points)
	}
}

func TestLoyaltyService_Scan_IncrementFailureReleasesPayload(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	profiles.incErr = errors.New("write conflict")
	dedup := newStubScanDedup()
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, dedup)

	if _, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(dedup.released) != 1 {
		t.Fatalf("expected payload released for retry")
	}

	profiles.incErr = nil
	if _, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1", Payload: "receipt-1"}); err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
}

func TestLoyaltyService_Scan_ProvisionsMissingProfile(t *testing.T) {
	profiles := newStubProfileRepo()
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, nil)

	res, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u9", Email: "u9@example.com"})
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if res.Points != 1 {
		t.Fatalf("expected 1 point, got %d", res.Points)
	}
	p := profiles.byID["u9"]
	if p == nil || p.Email != "u9@example.com" || p.Points != 1 || p.VisitsCount != 1 {
		t.Fatalf("unexpected provisioned profile: %+v", p)
	}
}

func TestLoyaltyService_Scan_ProvisionFailureReleasesReceipt(t *testing.T) {
	profiles := newStubProfileRepo()
	profiles.createErr = errors.New("offline")
	dedup := newStubScanDedup()
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, dedup)

	_, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u9", Payload: "receipt-9"})
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	profiles.createErr = nil
	if _, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u9", Payload: "receipt-9"}); err != nil {
		t.Fatalf("expected receipt to be usable after a failed scan, got %v", err)
	}
}

func TestLoyaltyService_Scan_AuditFailureIsNonFatal(t *testing.T) {
	profiles := seededProfiles("u1", 2)
	profiles.claimErr = errors.New("mongo unavailable")
	svc := newLoyaltySvc(profiles, &stubScanRepo{recordErr: errors.New("mongo unavailable")}, nil)

	res, err := svc.Scan(context.Background(), ports.ScanInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("expected audit failure to be non-fatal, got: %v", err)
	}
	if res.Points != 3 || len(res.NewlyAchieved) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestLoyaltyService_Reset(t *testing.T) {
	profiles := seededProfiles("u1", 10)
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, nil)

	if _, err := svc.Reset(context.Background(), "u1", false); !errors.Is(err, domain.ErrResetNotConfirmed) {
		t.Fatalf("expected ErrResetNotConfirmed, got %v", err)
	}
	if profiles.byID["u1"].Points != 10 {
		t.Fatalf("unconfirmed reset must not change points")
	}

	p, err := svc.Reset(context.Background(), "u1", true)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if p.Points != 0 {
		t.Fatalf("expected 0 points, got %d", p.Points)
	}

	ms, err := svc.Milestones(context.Background(), "u1")
	if err != nil {
		t.Fatalf("milestones failed: %v", err)
	}
	for _, m := range ms {
		if m.Achieved {
			t.Fatalf("expected no achieved milestones after reset, got %s", m.ID)
		}
	}
}

func TestLoyaltyService_Milestones(t *testing.T) {
	svc := newLoyaltySvc(seededProfiles("u1", 3), &stubScanRepo{}, nil)

	ms, err := svc.Milestones(context.Background(), "u1")
	if err != nil {
		t.Fatalf("milestones failed: %v", err)
	}
	if len(ms) != 4 {
		t.Fatalf("expected 4 milestones, got %d", len(ms))
	}
	got := []bool{ms[0].Achieved, ms[1].Achieved, ms[2].Achieved, ms[3].Achieved}
	if got[0] != true || got[1] != true || got[2] != false || got[3] != false {
		t.Fatalf("unexpected achieved flags: %v", got)
	}

	ms, err = svc.Milestones(context.Background(), "not-synced-yet")
	if err != nil {
		t.Fatalf("missing profile should count as zero points, got %v", err)
	}
	for _, m := range ms {
		if m.Achieved {
			t.Fatalf("expected nothing achieved for a missing profile")
		}
	}
}

func TestLoyaltyService_UpdateProfile(t *testing.T) {
	profiles := seededProfiles("u1", 0)
	svc := newLoyaltySvc(profiles, &stubScanRepo{}, nil)

	p, err := svc.UpdateProfile(context.Background(), ports.UpdateProfileInput{UserID: "u1", Field: domain.FieldPhoneNumber, Value: " 555-0100 "})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if p.PhoneNumber != "555-0100" {
		t.Fatalf("unexpected phone: %q", p.PhoneNumber)
	}

	p, err = svc.UpdateProfile(context.Background(), ports.UpdateProfileInput{UserID: "u1", Field: domain.FieldPhoneNumber, Value: ""})
	if err != nil {
		t.Fatalf("clearing phone failed: %v", err)
	}
	if p.PhoneNumber != "" {
		t.Fatalf("expected phone to be cleared, got %q", p.PhoneNumber)
	}

	_, err = svc.UpdateProfile(context.Background(), ports.UpdateProfileInput{UserID: "u1", Field: domain.FieldName, Value: "   "})
	if !errors.Is(err, domain.ErrInvalidProfileValue) {
		t.Fatalf("expected ErrInvalidProfileValue for a blank name, got %v", err)
	}
	if profiles.byID["u1"].Name != "Test" {
		t.Fatalf("blank name must not be stored, got %q", profiles.byID["u1"].Name)
	}

	for _, field := range []domain.ProfileField{"isAdmin", "is_admin", "points"} {
		_, err := svc.UpdateProfile(context.Background(), ports.UpdateProfileInput{UserID: "u1", Field: field, Value: "true"})
		if !errors.Is(err, domain.ErrFieldNotWritable) {
			t.Fatalf("expected ErrFieldNotWritable for %s, got %v", field, err)
		}
	}
}
