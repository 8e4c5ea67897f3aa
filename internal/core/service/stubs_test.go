package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/myrewards/loyalty-system/internal/core/domain"
	"github.com/myrewards/loyalty-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Credential store
// ---------------------------------------------------------------------------

type stubCredentialRepo struct {
	byEmail map[string]*domain.Credential
	findErr error
}

func newStubCredentialRepo() *stubCredentialRepo {
	return &stubCredentialRepo{byEmail: make(map[string]*domain.Credential)}
}

func (r *stubCredentialRepo) Create(_ context.Context, c *domain.Credential) error {
	if _, exists := r.byEmail[c.Email]; exists {
		return domain.ErrUserExists
	}
	clone := *c
	r.byEmail[c.Email] = &clone
	return nil
}

func (r *stubCredentialRepo) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	c, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *c
	return &clone, nil
}

// ---------------------------------------------------------------------------
// Claim store
// ---------------------------------------------------------------------------

type stubClaimRepo struct {
	admins map[string]bool
	err    error
}

func newStubClaimRepo() *stubClaimRepo {
	return &stubClaimRepo{admins: make(map[string]bool)}
}

func (r *stubClaimRepo) IsAdmin(_ context.Context, userID string) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.admins[userID], nil
}

func (r *stubClaimRepo) SetAdmin(_ context.Context, userID string, admin bool, _ string) error {
	if r.err != nil {
		return r.err
	}
	r.admins[userID] = admin
	return nil
}

// ---------------------------------------------------------------------------
// Profile store
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.UserProfile
	createErr error
	getErr    error
	incErr    error
	listErr   error
	claimErr  error
	touched   []string
	lastList  ports.ListProfilesFilter
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byID: make(map[string]*domain.UserProfile)}
}

func (r *stubProfileRepo) seed(p domain.UserProfile) {
	r.byID[p.ID] = &p
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, exists := r.byID[p.ID]; exists {
		return domain.ErrUserExists
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProfileRepo) Get(_ context.Context, id string) (*domain.UserProfile, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) UpdateField(_ context.Context, id string, field domain.ProfileField, value string) (*domain.UserProfile, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	switch field {
	case domain.FieldName:
		p.Name = value
	case domain.FieldPhoneNumber:
		p.PhoneNumber = value
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) IncrementPoints(_ context.Context, id string, at time.Time) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incErr != nil {
		return nil, r.incErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.Points++
	p.VisitsCount++
	p.LastActivityAt = at
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) ResetPoints(_ context.Context, id string, at time.Time) (*domain.UserProfile, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	p.Points = 0
	p.LastActivityAt = at
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) AddClaimedRewards(_ context.Context, id string, n int) error {
	if r.claimErr != nil {
		return r.claimErr
	}
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.ClaimedRewardsCount += n
	return nil
}

func (r *stubProfileRepo) TouchLastActivity(_ context.Context, id string, at time.Time) error {
	r.touched = append(r.touched, id)
	if p, ok := r.byID[id]; ok {
		p.LastActivityAt = at
	}
	return nil
}

func (r *stubProfileRepo) ListAll(_ context.Context) ([]domain.UserProfile, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.UserProfile, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProfileRepo) List(ctx context.Context, f ports.ListProfilesFilter) ([]domain.UserProfile, int64, error) {
	r.lastList = f
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	start := (f.Page - 1) * f.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

// ---------------------------------------------------------------------------
// Scan store
// ---------------------------------------------------------------------------

type stubScanRepo struct {
	mu        sync.Mutex
	events    []domain.ScanEvent
	recordErr error
	listErr   error
	since     time.Time
}

func (r *stubScanRepo) Record(_ context.Context, e *domain.ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recordErr != nil {
		return r.recordErr
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *stubScanRepo) ListSince(_ context.Context, since time.Time) ([]domain.ScanEvent, error) {
	r.since = since
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.ScanEvent
	for _, e := range r.events {
		if !e.Timestamp.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubScanRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	events, err := r.ListSince(ctx, since)
	return int64(len(events)), err
}

// ---------------------------------------------------------------------------
// Replay store
// ---------------------------------------------------------------------------

type stubScanDedup struct {
	seen     map[string]bool
	err      error
	released []string
}

func newStubScanDedup() *stubScanDedup {
	return &stubScanDedup{seen: make(map[string]bool)}
}

func (d *stubScanDedup) Claim(_ context.Context, digest string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.seen[digest] {
		return false, nil
	}
	d.seen[digest] = true
	return true, nil
}

func (d *stubScanDedup) Release(_ context.Context, digest string) error {
	delete(d.seen, digest)
	d.released = append(d.released, digest)
	return nil
}
