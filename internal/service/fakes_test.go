package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/private-chef-marketplace/internal/booking"
	"github.com/iliyamo/private-chef-marketplace/internal/model"
	"github.com/iliyamo/private-chef-marketplace/internal/payment"
	"github.com/iliyamo/private-chef-marketplace/internal/queue"
	"github.com/iliyamo/private-chef-marketplace/internal/repository"
)

type memUsers struct {
	mu   sync.Mutex
	rows map[uint64]*model.User
	next uint64
}

func newMemUsers(users ...*model.User) *memUsers {
	m := &memUsers{rows: map[uint64]*model.User{}}
	for _, u := range users {
		m.rows[u.ID] = u
		if u.ID > m.next {
			m.next = u.ID
		}
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	m.next++
	u.ID = m.next
	u.IsActive = true
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id uint64, p repository.ProfilePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || !r.IsActive {
		return repository.ErrUserNotFound
	}
	if p.FullName != nil {
		r.FullName = *p.FullName
	}
	if p.Phone != nil {
		r.Phone = p.Phone
	}
	if p.AvatarURL != nil {
		r.AvatarURL = p.AvatarURL
	}
	return nil
}

func (m *memUsers) Deactivate(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || !r.IsActive {
		return repository.ErrUserNotFound
	}
	r.IsActive = false
	return nil
}

type memToken struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

type memTokens struct {
	mu   sync.Mutex
	rows map[string]*memToken
}

func newMemTokens() *memTokens { return &memTokens{rows: map[string]*memToken{}} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = &memToken{userID: userID, exp: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[hash]
	if !ok || t.revoked || time.Now().After(t.exp) {
		return 0, repository.ErrTokenInvalid
	}
	return t.userID, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[hash]; ok {
		t.revoked = true
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

type memChefs struct {
	mu         sync.Mutex
	rows       map[uint64]*model.Chef
	next       uint64
	recomputed int
}

func newMemChefs(chefs ...*model.Chef) *memChefs {
	m := &memChefs{rows: map[uint64]*model.Chef{}}
	for _, c := range chefs {
		m.rows[c.ID] = c
		if c.ID > m.next {
			m.next = c.ID
		}
	}
	return m
}

func (m *memChefs) GetByID(_ context.Context, id uint64) (*model.Chef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrChefNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memChefs) GetByUserID(_ context.Context, userID uint64) (*model.Chef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrChefNotFound
}

func (m *memChefs) Create(_ context.Context, c *model.Chef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == c.UserID {
			return repository.ErrChefExists
		}
	}
	m.next++
	c.ID = m.next
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memChefs) Update(_ context.Context, id uint64, p repository.ChefPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return repository.ErrChefNotFound
	}
	if p.Specialty != nil {
		c.Specialty = *p.Specialty
	}
	if p.Bio != nil {
		c.Bio = *p.Bio
	}
	if p.PriceRange != nil {
		c.PriceRange = *p.PriceRange
	}
	if p.Location != nil {
		c.Location = *p.Location
	}
	return nil
}

func (m *memChefs) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrChefNotFound
	}
	delete(m.rows, id)
	return nil
}

// Search mirrors the SQL filters closely enough for ordering tests.
func (m *memChefs) Search(_ context.Context, q repository.ChefSearchQuery) ([]model.Chef, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Chef{}
	for _, c := range m.rows {
		if !c.IsVerified {
			continue
		}
		if q.MinRating != nil && c.Rating < *q.MinRating {
			continue
		}
		if q.Featured != nil && c.IsFeatured != *q.Featured {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, int64(len(out)), nil
}

func (m *memChefs) RecomputeAllRatings(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputed++
	return int64(len(m.rows)), nil
}

type memBookings struct {
	mu      sync.Mutex
	rows    map[uint64]*model.Booking
	next    uint64
	applied []repository.BookingPatch
}

func newMemBookings(bs ...*model.Booking) *memBookings {
	m := &memBookings{rows: map[uint64]*model.Booking{}}
	for _, b := range bs {
		m.rows[b.ID] = b
		if b.ID > m.next {
			m.next = b.ID
		}
	}
	return m
}

func (m *memBookings) Create(_ context.Context, b *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	b.ID = m.next
	cp := *b
	m.rows[b.ID] = &cp
	return nil
}

func (m *memBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memBookings) GetOwnership(_ context.Context, id uint64) (repository.Ownership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return repository.Ownership{}, repository.ErrBookingNotFound
	}
	return repository.Ownership{ID: id, CustomerID: b.CustomerID, ChefID: b.ChefID, Status: b.Status}, nil
}

func (m *memBookings) ListForUser(_ context.Context, userID uint64, status *booking.Status) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.rows {
		if b.CustomerID != userID && b.ChefID != userID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

// Apply behaves like the single-row UPDATE: only present columns change and
// a status write needs the row in a status the target is reachable from.
func (m *memBookings) Apply(_ context.Context, id uint64, p repository.BookingPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	ch := p.Changes
	if ch.Status != nil {
		if !b.Status.CanTransitionTo(*ch.Status) {
			return repository.ErrStatusChanged
		}
		b.Status = *ch.Status
	}
	if ch.EventDate != nil {
		b.EventDate = *ch.EventDate
	}
	if ch.EventTime != nil {
		b.EventTime = *ch.EventTime
	}
	if ch.GuestCount != nil {
		b.GuestCount = *ch.GuestCount
	}
	if ch.SpecialRequests != nil {
		s := *ch.SpecialRequests
		b.SpecialRequests = &s
	}
	if ch.DietaryRequirements != nil {
		b.DietaryRequirements = *ch.DietaryRequirements
	}
	if ch.Address != nil {
		b.Address = *ch.Address
	}
	if p.TotalPriceCents != nil {
		b.TotalPriceCents = *p.TotalPriceCents
	}
	m.applied = append(m.applied, p)
	return nil
}

func (m *memBookings) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(m.rows, id)
	return nil
}

type memReviews struct {
	mu   sync.Mutex
	rows []model.Review
}

func (m *memReviews) Create(_ context.Context, rv *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.BookingID == rv.BookingID {
			return repository.ErrReviewExists
		}
	}
	rv.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *rv)
	return nil
}

func (m *memReviews) ListByChef(_ context.Context, chefUserID uint64, limit, offset int) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Review{}
	for _, r := range m.rows {
		if r.ChefID == chefUserID {
			out = append(out, r)
		}
	}
	if offset >= len(out) {
		return []model.Review{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memPayments struct {
	mu   sync.Mutex
	rows []*model.Payment
	// failCreate makes that many Create calls fail before any succeeds.
	failCreate int
}

func (m *memPayments) Create(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate > 0 {
		m.failCreate--
		return errors.New("connection reset")
	}
	for _, r := range m.rows {
		if r.ProviderRef == p.ProviderRef || r.IdempotencyKey == p.IdempotencyKey ||
			(r.BookingID == p.BookingID && r.Status == model.PaymentPending && p.Status == model.PaymentPending) {
			return repository.ErrConflict
		}
	}
	p.ID = uint64(len(m.rows) + 1)
	cp := *p
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memPayments) CountForBooking(_ context.Context, bookingID uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rows {
		if r.BookingID == bookingID {
			n++
		}
	}
	return n, nil
}

func (m *memPayments) LatestForBooking(_ context.Context, bookingID uint64) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].BookingID == bookingID {
			cp := *m.rows[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (m *memPayments) SetStatusByRef(_ context.Context, ref string, status model.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.ProviderRef == ref {
			p.Status = status
			return nil
		}
	}
	return repository.ErrPaymentNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// fakeGateway behaves like the processor with respect to idempotency keys:
// a repeated key returns the intent it first created.
type fakeGateway struct {
	created   []payment.IntentRequest
	intents   map[string]payment.Intent
	cancelled []string
	event     payment.WebhookEvent
	err       error
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
	if g.err != nil {
		return payment.Intent{}, g.err
	}
	if in, ok := g.intents[req.IdempotencyKey]; ok {
		return in, nil
	}
	if g.intents == nil {
		g.intents = map[string]payment.Intent{}
	}
	in := payment.Intent{
		ID:           "pi_" + req.IdempotencyKey[:8],
		ClientSecret: "secret_" + req.IdempotencyKey[:8],
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
	}
	g.intents[req.IdempotencyKey] = in
	g.created = append(g.created, req)
	return in, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (payment.Intent, error) {
	return payment.Intent{ID: id, ClientSecret: "secret_existing"}, nil
}

func (g *fakeGateway) CancelIntent(_ context.Context, id string) error {
	if g.err != nil {
		return g.err
	}
	g.cancelled = append(g.cancelled, id)
	return nil
}

func (g *fakeGateway) ParseWebhook([]byte, string) (payment.WebhookEvent, error) {
	if g.err != nil {
		return payment.WebhookEvent{}, g.err
	}
	return g.event, nil
}

// interleavedBookings runs between once, right before the first Apply, to
// model a write from another request landing after the plan was made.
type interleavedBookings struct {
	*memBookings
	once    sync.Once
	between func()
}

func (s *interleavedBookings) Apply(ctx context.Context, id uint64, p repository.BookingPatch) error {
	s.once.Do(s.between)
	return s.memBookings.Apply(ctx, id, p)
}
