package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/bluestock/company-backend/internal/messaging"
	"github.com/bluestock/company-backend/internal/models"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/repository"
)

// memState - снимок данных in-memory хранилища.
type memState struct {
	users     map[uuid.UUID]models.User
	otps      []models.OTPVerification
	companies map[uuid.UUID]models.CompanyProfile // по owner_id
	links     map[uuid.UUID]models.SocialLink
}

func (s memState) clone() memState {
	return memState{
		users:     maps.Clone(s.users),
		otps:      slices.Clone(s.otps),
		companies: maps.Clone(s.companies),
		links:     maps.Clone(s.links),
	}
}

// memStore реализует UserStore, OTPStore и CompanyStore.
// Транзакции сериализуются мьютексом и работают на копии состояния:
// ошибка из fn откатывает все изменения.
type memStore struct {
	mu    sync.Mutex
	state memState
	now   func() time.Time
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			users:     map[uuid.UUID]models.User{},
			companies: map[uuid.UUID]models.CompanyProfile{},
			links:     map[uuid.UUID]models.SocialLink{},
		},
		now: time.Now,
	}
}

func (m *memStore) runTx(fn func(st *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.state.clone()
	if err := fn(&staged); err != nil {
		return err
	}
	m.state = staged
	return nil
}

func (m *memStore) user(id uuid.UUID) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.state.users[id]
	return u, ok
}

func (m *memStore) otpCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.otps)
}

func (m *memStore) latestOTP() models.OTPVerification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.otps[len(m.state.otps)-1]
}

// --- UserStore ---

func (m *memStore) WithinTxUser(ctx context.Context, fn func(tx repository.UserTx) error) error {
	return m.runTx(func(st *memState) error { return fn(&memUserTx{st: st, now: m.now}) })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.user(id)
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &u, nil
}

func (m *memStore) TouchLastLogin(_ context.Context, id uuid.UUID) error {
	return m.runTx(func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return apperror.ErrUserNotFound
		}
		now := m.now()
		u.LastLoginAt = &now
		st.users[id] = u
		return nil
	})
}

func (m *memStore) SetExternalID(_ context.Context, id uuid.UUID, externalID string) error {
	return m.runTx(func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return apperror.ErrUserNotFound
		}
		u.ExternalID = &externalID
		st.users[id] = u
		return nil
	})
}

func (m *memStore) SetEmailVerified(_ context.Context, id uuid.UUID) error {
	return m.runTx(func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return apperror.ErrUserNotFound
		}
		u.EmailVerified = true
		st.users[id] = u
		return nil
	})
}

type memUserTx struct {
	st  *memState
	now func() time.Time
}

func (t *memUserTx) EmailOrPhoneTaken(_ context.Context, email, phone string) (bool, error) {
	for _, u := range t.st.users {
		if u.Email == email || u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (t *memUserTx) Create(_ context.Context, user *models.User) error {
	for _, u := range t.st.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return apperror.Wrap(errors.New("duplicate key"), apperror.ErrCodeAlreadyExists, apperror.ErrAlreadyExists.Message)
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = t.now()
	user.UpdatedAt = user.CreatedAt
	t.st.users[user.ID] = *user
	return nil
}

func (t *memUserTx) CreateEmptyCompany(_ context.Context, ownerID uuid.UUID) error {
	t.st.companies[ownerID] = models.CompanyProfile{ID: uuid.New(), OwnerID: ownerID, CreatedAt: t.now()}
	return nil
}

// userStore адаптирует memStore к UserStore (у интерфейсов совпадает имя WithinTx).
type userStore struct{ *memStore }

func (u userStore) WithinTx(ctx context.Context, fn func(tx repository.UserTx) error) error {
	return u.WithinTxUser(ctx, fn)
}

// --- OTPStore ---

type otpStore struct{ *memStore }

func (o otpStore) Create(_ context.Context, otp *models.OTPVerification) error {
	return o.runTx(func(st *memState) error {
		otp.ID = uuid.New()
		// Монотонное created_at, чтобы «последняя» запись определялась однозначно.
		otp.CreatedAt = o.now().Add(time.Duration(len(st.otps)) * time.Nanosecond)
		st.otps = append(st.otps, *otp)
		return nil
	})
}

func (o otpStore) WithinTx(_ context.Context, fn func(tx repository.OTPTx) error) error {
	return o.runTx(func(st *memState) error { return fn(&memOTPTx{st: st}) })
}

type memOTPTx struct {
	st *memState
}

func (t *memOTPTx) LatestForUpdate(_ context.Context, lookup models.OTPLookup) (*models.OTPVerification, error) {
	var latest *models.OTPVerification
	for i := range t.st.otps {
		o := &t.st.otps[i]
		if o.Phone != lookup.Phone {
			continue
		}
		if lookup.UserID != nil && (o.UserID == nil || *o.UserID != *lookup.UserID) {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	if latest == nil {
		return nil, apperror.ErrOTPNotFound
	}
	cp := *latest
	return &cp, nil
}

func (t *memOTPTx) find(id uuid.UUID) *models.OTPVerification {
	for i := range t.st.otps {
		if t.st.otps[i].ID == id {
			return &t.st.otps[i]
		}
	}
	return nil
}

func (t *memOTPTx) IncrementAttempts(_ context.Context, id uuid.UUID) error {
	t.find(id).Attempts++
	return nil
}

func (t *memOTPTx) MarkVerified(_ context.Context, id uuid.UUID) error {
	t.find(id).Verified = true
	return nil
}

func (t *memOTPTx) MarkUserPhoneVerified(_ context.Context, userID uuid.UUID) (bool, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return false, nil
	}
	u.PhoneVerified = true
	t.st.users[userID] = u
	return true, nil
}

func (t *memOTPTx) MarkPhoneVerifiedByPhone(_ context.Context, phone string) (bool, error) {
	for id, u := range t.st.users {
		if u.Phone == phone {
			u.PhoneVerified = true
			t.st.users[id] = u
			return true, nil
		}
	}
	return false, nil
}

// --- CompanyStore ---

type companyStore struct{ *memStore }

func (c companyStore) GetByOwner(_ context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.state.companies[ownerID]
	if !ok {
		return nil, apperror.ErrCompanyNotFound
	}
	p.SocialLinks = linksOf(&c.state, p.ID)
	return &p, nil
}

func (c companyStore) WithinTx(_ context.Context, fn func(tx repository.CompanyTx) error) error {
	return c.runTx(func(st *memState) error { return fn(&memCompanyTx{st: st, now: c.now}) })
}

func linksOf(st *memState, companyID uuid.UUID) []models.SocialLink {
	out := make([]models.SocialLink, 0)
	for _, l := range st.links {
		if l.CompanyID == companyID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

type memCompanyTx struct {
	st  *memState
	now func() time.Time
}

func (t *memCompanyTx) GetByOwnerForUpdate(_ context.Context, ownerID uuid.UUID) (*models.CompanyProfile, error) {
	p, ok := t.st.companies[ownerID]
	if !ok {
		return nil, apperror.ErrCompanyNotFound
	}
	return &p, nil
}

func (t *memCompanyTx) Create(_ context.Context, profile *models.CompanyProfile) error {
	if _, ok := t.st.companies[profile.OwnerID]; ok {
		return apperror.ErrCompanyExists
	}
	profile.ID = uuid.New()
	profile.CreatedAt = t.now()
	t.st.companies[profile.OwnerID] = *profile
	return nil
}

func (t *memCompanyTx) Update(_ context.Context, profile *models.CompanyProfile) error {
	if _, ok := t.st.companies[profile.OwnerID]; !ok {
		return apperror.ErrCompanyNotFound
	}
	stored := *profile
	stored.SocialLinks = nil
	stored.UpdatedAt = t.now()
	t.st.companies[profile.OwnerID] = stored
	return nil
}

func (t *memCompanyTx) ListSocialLinks(_ context.Context, companyID uuid.UUID) ([]models.SocialLink, error) {
	return linksOf(t.st, companyID), nil
}

func (t *memCompanyTx) UpsertSocialLink(_ context.Context, link *models.SocialLink) error {
	for id, l := range t.st.links {
		if l.CompanyID == link.CompanyID && l.Platform == link.Platform {
			l.ProfileURL = link.ProfileURL
			t.st.links[id] = l
			*link = l
			return nil
		}
	}
	link.ID = uuid.New()
	link.CreatedAt = t.now().Add(time.Duration(len(t.st.links)) * time.Nanosecond)
	t.st.links[link.ID] = *link
	return nil
}

func (t *memCompanyTx) DeleteSocialLink(_ context.Context, companyID, linkID uuid.UUID) (bool, error) {
	l, ok := t.st.links[linkID]
	if !ok || l.CompanyID != companyID {
		return false, nil
	}
	delete(t.st.links, linkID)
	return true, nil
}

// --- прочие зависимости ---

type publishedEvent struct {
	UserID uuid.UUID
	Event  string
	Data   any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(userID uuid.UUID, event string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{UserID: userID, Event: event, Data: data})
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []messaging.OTPMessage
	err  error
}

func (d *recordingDispatcher) SendOTP(_ context.Context, msg messaging.OTPMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

type recordingReporter struct {
	mu     sync.Mutex
	errors []error
}

func (r *recordingReporter) CaptureError(_ context.Context, err error, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingReporter) Recover(interface{})      {}
func (r *recordingReporter) Flush(time.Duration) bool { return true }

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func nullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}
