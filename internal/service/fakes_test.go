package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/repository"
)

// In-memory repository fakes mirroring the Postgres contracts, including
// pgx.ErrNoRows on misses.

type fakeChallengeRepo struct {
	mu        sync.Mutex
	bySubject map[string]*domain.MfaChallenge
}

func newFakeChallengeRepo() *fakeChallengeRepo {
	return &fakeChallengeRepo{bySubject: make(map[string]*domain.MfaChallenge)}
}

func (r *fakeChallengeRepo) Put(_ context.Context, challenge *domain.MfaChallenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *challenge
	clone.AttemptCount = 0
	clone.Consumed = false
	r.bySubject[challenge.SubjectID] = &clone
	return nil
}

func (r *fakeChallengeRepo) GetBySubject(_ context.Context, subjectID string) (*domain.MfaChallenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, ok := r.bySubject[subjectID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *challenge
	return &clone, nil
}

func (r *fakeChallengeRepo) IncrementAttempts(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, challenge := range r.bySubject {
		if challenge.ID == id {
			challenge.AttemptCount++
			return challenge.AttemptCount, nil
		}
	}
	return 0, pgx.ErrNoRows
}

func (r *fakeChallengeRepo) MarkConsumed(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, challenge := range r.bySubject {
		if challenge.ID == id {
			if challenge.Consumed {
				return false, nil
			}
			challenge.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	nextSerial int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSerial++
	user.ID = "user-" + strconv.Itoa(r.nextSerial)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmailHash(_ context.Context, hash crypto.LookupHash) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.EmailHash == hash {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeLoginHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.LoginHistoryEntry
}

func (r *fakeLoginHistoryRepo) Append(_ context.Context, entry *domain.LoginHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = "entry-" + strconv.Itoa(len(r.entries)+1)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeLoginHistoryRepo) ListBySubject(_ context.Context, subjectID string, _ int) ([]domain.LoginHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.LoginHistoryEntry
	for _, entry := range r.entries {
		if entry.SubjectID == subjectID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeResetRepo struct {
	mu      sync.Mutex
	byToken map[string]*repository.PasswordResetToken
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byToken: make(map[string]*repository.PasswordResetToken)}
}

func (r *fakeResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = "reset-" + strconv.Itoa(len(r.byToken)+1)
	token.CreatedAt = time.Now()
	clone := *token
	r.byToken[token.Token] = &clone
	return nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byToken[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *token
	return &clone, nil
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, token := range r.byToken {
		if token.ID == id {
			token.UsedAt = &now
		}
	}
	return nil
}

type fakeDenylistRepo struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeDenylistRepo() *fakeDenylistRepo {
	return &fakeDenylistRepo{revoked: make(map[string]time.Time)}
}

func (r *fakeDenylistRepo) Add(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ttl > 0 {
		r.revoked[tokenID] = time.Now().Add(ttl)
	}
	return nil
}

func (r *fakeDenylistRepo) Contains(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiry, ok := r.revoked[tokenID]
	return ok && time.Now().Before(expiry), nil
}

type fakeRegistrationRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Registration
	nextSerial int
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{byID: make(map[string]*domain.Registration)}
}

func (r *fakeRegistrationRepo) Create(_ context.Context, reg *domain.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSerial++
	reg.ID = "reg-" + strconv.Itoa(r.nextSerial)
	reg.CreatedAt = time.Now()
	clone := *reg
	r.byID[reg.ID] = &clone
	return nil
}

func (r *fakeRegistrationRepo) GetByID(_ context.Context, id string) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *reg
	return &clone, nil
}

func (r *fakeRegistrationRepo) GetByEmailHash(_ context.Context, hash crypto.LookupHash) (*domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.byID {
		if reg.EmailHash == hash {
			clone := *reg
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeRegistrationRepo) List(_ context.Context, _, _ int) ([]domain.Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Registration, 0, len(r.byID))
	for _, reg := range r.byID {
		out = append(out, *reg)
	}
	return out, nil
}

func (r *fakeRegistrationRepo) UpdatePaymentStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	reg.PaymentStatus = status
	return nil
}
