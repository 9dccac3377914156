package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/registration-portal/internal/api/http/handlers"
	"github.com/spec-kit/registration-portal/internal/auth"
	"github.com/spec-kit/registration-portal/internal/config"
	"github.com/spec-kit/registration-portal/internal/crypto"
	"github.com/spec-kit/registration-portal/internal/domain"
	"github.com/spec-kit/registration-portal/internal/events"
	"github.com/spec-kit/registration-portal/internal/observability"
	"github.com/spec-kit/registration-portal/internal/service"
)

type stubUserRepo struct {
	byID map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.byID[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) UpdatePassword(_ context.Context, _, _ string) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) GetByUsername(_ context.Context, _ string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByEmailHash(_ context.Context, _ crypto.LookupHash) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

type stubRegistrationRepo struct {
	byID    map[string]*domain.Registration
	updated map[string]domain.PaymentStatus
}

func (r *stubRegistrationRepo) Create(_ context.Context, reg *domain.Registration) error {
	reg.ID = "reg-new"
	reg.CreatedAt = time.Now()
	r.byID[reg.ID] = reg
	return nil
}

func (r *stubRegistrationRepo) GetByID(_ context.Context, id string) (*domain.Registration, error) {
	reg, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return reg, nil
}

func (r *stubRegistrationRepo) GetByEmailHash(_ context.Context, hash crypto.LookupHash) (*domain.Registration, error) {
	for _, reg := range r.byID {
		if reg.EmailHash == hash {
			return reg, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubRegistrationRepo) List(_ context.Context, _, _ int) ([]domain.Registration, error) {
	out := make([]domain.Registration, 0, len(r.byID))
	for _, reg := range r.byID {
		out = append(out, *reg)
	}
	return out, nil
}

func (r *stubRegistrationRepo) UpdatePaymentStatus(_ context.Context, id string, status domain.PaymentStatus) error {
	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	r.updated[id] = status
	return nil
}

type stubDenylist struct{}

func (stubDenylist) Contains(_ context.Context, _ string) (bool, error) { return false, nil }

// routerFixture wires the real middleware stack and route table against
// in-memory repositories, so role gates are exercised exactly as deployed.
type routerFixture struct {
	app           *fiber.App
	tokens        *auth.TokenManager
	registrations *stubRegistrationRepo
	usersByRole   map[domain.Role]string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER}),
		pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}),
		time.Hour,
	)
	require.NoError(t, err)

	cipher, err := crypto.NewFieldCipher(bytes.Repeat([]byte{0x01}, 32), bytes.Repeat([]byte{0x02}, 32))
	require.NoError(t, err)

	users := &stubUserRepo{byID: make(map[string]*domain.User)}
	usersByRole := make(map[domain.Role]string)
	for i, role := range []domain.Role{
		domain.RoleInstructor,
		domain.RoleFinance,
		domain.RoleManagement,
		domain.RoleRegistrationAdmin,
	} {
		id := "user-" + string(rune('1'+i))
		users.byID[id] = &domain.User{ID: id, Username: string(role), Role: role, Active: true}
		usersByRole[role] = id
	}

	encryptedEmail, err := cipher.Encrypt("attendee@example.com")
	require.NoError(t, err)
	encryptedPhone, err := cipher.Encrypt("+15550100")
	require.NoError(t, err)
	registrations := &stubRegistrationRepo{
		byID: map[string]*domain.Registration{
			"reg-1": {
				ID:            "reg-1",
				FullName:      "Test Attendee",
				Email:         encryptedEmail,
				EmailHash:     cipher.ComputeLookupHash("attendee@example.com"),
				Phone:         encryptedPhone,
				Region:        domain.RegionIndia,
				ProgramLevel:  "Level 1",
				Mode:          domain.ModeOnline,
				PaymentStatus: domain.PaymentPending,
				CreatedAt:     time.Now(),
			},
		},
		updated: make(map[string]domain.PaymentStatus),
	}

	logger := zap.NewNop()
	registrationService := service.NewRegistrationService(registrations, cipher, events.NewInMemoryDispatcher(), logger)
	authService := service.NewAuthService(config.AuthConfig{BcryptCost: 4}, service.AuthDependencies{
		UserRepo: users,
		Tokens:   tokens,
		Cipher:   cipher,
		Logger:   logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Registrations:  handlers.NewRegistrationsHandler(registrationService),
		AuthMiddleware: auth.NewMiddleware(tokens, users, stubDenylist{}),
	})

	return &routerFixture{
		app:           app,
		tokens:        tokens,
		registrations: registrations,
		usersByRole:   usersByRole,
	}
}

func (f *routerFixture) request(t *testing.T, method, target, token string, body any) *nethttp.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (f *routerFixture) tokenFor(t *testing.T, role domain.Role) string {
	t.Helper()
	token, _, err := f.tokens.Issue(f.usersByRole[role], role)
	require.NoError(t, err)
	return token
}

func decodeErrorCode(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestPaymentRouteRoleGate(t *testing.T) {
	payload := map[string]string{"payment_status": string(domain.PaymentPaid)}

	tests := []struct {
		name       string
		role       domain.Role
		wantStatus int
	}{
		{name: "finance allowed", role: domain.RoleFinance, wantStatus: nethttp.StatusOK},
		{name: "registration admin allowed", role: domain.RoleRegistrationAdmin, wantStatus: nethttp.StatusOK},
		{name: "instructor forbidden", role: domain.RoleInstructor, wantStatus: nethttp.StatusForbidden},
		{name: "management forbidden", role: domain.RoleManagement, wantStatus: nethttp.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			resp := f.request(t, nethttp.MethodPatch, "/api/registrations/reg-1/payment", f.tokenFor(t, tt.role), payload)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == nethttp.StatusOK {
				assert.Equal(t, domain.PaymentPaid, f.registrations.updated["reg-1"])
			} else {
				assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, resp))
				assert.Empty(t, f.registrations.updated)
			}
		})
	}
}

func TestReadRoutesRoleGate(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, nethttp.MethodGet, "/api/registrations/reg-1", f.tokenFor(t, domain.RoleInstructor), nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp = f.request(t, nethttp.MethodGet, "/api/registrations/reg-1", f.tokenFor(t, domain.RoleFinance), nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, resp))
}

func TestRegistrationRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, nethttp.MethodGet, "/api/registrations/reg-1", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeErrorCode(t, resp))

	resp = f.request(t, nethttp.MethodPatch, "/api/registrations/reg-1/payment", "",
		map[string]string{"payment_status": string(domain.PaymentPaid)})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.registrations.updated)
}

func TestUnknownRegistrationReturnsNotFound(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.request(t, nethttp.MethodGet, "/api/registrations/missing", f.tokenFor(t, domain.RoleRegistrationAdmin), nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeErrorCode(t, resp))
}
