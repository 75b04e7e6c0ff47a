package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopfronthq/shopfront-backend/internal/users"
	pkgAuth "github.com/shopfronthq/shopfront-backend/pkg/auth"
	"github.com/shopfronthq/shopfront-backend/pkg/auth/session"
	"github.com/shopfronthq/shopfront-backend/pkg/config"
	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
	"github.com/shopfronthq/shopfront-backend/pkg/enums"
	pkgerrors "github.com/shopfronthq/shopfront-backend/pkg/errors"
	"github.com/shopfronthq/shopfront-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "shopfront-test",
	ExpirationMinutes: 15,
	SessionTTLMinutes: 60,
}

var testPasswordConfig = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type stubUserRepo struct {
	byEmail   map[string]*models.AdminUser
	lastLogin map[uuid.UUID]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:   map[string]*models.AdminUser{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateAdminUserDTO) (*models.AdminUser, error) {
	user := dto.ToModel()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

type stubSessionManager struct {
	tokens map[string]string
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{tokens: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := uuid.NewString()
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newAccessID := session.NewAccessID()
	newToken := uuid.NewString()
	s.tokens[newAccessID] = newToken
	return newAccessID, newToken, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.tokens, accessID)
	return nil
}

func newTestService(t *testing.T, env string) (Service, *stubUserRepo, *stubSessionManager) {
	t.Helper()
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
		AppConfig:      config.AppConfig{Env: env},
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *stubUserRepo, email, password string, role enums.AdminRole, active bool) *models.AdminUser {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "Operator",
		Role:         role,
		IsActive:     active,
	}
	repo.byEmail[email] = user
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	t.Parallel()

	svc, repo, sessions := newTestService(t, config.AppEnvDev)
	user := seedUser(t, repo, "ops@example.com", "s3cret-pass", enums.AdminRoleAdmin, true)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Ops@Example.com ",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.AdminRoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}
	if sessions.tokens[claims.ID] != resp.RefreshToken {
		t.Fatalf("refresh token not stored under jti %q", claims.ID)
	}
	if resp.User == nil || resp.User.Email != "ops@example.com" {
		t.Fatalf("response user = %+v", resp.User)
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatalf("last login not recorded")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t, config.AppEnvDev)
	seedUser(t, repo, "ops@example.com", "s3cret-pass", enums.AdminRoleStaff, true)
	seedUser(t, repo, "gone@example.com", "s3cret-pass", enums.AdminRoleStaff, false)

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Email: "ops@example.com", Password: "wrong"}},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"}},
		{"inactive account", LoginRequest{Email: "gone@example.com", Password: "s3cret-pass"}},
		{"empty email", LoginRequest{Password: "s3cret-pass"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.req)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("err = %v, want unauthorized", err)
			}
			if appErr.Message() != invalidCredentialsMessage {
				t.Fatalf("message = %q, want uniform credentials message", appErr.Message())
			}
		})
	}
}

func TestRegisterCreatesStaffByDefault(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t, config.AppEnvDev)
	user, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "New",
		LastName:  "Operator",
		Email:     "New@Example.com",
		Password:  "long-enough-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != enums.AdminRoleStaff {
		t.Fatalf("role = %q, want staff", user.Role)
	}
	stored, ok := repo.byEmail["new@example.com"]
	if !ok {
		t.Fatalf("user not stored under lowercased email")
	}
	if stored.PasswordHash == "long-enough-pass" {
		t.Fatalf("password stored in plaintext")
	}
}

func TestRegisterDisabledInProduction(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AppEnvProd)
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "New",
		LastName:  "Operator",
		Email:     "new@example.com",
		Password:  "long-enough-pass",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t, config.AppEnvDev)
	seedUser(t, repo, "ops@example.com", "s3cret-pass", enums.AdminRoleStaff, true)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "New",
		LastName:  "Operator",
		Email:     "ops@example.com",
		Password:  "long-enough-pass",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, config.AppEnvDev)
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"short password", RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "short"}},
		{"missing names", RegisterRequest{Email: "a@example.com", Password: "long-enough-pass"}},
		{"missing email", RegisterRequest{FirstName: "A", LastName: "B", Password: "long-enough-pass"}},
		{"bogus role", RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "long-enough-pass", Role: "superuser"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	svc, repo, _ := newTestService(t, config.AppEnvDev)
	seedUser(t, repo, "ops@example.com", "s3cret-pass", enums.AdminRoleAdmin, true)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "ops@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == login.AccessToken || refreshed.RefreshToken == login.RefreshToken {
		t.Fatalf("token pair not rotated")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.Role != enums.AdminRoleAdmin {
		t.Fatalf("rotated claims lost role: %+v", claims)
	}

	// The old pair is single-use.
	_, err = svc.Refresh(ctx, RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("err = %v, want unauthorized on replay", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, repo, sessions := newTestService(t, config.AppEnvDev)
	seedUser(t, repo, "ops@example.com", "s3cret-pass", enums.AdminRoleStaff, true)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "ops@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.tokens) != 0 {
		t.Fatalf("session not revoked: %v", sessions.tokens)
	}

	_, err = svc.Refresh(ctx, RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("err = %v, want unauthorized after logout", err)
	}
}
