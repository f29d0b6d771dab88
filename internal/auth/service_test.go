package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

type authRepoMock struct {
	usersByEmail map[string]*User
	usersByID    map[string]*User
	sessions     map[string]*Session
	nextID       int
	revoked      []string
}

func newAuthRepoMock() *authRepoMock {
	return &authRepoMock{
		usersByEmail: map[string]*User{},
		usersByID:    map[string]*User{},
		sessions:     map[string]*Session{},
	}
}

func (m *authRepoMock) CreateUser(_ context.Context, in CreateUserInput) (*User, error) {
	if _, exists := m.usersByEmail[in.Email]; exists {
		return nil, ErrEmailTaken
	}
	m.nextID++
	u := &User{
		ID:                  "u-" + strconv.Itoa(m.nextID),
		Email:               in.Email,
		FirstName:           in.FirstName,
		LastName:            in.LastName,
		PhoneNumber:         in.PhoneNumber,
		MobileMoneyOperator: in.MobileMoneyOperator,
		Role:                in.Role,
		PasswordHash:        in.PasswordHash,
		CreatedAt:           time.Now().UTC(),
	}
	m.usersByEmail[u.Email] = u
	m.usersByID[u.ID] = u
	return u, nil
}

func (m *authRepoMock) GetUserByEmail(_ context.Context, email string) (*User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("user_not_found")
}

func (m *authRepoMock) GetUserByID(_ context.Context, userID string) (*User, error) {
	if u, ok := m.usersByID[userID]; ok {
		return u, nil
	}
	return nil, errors.New("user_not_found")
}

func (m *authRepoMock) CreateSession(_ context.Context, userID, refreshHash string, expiresAt time.Time) (*Session, error) {
	m.nextID++
	s := &Session{
		ID:          "s-" + strconv.Itoa(m.nextID),
		UserID:      userID,
		RefreshHash: refreshHash,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *authRepoMock) GetSessionByID(_ context.Context, sessionID string) (*Session, error) {
	if s, ok := m.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, errors.New("session_not_found")
}

func (m *authRepoMock) RevokeSession(_ context.Context, sessionID string) error {
	m.revoked = append(m.revoked, sessionID)
	if s, ok := m.sessions[sessionID]; ok {
		now := time.Now().UTC()
		s.RevokedAt = &now
	}
	return nil
}

func (m *authRepoMock) UpdateSessionRefreshHash(_ context.Context, sessionID, refreshHash string) error {
	if s, ok := m.sessions[sessionID]; ok {
		s.RefreshHash = refreshHash
		return nil
	}
	return errors.New("session_not_found")
}

type operatorCheckerMock struct {
	known map[string]bool
}

func (m *operatorCheckerMock) CheckNumber(_ context.Context, phoneNumber string) (*operator.Record, bool, error) {
	if m.known[phoneNumber] {
		return &operator.Record{PhoneNumber: phoneNumber}, true, nil
	}
	return nil, false, nil
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:               "Jean@Example.com",
		Password:            "secret123",
		FirstName:           "Jean",
		LastName:            "Kabila",
		PhoneNumber:         " +243 812 345 678 ",
		MobileMoneyOperator: "orange",
	}
}

func newAuthTestService(repo *authRepoMock, checker *operatorCheckerMock) *Service {
	jwt := NewJWTManager("issuer", "aud", "secret")
	return NewService(repo, checker, jwt, 15*time.Minute, 7*24*time.Hour)
}

func TestRegisterSuccess(t *testing.T) {
	repo := newAuthRepoMock()
	checker := &operatorCheckerMock{known: map[string]bool{"243812345678": true}}
	svc := newAuthTestService(repo, checker)

	tokens, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens minted")
	}

	user := tokens.User
	if user.Email != "jean@example.com" {
		t.Fatalf("email must be lowercased, got %q", user.Email)
	}
	if user.PhoneNumber != "243812345678" {
		t.Fatalf("phone must be normalized, got %q", user.PhoneNumber)
	}
	if user.MobileMoneyOperator != "Orange Money" {
		t.Fatalf("operator name must be expanded, got %q", user.MobileMoneyOperator)
	}
	if user.Role != RoleUser {
		t.Fatalf("new accounts must get the user role")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")) != nil {
		t.Fatalf("stored hash must match the password")
	}

	session := repo.sessions[tokens.SessionID]
	if session == nil || session.RefreshHash == "" {
		t.Fatalf("session must store the refresh hash")
	}
}

func TestRegisterRejectsUnknownNumber(t *testing.T) {
	svc := newAuthTestService(newAuthRepoMock(), &operatorCheckerMock{known: map[string]bool{}})

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, ErrPhoneNotAllowed) {
		t.Fatalf("expected ErrPhoneNotAllowed, got %v", err)
	}
}

func TestRegisterRejectsUnknownOperator(t *testing.T) {
	svc := newAuthTestService(newAuthRepoMock(), &operatorCheckerMock{known: map[string]bool{"243812345678": true}})

	in := validRegisterInput()
	in.MobileMoneyOperator = "paypal"
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, ErrInvalidOperator) {
		t.Fatalf("expected ErrInvalidOperator, got %v", err)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := newAuthTestService(newAuthRepoMock(), &operatorCheckerMock{})

	in := validRegisterInput()
	in.Password = ""
	_, err := svc.Register(context.Background(), in)
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newAuthRepoMock()
	checker := &operatorCheckerMock{known: map[string]bool{"243812345678": true}}
	svc := newAuthTestService(repo, checker)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("register error: %v", err)
	}

	tokens, err := svc.Login(context.Background(), "jean@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens.AccessToken == "" {
		t.Fatalf("expected an access token")
	}

	if _, err := svc.Login(context.Background(), "jean@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newAuthRepoMock()
	checker := &operatorCheckerMock{known: map[string]bool{"243812345678": true}}
	svc := newAuthTestService(repo, checker)

	initial, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register error: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), initial.RefreshToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refreshed.SessionID != initial.SessionID {
		t.Fatalf("refresh must keep the session")
	}

	// The old refresh token no longer matches the stored hash.
	if _, err := svc.Refresh(context.Background(), initial.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid for a rotated token, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := newAuthRepoMock()
	checker := &operatorCheckerMock{known: map[string]bool{"243812345678": true}}
	svc := newAuthTestService(repo, checker)

	tokens, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), tokens.AccessToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newAuthRepoMock()
	checker := &operatorCheckerMock{known: map[string]bool{"243812345678": true}}
	svc := newAuthTestService(repo, checker)

	tokens, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register error: %v", err)
	}

	if err := svc.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.revoked) != 1 || repo.revoked[0] != tokens.SessionID {
		t.Fatalf("session must be revoked")
	}

	if _, err := svc.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid after logout, got %v", err)
	}
}
