package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/davidzea10/Rawbank/internal/domain/operator"
)

// Mobile-money operators users may link at signup. Short keys are what the
// signup form sends; values are the display names stored on the account.
var mobileMoneyOperators = map[string]string{
	"orange": "Orange Money",
	"mpesa":  "M-Pesa",
	"airtel": "Airtel Money",
}

var (
	ErrInvalidCredentials = errors.New("Email ou mot de passe incorrect")
	ErrEmailTaken         = errors.New("Email déjà utilisé")
	ErrInvalidOperator    = errors.New("mobile_money_lie doit être: 'orange', 'mpesa' ou 'airtel'")
	ErrPhoneNotAllowed    = errors.New("Numéro non autorisé. Votre numéro doit exister dans la base des opérateurs.")
	ErrMissingFields      = errors.New("Champs requis manquants")
	ErrSessionInvalid     = errors.New("invalid session")
)

type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"prenom"`
	LastName            string    `json:"nom"`
	PhoneNumber         string    `json:"numero_telephone"`
	MobileMoneyOperator string    `json:"mobile_money_lie"`
	Role                string    `json:"role"`
	PasswordHash        string    `json:"-"`
	CreatedAt           time.Time `json:"date_creation"`
}

type Session struct {
	ID          string
	UserID      string
	RefreshHash string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

type CreateUserInput struct {
	Email               string
	PasswordHash        string
	FirstName           string
	LastName            string
	PhoneNumber         string
	MobileMoneyOperator string
	Role                string
}

type Repository interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	CreateSession(ctx context.Context, userID, refreshHash string, expiresAt time.Time) (*Session, error)
	GetSessionByID(ctx context.Context, sessionID string) (*Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error
}

// OperatorChecker gates registration on the phone number being present in
// the operator dataset.
type OperatorChecker interface {
	CheckNumber(ctx context.Context, phoneNumber string) (*operator.Record, bool, error)
}

type Service struct {
	repo       Repository
	operators  OperatorChecker
	jwt        *JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	User         *User
}

func NewService(repo Repository, operators OperatorChecker, jwt *JWTManager, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{repo: repo, operators: operators, jwt: jwt, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

type RegisterInput struct {
	Email               string
	Password            string
	FirstName           string
	LastName            string
	PhoneNumber         string
	MobileMoneyOperator string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthTokens, error) {
	if in.Email == "" || in.Password == "" || in.PhoneNumber == "" ||
		in.FirstName == "" || in.LastName == "" || in.MobileMoneyOperator == "" {
		return nil, ErrMissingFields
	}

	operatorName, ok := mobileMoneyOperators[strings.ToLower(strings.TrimSpace(in.MobileMoneyOperator))]
	if !ok {
		return nil, ErrInvalidOperator
	}

	normalized := operator.NormalizePhone(in.PhoneNumber)
	_, exists, err := s.operators.CheckNumber(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPhoneNotAllowed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.CreateUser(ctx, CreateUserInput{
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:        string(hash),
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		PhoneNumber:         normalized,
		MobileMoneyOperator: operatorName,
		Role:                RoleUser,
	})
	if err != nil {
		return nil, err
	}

	return s.createSessionAndTokens(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.createSessionAndTokens(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil, ErrSessionInvalid
	}

	session, err := s.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if session.RevokedAt != nil || time.Now().UTC().After(session.ExpiresAt) {
		return nil, ErrSessionInvalid
	}
	if session.RefreshHash != hashToken(refreshToken) {
		return nil, ErrSessionInvalid
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	accessToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSessionRefreshHash(ctx, session.ID, hashToken(newRefreshToken)); err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		SessionID:    session.ID,
		User:         user,
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil || claims.Type != "refresh" {
		return nil
	}
	return s.repo.RevokeSession(ctx, claims.SessionID)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) createSessionAndTokens(ctx context.Context, user *User) (*AuthTokens, error) {
	expiresAt := time.Now().UTC().Add(s.refreshTTL)
	session, err := s.repo.CreateSession(ctx, user.ID, "", expiresAt)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.Mint(user.ID, session.ID, user.Role, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSessionRefreshHash(ctx, session.ID, hashToken(refreshToken)); err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    session.ID,
		User:         user,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
