package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/food-ordering/pkg/validate"
)

const issuer = "food-ordering"

// claims is the JWT payload.
type claims struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignUpRequest holds the input for registering a customer.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// Config controls token signing.
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// Service registers and authenticates customers.
type Service struct {
	users Repository
	cfg   Config
	now   func() time.Time
}

// NewService creates a Service backed by users.
func NewService(users Repository, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Service{users: users, cfg: cfg, now: time.Now}
}

// SignUp registers a new customer and issues a token for them.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*User, *Token, error) {
	req.Email = normalizeEmail(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, errors.Wrap(err, "create user")
	}

	tok, err := s.issue(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// SignIn checks the password and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, *Token, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, errors.Wrap(err, "find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tok, err := s.issue(u)
	if err != nil {
		return nil, nil, err
	}
	return u, tok, nil
}

// Authenticate verifies a bearer token and returns the identity it carries.
func (s *Service) Authenticate(_ context.Context, token string) (*Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.cfg.Secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}, nil
}

// Profile returns the stored user for id.
func (s *Service) Profile(ctx context.Context, id string) (*User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find user")
	}
	return u, nil
}

func (s *Service) issue(u *User) (*Token, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:       u.Email,
		DisplayName: u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := t.SignedString(s.cfg.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
