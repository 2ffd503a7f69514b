package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/repositories"
)

// Principal is the authenticated caller recovered from a token. It is passed
// explicitly to every operation that makes an access decision.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func PrincipalOf(person *models.Person) Principal {
	return Principal{ID: person.ID, Email: person.Email, Role: person.Role}
}

type Token struct {
	Value     string
	ExpiresAt time.Time
}

type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Person, error)
	GenerateToken(person *models.Person) (Token, error)
	ParseToken(token string) (Principal, error)
}

type AuthOptions struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type AuthServiceImpl struct {
	persons repositories.PersonRepository
	secret  []byte
	issuer  string
	ttl     time.Duration
	logger  *logrus.Logger
	now     func() time.Time
}

func NewAuthService(persons repositories.PersonRepository, opts AuthOptions, logger *logrus.Logger) *AuthServiceImpl {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthServiceImpl{
		persons: persons,
		secret:  []byte(opts.Secret),
		issuer:  opts.Issuer,
		ttl:     opts.TTL,
		logger:  logger,
		now:     time.Now,
	}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// Compared against when the email is unknown so both failure paths cost one
// bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*models.Person, error) {
	person, err := s.persons.FindByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			VerifyPassword(string(dummyHash), password)
			s.logger.WithField("email", repositories.NormalizeEmail(email)).Info("login rejected: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find person: %w", err)
	}

	if !VerifyPassword(person.Password, password) {
		s.logger.WithField("person_id", person.ID).Info("login rejected: password mismatch")
		return nil, ErrInvalidCredentials
	}

	return person, nil
}

func (s *AuthServiceImpl) GenerateToken(person *models.Person) (Token, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	tokenID, err := uuid.NewV4()
	if err != nil {
		return Token{}, err
	}

	claims := Claims{
		Email: person.Email,
		Role:  person.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   person.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

func (s *AuthServiceImpl) ParseToken(tokenString string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: malformed subject", ErrUnauthenticated)
	}
	if !claims.Role.Valid() {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, claims.Role)
	}

	return Principal{ID: id, Email: claims.Email, Role: claims.Role}, nil
}
