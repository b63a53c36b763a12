package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/samanvay/attendance_service/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrUnknownRole  = errors.New("unknown role")
)

// Claims is the payload of a Samanvay bearer token.
type Claims struct {
	Role model.Role `json:"role"`
	Name string     `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token for the identity.
func (i *Issuer) Issue(identity model.Identity) (string, error) {
	if !validRole(identity.Role) {
		return "", ErrUnknownRole
	}

	now := i.now()
	claims := Claims{
		Role: identity.Role,
		Name: identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the caller identity.
// Tokens without an exp claim are rejected.
func (i *Issuer) Parse(raw string) (*model.Identity, error) {
	var claims Claims

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.VerifyExpiresAt(i.now(), true) {
		return nil, fmt.Errorf("%w: missing or past exp", ErrInvalidToken)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	if !validRole(claims.Role) {
		return nil, ErrUnknownRole
	}

	return &model.Identity{ID: id, Role: claims.Role, Name: claims.Name}, nil
}

func validRole(r model.Role) bool {
	switch r {
	case model.RoleStudent, model.RoleTutor, model.RoleCourseAdmin, model.RoleSuperAdmin:
		return true
	default:
		return false
	}
}
