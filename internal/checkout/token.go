package checkout

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "ceazy-storefront"

// TokenMaker signs short-lived download tokens so a purchase acknowledgment
// can hand out a link that cannot be fabricated from an album id.
type TokenMaker struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenMaker(secret string, ttl time.Duration) *TokenMaker {
	return &TokenMaker{secret: []byte(secret), ttl: ttl}
}

type downloadClaims struct {
	AlbumID int `json:"albumId"`
	jwt.RegisteredClaims
}

func (t *TokenMaker) Sign(albumID int) (string, error) {
	now := time.Now()

	claims := downloadClaims{
		AlbumID: albumID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(albumID),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse returns the album id carried by a valid, unexpired token.
func (t *TokenMaker) Parse(tokenStr string) (int, error) {
	var c downloadClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	if c.Issuer != tokenIssuer {
		return 0, errors.New("invalid issuer")
	}

	return c.AlbumID, nil
}
