package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ponyo877/vivachat/client/transport/memory"
)

var ErrUnauthorized = errors.New("unauthorized")

type Usecase struct {
	broker Broker
	secret []byte
	now    func() time.Time
}

// NewUsecase returns the relay's usecase. With an empty secret tokens are
// only checked for expiry, not for their signature.
func NewUsecase(broker Broker, secret string) *Usecase {
	return &Usecase{broker: broker, secret: []byte(secret), now: time.Now}
}

// Authenticate vets the Authorization header of a STOMP CONNECT.
func (u *Usecase) Authenticate(header string) error {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	if len(u.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		exp, err := claims.GetExpirationTime()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		if exp != nil && !u.now().Before(exp.Time) {
			return fmt.Errorf("%w: token expired", ErrUnauthorized)
		}
		return nil
	}

	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return u.secret, nil
	}, jwt.WithTimeFunc(u.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return nil
}

func (u *Usecase) Stats() memory.Stats {
	return u.broker.Stats()
}

func (u *Usecase) Subscribers(destination string) int {
	return u.broker.Subscribers(destination)
}
