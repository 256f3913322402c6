package coinninja

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/thanhpk/randstr"
)

const (
	authTokenLifetime = 2 * time.Minute
	nonceLength       = 16
)

// authSigner mints the short-lived wallet-scoped bearer tokens attached to
// every authenticated request. The signing secret is the device secret handed
// out at verification time; clearing it is what a local deverification does.
type authSigner struct {
	walletID string
	secret   []byte
}

func newAuthSigner(walletID string, secret []byte) *authSigner {
	return &authSigner{walletID: walletID, secret: secret}
}

func (s *authSigner) headers() (map[string]string, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
		"CN-Nonce":     randstr.Hex(nonceLength),
	}
	if s == nil || len(s.secret) == 0 {
		return headers, nil
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"wallet_id": s.walletID,
		"iat":       now.Unix(),
		"exp":       now.Add(authTokenLifetime).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	headers["Authorization"] = "Bearer " + signed
	return headers, nil
}
