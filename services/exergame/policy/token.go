// Copyright 2023 AI Redefined Inc. <dev+cogment@ai-r.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package policy

import (
	"fmt"
	"time"

	"github.com/cogment/cogment-exergame/version"
	"github.com/golang-jwt/jwt/v5"
)

var TokenIssuer = fmt.Sprintf("Cogment Exergame v%s", version.Version)

// TokenLifetime bounds the validity of a request token, a token is minted for every request
const TokenLifetime = 5 * time.Minute

// TokenClaims identifies the session and mini-game issuing policy requests
type TokenClaims struct {
	SessionID string `json:"session_id"`
	Game      string `json:"game"`
	jwt.RegisteredClaims
}

func makeToken(sessionID string, game string, secret string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		SessionID: sessionID,
		Game:      game,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   game,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
		},
	})
	return token.SignedString([]byte(secret))
}

func MakeAndSerializeToken(sessionID string, game string, secret string) (string, error) {
	return makeToken(sessionID, game, secret, time.Now())
}

func ParseAndVerifyToken(tokenString string, secret string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid policy request token: %w", err)
	}
	if claims.Game == "" {
		return nil, fmt.Errorf("invalid policy request token: missing game claim")
	}
	return claims, nil
}
