// Package token は access/refresh の署名付きトークンを発行・検証する。
// access/refreshは別の鍵で署名し、互いの検証には通らない。
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// 署名不一致・形式不正・別クラスのトークン
	ErrInvalidSignature = errors.New("token: invalid signature")
	// 埋め込まれたexpを過ぎている
	ErrExpired = errors.New("token: expired")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// アクセストークンに載せる内容
type AccessPayload struct {
	UserID string
	Email  string
}

// リフレッシュトークンに載せる内容。TokenIDはトークンごとのランダムID。
type RefreshPayload struct {
	UserID  string
	TokenID string
}

type accessClaims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	TokenID string `json:"tokenId"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// exp判定の許容ずれ
	Leeway time.Duration
	// テスト用。nilならtime.Now
	Now func() time.Time
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	leeway        time.Duration
	now           func() time.Time
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token: secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		leeway:        cfg.Leeway,
		now:           now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) SignAccess(p AccessPayload) (string, error) {
	now := c.now()

	claims := accessClaims{
		Email: p.Email,
		Type:  typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (c *Codec) SignRefresh(p RefreshPayload) (string, error) {
	now := c.now()

	claims := refreshClaims{
		TokenID: p.TokenID,
		Type:    typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			ID:        p.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

func (c *Codec) VerifyAccess(raw string) (AccessPayload, error) {
	var claims accessClaims
	if err := c.parse(raw, c.accessSecret, &claims); err != nil {
		return AccessPayload{}, err
	}
	if claims.Type != typeAccess || claims.Subject == "" {
		return AccessPayload{}, ErrInvalidSignature
	}
	if err := c.checkExpiry(&claims.RegisteredClaims); err != nil {
		return AccessPayload{}, err
	}

	return AccessPayload{UserID: claims.Subject, Email: claims.Email}, nil
}

func (c *Codec) VerifyRefresh(raw string) (RefreshPayload, error) {
	var claims refreshClaims
	if err := c.parse(raw, c.refreshSecret, &claims); err != nil {
		return RefreshPayload{}, err
	}
	if claims.Type != typeRefresh || claims.Subject == "" || claims.TokenID == "" {
		return RefreshPayload{}, ErrInvalidSignature
	}
	if err := c.checkExpiry(&claims.RegisteredClaims); err != nil {
		return RefreshPayload{}, err
	}

	return RefreshPayload{UserID: claims.Subject, TokenID: claims.TokenID}, nil
}

// 署名と形式だけを見る。期限はcheckExpiryでc.nowを基準に判定する。
func (c *Codec) parse(raw string, secret []byte, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return ErrInvalidSignature
	}
	return nil
}

func (c *Codec) checkExpiry(claims *jwt.RegisteredClaims) error {
	if claims.ExpiresAt == nil {
		return ErrInvalidSignature
	}
	if !c.now().Before(claims.ExpiresAt.Time.Add(c.leeway)) {
		return ErrExpired
	}
	return nil
}

// Hash は保存用のトークンハッシュ（sha256の16進）。
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
