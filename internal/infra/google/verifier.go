package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ordinary-note/internal/domain/model"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// 検証は通ったがsub/email/nameが無い
var ErrMissingClaims = errors.New("google id token missing required claims")

// Verifier はGoogleのIDトークンを検証する。audienceはOAuthクライアントID。
type Verifier struct {
	validator payloadValidator
	audience  string
	timeout   time.Duration
}

type payloadValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

func NewVerifier(ctx context.Context, clientID string, timeout time.Duration) (*Verifier, error) {
	v, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("create id token validator: %w", err)
	}
	return &Verifier{validator: v, audience: clientID, timeout: timeout}, nil
}

// Verify は署名・issuer・audience・期限を検証してプロフィールを返す。
func (v *Verifier) Verify(ctx context.Context, credential string) (model.GoogleProfile, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	payload, err := v.validator.Validate(ctx, credential, v.audience)
	if err != nil {
		if ctx.Err() != nil {
			return model.GoogleProfile{}, fmt.Errorf("validate google id token: %w", ctx.Err())
		}
		return model.GoogleProfile{}, fmt.Errorf("validate google id token: %w", err)
	}

	return profileFromPayload(payload)
}

func profileFromPayload(p *idtoken.Payload) (model.GoogleProfile, error) {
	if p == nil {
		return model.GoogleProfile{}, ErrMissingClaims
	}

	email := stringClaim(p.Claims, "email")
	name := stringClaim(p.Claims, "name")
	if p.Subject == "" || email == "" || name == "" {
		return model.GoogleProfile{}, ErrMissingClaims
	}

	profile := model.GoogleProfile{GoogleID: p.Subject, Email: email, Name: name}
	if pic := stringClaim(p.Claims, "picture"); pic != "" {
		profile.ProfileImage = &pic
	}
	return profile, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
