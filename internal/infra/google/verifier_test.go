package google

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type stubValidator struct {
	payload  *idtoken.Payload
	err      error
	audience string
	block    bool
}

func (s *stubValidator) Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error) {
	s.audience = audience
	if s.block {
		<-ctx.Done()
		return nil, errors.New("fetch certs: request canceled")
	}
	return s.payload, s.err
}

func TestVerify_ReturnsProfile(t *testing.T) {
	stub := &stubValidator{payload: &idtoken.Payload{
		Subject: "1234",
		Claims: map[string]interface{}{
			"email":   "taro@example.com",
			"name":    "Taro",
			"picture": "https://example.com/p.png",
		},
	}}
	v := &Verifier{validator: stub, audience: "client-id", timeout: time.Second}

	p, err := v.Verify(context.Background(), "cred")
	require.NoError(t, err)
	assert.Equal(t, "client-id", stub.audience)
	assert.Equal(t, "1234", p.GoogleID)
	assert.Equal(t, "taro@example.com", p.Email)
	assert.Equal(t, "Taro", p.Name)
	require.NotNil(t, p.ProfileImage)
	assert.Equal(t, "https://example.com/p.png", *p.ProfileImage)
}

func TestVerify_NoPicture(t *testing.T) {
	stub := &stubValidator{payload: &idtoken.Payload{
		Subject: "1234",
		Claims:  map[string]interface{}{"email": "a@example.com", "name": "A"},
	}}
	v := &Verifier{validator: stub, audience: "client-id"}

	p, err := v.Verify(context.Background(), "cred")
	require.NoError(t, err)
	assert.Nil(t, p.ProfileImage)
}

func TestVerify_MissingClaims(t *testing.T) {
	cases := map[string]*idtoken.Payload{
		"no sub":   {Claims: map[string]interface{}{"email": "a@example.com", "name": "A"}},
		"no email": {Subject: "1", Claims: map[string]interface{}{"name": "A"}},
		"no name":  {Subject: "1", Claims: map[string]interface{}{"email": "a@example.com"}},
		"nil":      nil,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			v := &Verifier{validator: &stubValidator{payload: payload}, audience: "client-id"}
			_, err := v.Verify(context.Background(), "cred")
			assert.ErrorIs(t, err, ErrMissingClaims)
		})
	}
}

func TestVerify_ValidatorError(t *testing.T) {
	v := &Verifier{validator: &stubValidator{err: errors.New("idtoken: audience provided does not match")}, audience: "client-id"}

	_, err := v.Verify(context.Background(), "cred")
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}

func TestVerify_Timeout(t *testing.T) {
	v := &Verifier{validator: &stubValidator{block: true}, audience: "client-id", timeout: 10 * time.Millisecond}

	_, err := v.Verify(context.Background(), "cred")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
