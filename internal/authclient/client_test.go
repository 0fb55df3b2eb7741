package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 最小限のAPIサーバー
type fakeAPI struct {
	mu           sync.Mutex
	validToken   string
	refreshCalls atomic.Int32
	refreshOK    bool
	refreshDelay time.Duration
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/google", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/api/auth", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accessToken": f.token(),
			"user":        map[string]string{"id": "u1", "email": "a@example.com", "name": "A"},
		})
	})

	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		time.Sleep(f.refreshDelay)

		if _, err := r.Cookie("refreshToken"); err != nil || !f.refreshOK {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": map[string]string{"code": "AUTH_REFRESH_INVALID", "message": "Invalid refresh token"},
			})
			return
		}

		f.mu.Lock()
		f.validToken = "fresh"
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "fresh"})
	})

	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": map[string]string{"code": "AUTH_TOKEN_EXPIRED", "message": "Access token has expired"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user": map[string]string{"id": "u1", "email": "a@example.com", "name": "A"}})
	})

	mux.HandleFunc("/api/folders", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": map[string]string{"code": "AUTH_TOKEN_EXPIRED", "message": "Access token has expired"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"folders": []string{}})
	})

	return mux
}

func (f *fakeAPI) token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validToken
}

func (f *fakeAPI) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token()
}

func (f *fakeAPI) expire() {
	f.mu.Lock()
	f.validToken = "rotated-away"
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestLoginAndMe(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true}
	c := newClient(t, api)
	ctx := context.Background()

	u, err := c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "first", c.AccessToken())

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true, refreshDelay: 50 * time.Millisecond}
	c := newClient(t, api)
	ctx := context.Background()

	_, err := c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	api.expire()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]interface{}
			errs[i] = c.Do(ctx, http.MethodGet, "/api/folders", nil, &out)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, "fresh", c.AccessToken())
}

func TestDo_RefreshFailureExpiresSession(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: false, refreshDelay: 100 * time.Millisecond}
	c := newClient(t, api)
	ctx := context.Background()

	_, err := c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	api.expire()

	const n = 4
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Do(ctx, http.MethodGet, "/api/folders", nil, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrSessionExpired)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, "", c.AccessToken())
}

func TestDo_AuthPathsDoNotRefresh(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true}
	c := newClient(t, api)
	ctx := context.Background()

	_, err := c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	api.expire()

	_, err = c.Me(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "AUTH_TOKEN_EXPIRED", apiErr.Code)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Equal(t, "", c.AccessToken())
}

func TestRestoreSession(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true}
	c := newClient(t, api)
	ctx := context.Background()

	//cookieが無ければ失敗
	_, err := c.RestoreSession(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)

	u, err := c.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "fresh", c.AccessToken())
}

func TestNew_DoesNotMutateCallerHTTPClient(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	shared := &http.Client{Timeout: 5 * time.Second}
	c, err := New(srv.URL, WithHTTPClient(shared))
	require.NoError(t, err)
	assert.Nil(t, shared.Jar)

	//refresh cookieはコピー側のjarに入る
	ctx := context.Background()
	_, err = c.LoginWithGoogle(ctx, "cred")
	require.NoError(t, err)
	_, err = c.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, shared.Jar)
}

func TestNew_KeepsCallerJar(t *testing.T) {
	api := &fakeAPI{validToken: "first", refreshOK: true}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	c, err := New(srv.URL, WithHTTPClient(&http.Client{Jar: jar}))
	require.NoError(t, err)

	_, err = c.LoginWithGoogle(context.Background(), "cred")
	require.NoError(t, err)

	u, err := url.Parse(srv.URL + "/api/auth/refresh")
	require.NoError(t, err)
	require.Len(t, jar.Cookies(u), 1)
	assert.Equal(t, "r1", jar.Cookies(u)[0].Value)
}
