package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// refreshに失敗した。再ログインが必要。
var ErrSessionExpired = errors.New("session expired")

const (
	authPathPrefix        = "/api/auth/"
	defaultRefreshTimeout = 10 * time.Second
)

// APIError はサーバーの {"error":{code,message}} を表す。
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

type User struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

// Client はアクセストークンを保持し、401ならrefreshして1回だけ再送する。
// 同時に401になったリクエストはrefreshを1回だけ共有する。
type Client struct {
	baseURL        string
	http           *http.Client
	log            logrus.FieldLogger
	refreshTimeout time.Duration

	mu          sync.RWMutex
	accessToken string

	refreshGroup singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Client) { c.refreshTimeout = d }
}

// refresh cookieはcookie jarで持つ
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Jar: jar, Timeout: 30 * time.Second},
		log:            logrus.StandardLogger(),
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http.Jar == nil {
		//渡されたhttp.Clientは書き換えずコピーにjarを付ける
		hc := *c.http
		hc.Jar = jar
		c.http = &hc
	}
	c.log = c.log.WithField("component", "authclient")
	return c, nil
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setAccessToken(t string) {
	c.mu.Lock()
	c.accessToken = t
	c.mu.Unlock()
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type meResponse struct {
	User User `json:"user"`
}

func (c *Client) LoginWithGoogle(ctx context.Context, credential string) (*User, error) {
	var out loginResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/google", map[string]string{"credential": credential}, &out); err != nil {
		return nil, err
	}
	c.setAccessToken(out.AccessToken)
	return &out.User, nil
}

// Refresh はcookieのrefresh tokenで新しいアクセストークンを取る。
// 401ならトークンを捨ててErrSessionExpired。
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out refreshResponse
	status, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", nil, "", &out)
	if err != nil {
		if status == http.StatusUnauthorized {
			c.setAccessToken("")
			return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return "", err
	}
	c.setAccessToken(out.AccessToken)
	return out.AccessToken, nil
}

// サーバー側の失敗に関係なくローカルのトークンは捨てる
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setAccessToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out meResponse
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// 起動時の復元（refresh → me）
func (c *Client) RestoreSession(ctx context.Context) (*User, error) {
	if _, err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c.Me(ctx)
}

// Do はbearerを付けて送る。/api/auth/ 以外で401なら1回だけrefreshして再送する。
func (c *Client) Do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = b
	}

	used := c.AccessToken()
	status, err := c.send(ctx, method, path, body, used, out)
	if status != http.StatusUnauthorized {
		return err
	}

	if strings.HasPrefix(path, authPathPrefix) {
		c.setAccessToken("")
		return err
	}

	fresh, rerr := c.refreshAfter(ctx, used)
	if rerr != nil {
		return rerr
	}

	_, err = c.send(ctx, method, path, body, fresh, out)
	return err
}

// 失敗したときのトークンが既に差し替わっていればそれを使う
func (c *Client) refreshAfter(ctx context.Context, stale string) (string, error) {
	if cur := c.AccessToken(); cur != "" && cur != stale {
		return cur, nil
	}

	ch := c.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()

		c.log.Debug("refreshing access token")
		return c.Refresh(rctx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, ErrSessionExpired) {
				c.setAccessToken("")
				return "", fmt.Errorf("%w: %v", ErrSessionExpired, res.Err)
			}
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, bearer string, out interface{}) (int, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		envelope.Error = apiErr
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
