package usecase

import (
	"context"
	"strings"
)

// 監査ログに残す呼び出し元の情報
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

func RequestMetaFrom(ctx context.Context) (RequestMeta, bool) {
	m, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m, ok
}

// "ip=... request_id=... user_agent=..." 空の項目は出さない
func (m RequestMeta) Detail() string {
	parts := make([]string, 0, 3)
	if m.IP != "" {
		parts = append(parts, "ip="+m.IP)
	}
	if m.RequestID != "" {
		parts = append(parts, "request_id="+m.RequestID)
	}
	if m.UserAgent != "" {
		parts = append(parts, "user_agent="+m.UserAgent)
	}
	return strings.Join(parts, " ")
}
