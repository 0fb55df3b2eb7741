package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ordinary-note/internal/domain/model"
	"ordinary-note/internal/repository"
	"ordinary-note/internal/token"

	"github.com/sirupsen/logrus"
)

// 再利用検知時のfamily失効に使う時間。呼び出し元がキャンセルしても実行する。
const reuseRemediationTimeout = 5 * time.Second

// ローテーションの条件付き失効に負けた
var errRotationRaced = errors.New("refresh token rotated concurrently")

// トークンの署名・検証
type TokenCodec interface {
	SignAccess(p token.AccessPayload) (string, error)
	SignRefresh(p token.RefreshPayload) (string, error)
	VerifyRefresh(raw string) (token.RefreshPayload, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// GoogleのIDトークンを検証してプロフィールを返す約束
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (model.GoogleProfile, error)
}

type AuthUser struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	ProfileImage *string `json:"profileImage"`
}

type TokenPair struct {
	AccessToken      string
	AccessExpiresIn  int
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type LoginResult struct {
	Tokens TokenPair
	User   AuthUser
}

type AuthUsecaseDeps struct {
	Users    repository.UserRepository
	Tokens   repository.RefreshTokenRepository
	Audits   repository.AuditLogRepository
	Tx       repository.TransactionManager
	Codec    TokenCodec
	Verifier IdentityVerifier
	IDs      IDGenerator
	Clock    Clock
	Log      logrus.FieldLogger
}

type AuthUsecase struct {
	users    repository.UserRepository
	tokens   repository.RefreshTokenRepository
	audits   repository.AuditLogRepository
	tx       repository.TransactionManager
	codec    TokenCodec
	verifier IdentityVerifier
	ids      IDGenerator
	clock    Clock
	log      logrus.FieldLogger
}

func NewAuthUsecase(d AuthUsecaseDeps) *AuthUsecase {
	if d.IDs == nil {
		d.IDs = UUIDGenerator{}
	}
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	return &AuthUsecase{
		users:    d.Users,
		tokens:   d.Tokens,
		audits:   d.Audits,
		tx:       d.Tx,
		codec:    d.Codec,
		verifier: d.Verifier,
		ids:      d.IDs,
		clock:    d.Clock,
		log:      d.Log.WithField("component", "auth"),
	}
}

// Googleのcredentialを検証する。失敗はすべてErrGoogleFailedにまとめる（タイムアウトのみ別）。
func (u *AuthUsecase) VerifyGoogleToken(ctx context.Context, credential string) (model.GoogleProfile, error) {
	if strings.TrimSpace(credential) == "" {
		return model.GoogleProfile{}, ErrGoogleFailed
	}

	profile, err := u.verifier.Verify(ctx, credential)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			u.log.WithError(err).Warn("google verification timed out")
			return model.GoogleProfile{}, ErrUpstreamFailed.WithCause(err)
		}
		u.log.WithError(err).Info("google verification failed")
		return model.GoogleProfile{}, ErrGoogleFailed.WithCause(err)
	}

	//必須クレーム
	if profile.GoogleID == "" || profile.Email == "" || profile.Name == "" {
		u.log.WithField("google_id", profile.GoogleID).Info("google token missing mandatory claims")
		return model.GoogleProfile{}, ErrGoogleFailed
	}

	return profile, nil
}

// google_idで作成 or 更新
func (u *AuthUsecase) FindOrCreateUser(ctx context.Context, profile model.GoogleProfile) (*model.User, error) {
	user, err := u.users.UpsertByGoogleID(ctx, profile)
	if err != nil {
		u.log.WithError(err).Error("upsert user failed")
		return nil, internalError(err)
	}
	return user, nil
}

// POST /api/auth/google の本体
func (u *AuthUsecase) LoginWithGoogle(ctx context.Context, credential string) (*LoginResult, error) {
	profile, err := u.VerifyGoogleToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	user, err := u.FindOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	pair, err := u.CreateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Tokens: *pair, User: toAuthUser(user)}, nil
}

// 新しいfamilyでトークンペアを発行する。familyが生まれるのはここだけ。
func (u *AuthUsecase) CreateTokenPair(ctx context.Context, user *model.User) (*TokenPair, error) {
	now := u.clock.Now()
	familyID := u.ids.NewID()
	tokenID := u.ids.NewID()

	//refresh token発行（DBにはhash保存）
	refreshPlain, err := u.codec.SignRefresh(token.RefreshPayload{UserID: user.ID, TokenID: tokenID})
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	expiresAt := now.Add(u.codec.RefreshTTL())
	if _, err := u.tokens.Create(ctx, user.ID, token.Hash(refreshPlain), familyID, expiresAt); err != nil {
		u.log.WithError(err).WithField("user_id", user.ID).Error("persist refresh token failed")
		return nil, internalError(err)
	}

	//access token発行
	accessPlain, err := u.codec.SignAccess(token.AccessPayload{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	u.audit(ctx, model.AuditLog{UserID: user.ID, Action: model.AuditActionLogin, FamilyID: familyID})

	return &TokenPair{
		AccessToken:      accessPlain,
		AccessExpiresIn:  int(u.codec.AccessTTL().Seconds()),
		RefreshToken:     refreshPlain,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// リフレッシュトークンをローテーションする。
// 失敗の理由（不正・未発行・失効済み・期限切れ）は外に出さずErrRefreshInvalidに揃える。
func (u *AuthUsecase) RotateRefreshToken(ctx context.Context, refreshTokenPlain string) (*TokenPair, error) {
	log := u.log.WithField("op", "rotate")

	//署名・期限（ここで落ちたらストアには触らない）
	payload, err := u.codec.VerifyRefresh(refreshTokenPlain)
	if err != nil {
		log.WithError(err).Info("refresh token rejected by codec")
		return nil, ErrRefreshInvalid
	}
	log = log.WithFields(logrus.Fields{"user_id": payload.UserID, "token_id": payload.TokenID})

	//DB照合
	tokenHash := token.Hash(refreshTokenPlain)
	stored, err := u.tokens.FindByHashWithOwner(ctx, tokenHash)
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		log.Info("refresh token not found")
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		log.WithError(err).Error("find refresh token failed")
		return nil, internalError(err)
	}

	rt := stored.Token
	log = log.WithField("family_id", rt.FamilyID)

	//失効済みが来たら再利用 → family全体を失効
	if rt.IsRevoked() {
		u.revokeFamilyOnReuse(ctx, log, rt)
		return nil, ErrRefreshInvalid
	}

	//期限はDB側のexpires_atを正とする
	now := u.clock.Now()
	if rt.IsExpired(now) {
		log.Info("refresh token expired in store")
		return nil, ErrRefreshInvalid
	}

	if payload.UserID != rt.UserID {
		log.Warn("refresh token subject does not match stored owner")
		return nil, ErrRefreshInvalid
	}

	//同じfamilyで新tokenを作る
	newPlain, err := u.codec.SignRefresh(token.RefreshPayload{UserID: rt.UserID, TokenID: u.ids.NewID()})
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}
	expiresAt := now.Add(u.codec.RefreshTTL())

	//旧tokenの失効と新tokenの保存は1トランザクション
	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		revoked, err := r.RefreshTokens().RevokeByID(ctx, rt.ID, now)
		if err != nil {
			return err
		}
		if !revoked {
			return errRotationRaced
		}

		_, err = r.RefreshTokens().Create(ctx, rt.UserID, token.Hash(newPlain), rt.FamilyID, expiresAt)
		return err
	})
	if errors.Is(err, errRotationRaced) {
		//競合に負けた → 取り直して再利用検知へ
		if again, ferr := u.tokens.FindByHash(ctx, tokenHash); ferr == nil {
			rt = *again
		}
		u.revokeFamilyOnReuse(ctx, log, rt)
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		log.WithError(err).Error("rotate refresh token failed")
		return nil, internalError(err)
	}

	//access再発行（ユーザー情報はリクエストではなくDBから）
	accessPlain, err := u.codec.SignAccess(token.AccessPayload{UserID: stored.Owner.ID, Email: stored.Owner.Email})
	if err != nil {
		return nil, ErrInternal.WithCause(err)
	}

	u.audit(ctx, model.AuditLog{UserID: rt.UserID, Action: model.AuditActionRefreshRotated, FamilyID: rt.FamilyID})

	return &TokenPair{
		AccessToken:      accessPlain,
		AccessExpiresIn:  int(u.codec.AccessTTL().Seconds()),
		RefreshToken:     newPlain,
		RefreshExpiresAt: expiresAt,
	}, nil
}

// ログアウト。見つかったらfamilyごと失効、見つからなければ何もしない。
func (u *AuthUsecase) RevokeRefreshToken(ctx context.Context, refreshTokenPlain string) error {
	if refreshTokenPlain == "" {
		return nil
	}

	rt, err := u.tokens.FindByHash(ctx, token.Hash(refreshTokenPlain))
	if errors.Is(err, repository.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		u.log.WithError(err).Error("find refresh token for logout failed")
		return internalError(err)
	}

	n, err := u.tokens.RevokeByFamily(ctx, rt.FamilyID, u.clock.Now())
	if err != nil {
		u.log.WithError(err).WithField("family_id", rt.FamilyID).Error("revoke family on logout failed")
		return internalError(err)
	}

	u.log.WithFields(logrus.Fields{"user_id": rt.UserID, "family_id": rt.FamilyID, "revoked": n}).Info("logout")
	u.audit(ctx, model.AuditLog{UserID: rt.UserID, Action: model.AuditActionLogout, FamilyID: rt.FamilyID})
	return nil
}

// 見つからなければ(nil, nil)
func (u *AuthUsecase) GetUserByID(ctx context.Context, userID string) (*AuthUser, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(err)
	}
	if user == nil {
		return nil, nil
	}

	au := toAuthUser(user)
	return &au, nil
}

// 期限切れトークンを掃除する
func (u *AuthUsecase) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := u.tokens.DeleteExpired(ctx, u.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purge expired refresh tokens: %w", err)
	}
	if n > 0 {
		u.log.WithField("deleted", n).Info("purged expired refresh tokens")
	}
	return n, nil
}

// 再利用検知。呼び出し元がエラーを無視してもfamilyは失効させる。
func (u *AuthUsecase) revokeFamilyOnReuse(ctx context.Context, log logrus.FieldLogger, rt model.RefreshToken) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reuseRemediationTimeout)
	defer cancel()

	n, err := u.tokens.RevokeByFamily(rctx, rt.FamilyID, u.clock.Now())
	if err != nil {
		log.WithError(err).Error("revoke family after reuse detection failed")
		return
	}

	log.WithField("revoked", n).Warn("refresh token reuse detected, family revoked")
	u.audit(rctx, model.AuditLog{UserID: rt.UserID, Action: model.AuditActionRefreshReuseDetected, FamilyID: rt.FamilyID})
}

// 監査ログの失敗で本処理は落とさない
func (u *AuthUsecase) audit(ctx context.Context, entry model.AuditLog) {
	if u.audits == nil {
		return
	}
	entry.CreatedAt = u.clock.Now()
	if m, ok := RequestMetaFrom(ctx); ok && entry.Detail == "" {
		entry.Detail = m.Detail()
	}
	if err := u.audits.Create(ctx, entry); err != nil {
		u.log.WithError(err).WithField("action", entry.Action).Warn("write audit log failed")
	}
}

// model.UserをAPI返却用に変換。
func toAuthUser(u *model.User) AuthUser {
	return AuthUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		ProfileImage: u.ProfileImage,
	}
}
