package services

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mrnavastar/mclaunch/api"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/pterm/pterm"
)

var (
	ErrDeviceCodeExpired = errors.New("login timed out before the code was entered")
	ErrNotOwned          = errors.New("this account does not own Minecraft")
	ErrXSTS              = errors.New("xbox authorization failed")
)

var xstsReasons = map[int64]string{
	2148916233: "the Microsoft account is not linked to an Xbox account, create one at xbox.com",
	2148916235: "Xbox Live is not available in your country",
	2148916236: "the account needs adult verification",
	2148916238: "the account belongs to a minor and needs a parent's consent",
}

// XSTSReason maps an XErr code to a readable reason.
func XSTSReason(code int64) string {
	if reason, ok := xstsReasons[code]; ok {
		return reason
	}
	return fmt.Sprintf("xbox authorization failed (%d)", code)
}

// AuthError is a login failure tagged with the stage it happened in.
type AuthError struct {
	Stage   util.AuthState
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return string(e.Stage) + ": " + e.Message + " (" + e.Code + ")"
	}
	return string(e.Stage) + ": " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Authenticator runs the Microsoft device-code login and the Xbox Live,
// XSTS and Minecraft token exchange that follows it.
type Authenticator struct {
	Api         *api.Client
	Logger      *pterm.Logger
	Events      *Broadcaster[util.AuthEvent]
	OpenBrowser func(url string) error
	// Invalidate is called when a refresh fails, to forget the stored
	// account.
	Invalidate func() error

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewAuthenticator(client *api.Client, logger *pterm.Logger) *Authenticator {
	if logger == nil {
		logger = util.DiscardLogger()
	}
	return &Authenticator{
		Api:         client,
		Logger:      logger,
		Events:      NewBroadcaster[util.AuthEvent](),
		OpenBrowser: util.OpenBrowser,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (a *Authenticator) emit(event util.AuthEvent) {
	a.Events.Publish(event)
}

func (a *Authenticator) fail(state util.AuthState, message string, err error) error {
	authErr := &AuthError{Stage: state, Message: message, Err: err}
	var oauthErr *api.OAuthError
	var xstsErr *api.XSTSError
	switch {
	case errors.As(err, &xstsErr):
		authErr.Code = strconv.FormatInt(xstsErr.XErr, 10)
	case errors.As(err, &oauthErr):
		authErr.Code = oauthErr.Code
	}
	a.Logger.Error("login failed", a.Logger.Args("stage", state, "error", err))
	a.emit(util.AuthEvent{State: util.AuthFailed, Err: authErr})
	return authErr
}

// Login runs the full device-code flow. The user code is published as an
// AuthDeviceCodeRequested event and the verification page is opened.
func (a *Authenticator) Login(ctx context.Context) (util.AuthSession, error) {
	a.emit(util.AuthEvent{State: util.AuthStart})

	code, err := a.Api.RequestDeviceCode(ctx)
	if err != nil {
		return util.AuthSession{}, a.fail(util.AuthDeviceCodeRequested, "could not request a device code", err)
	}
	a.emit(util.AuthEvent{State: util.AuthDeviceCodeRequested, UserCode: code.UserCode, VerificationUri: code.VerificationUri})
	a.Logger.Info("waiting for device login", a.Logger.Args("code", code.UserCode, "url", code.VerificationUri))
	if a.OpenBrowser != nil {
		if err := a.OpenBrowser(code.VerificationUri); err != nil {
			a.Logger.Debug("could not open browser", a.Logger.Args("error", err))
		}
	}

	a.emit(util.AuthEvent{State: util.AuthPolling})
	token, err := a.poll(ctx, code)
	if err != nil {
		return util.AuthSession{}, err
	}
	return a.exchange(ctx, token)
}

func (a *Authenticator) poll(ctx context.Context, code api.DeviceCode) (api.TokenResponse, error) {
	interval := time.Duration(max(code.Interval, 5)) * time.Second
	deadline := a.now().Add(time.Duration(code.ExpiresIn) * time.Second)

	wait := interval
	for a.now().Before(deadline) {
		if err := a.sleep(ctx, wait); err != nil {
			return api.TokenResponse{}, a.fail(util.AuthPolling, "login cancelled", err)
		}
		wait = interval

		token, err := a.Api.PollToken(ctx, code.DeviceCode)
		if err != nil {
			if ctx.Err() != nil {
				return api.TokenResponse{}, a.fail(util.AuthPolling, "login cancelled", ctx.Err())
			}
			a.Logger.Debug("token poll failed", a.Logger.Args("error", err))
			continue
		}

		switch {
		case token.AccessToken != "":
			return token, nil
		case token.Error == "authorization_pending":
		case token.Error == "slow_down":
			// back off an extra five seconds before the regular wait
			wait = interval + 5*time.Second
		case token.Error != "":
			oauthErr := &api.OAuthError{Code: token.Error, Description: token.ErrorDescription}
			return api.TokenResponse{}, a.fail(util.AuthPolling, oauthErr.Error(), oauthErr)
		}
	}
	return api.TokenResponse{}, a.fail(util.AuthPolling, "the login code expired", ErrDeviceCodeExpired)
}

// exchange turns a Microsoft token into a Minecraft session.
func (a *Authenticator) exchange(ctx context.Context, ms api.TokenResponse) (util.AuthSession, error) {
	a.emit(util.AuthEvent{State: util.AuthXboxLive})
	xbl, err := a.Api.AuthenticateXboxLive(ctx, ms.AccessToken)
	if err != nil {
		return util.AuthSession{}, a.fail(util.AuthXboxLive, "xbox live authentication failed", err)
	}

	a.emit(util.AuthEvent{State: util.AuthXSTS})
	xsts, err := a.Api.AuthorizeXSTS(ctx, xbl.Token)
	if err != nil {
		var xstsErr *api.XSTSError
		if errors.As(err, &xstsErr) {
			return util.AuthSession{}, a.fail(util.AuthXSTS, XSTSReason(xstsErr.XErr), fmt.Errorf("%w: %w", ErrXSTS, err))
		}
		return util.AuthSession{}, a.fail(util.AuthXSTS, "could not get an xsts token", fmt.Errorf("%w: %w", ErrXSTS, err))
	}

	a.emit(util.AuthEvent{State: util.AuthMinecraft})
	mc, err := a.Api.LoginWithXbox(ctx, xsts.UserHash, xsts.Token)
	if err != nil {
		return util.AuthSession{}, a.fail(util.AuthMinecraft, "minecraft authentication failed", err)
	}

	a.emit(util.AuthEvent{State: util.AuthProfile})
	profile, err := a.Api.GetProfile(ctx, mc.AccessToken)
	if errors.Is(err, api.ErrProfileNotFound) {
		return util.AuthSession{}, a.fail(util.AuthProfile, ErrNotOwned.Error(), ErrNotOwned)
	}
	if err != nil {
		return util.AuthSession{}, a.fail(util.AuthProfile, "could not fetch the minecraft profile", err)
	}

	session := util.AuthSession{
		Id:           profile.Id,
		Username:     profile.Name,
		Uuid:         profile.Id,
		AccessToken:  mc.AccessToken,
		RefreshToken: ms.RefreshToken,
		ExpiresAt:    a.expiry(mc),
		Type:         util.Microsoft,
	}
	a.emit(util.AuthEvent{State: util.AuthDone})
	a.Logger.Info("logged in", a.Logger.Args("username", session.Username))
	return session, nil
}

// expiry prefers the lifetime the login endpoint reports and falls back to
// the exp claim of the token itself.
func (a *Authenticator) expiry(mc api.MinecraftToken) time.Time {
	if mc.ExpiresIn > 0 {
		return a.now().Add(time.Duration(mc.ExpiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(mc.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// Refresh trades a Microsoft refresh token for a new session. Any failure
// invalidates the stored account instead of retrying.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (util.AuthSession, error) {
	session, err := a.refresh(ctx, refreshToken)
	if err != nil {
		if a.Invalidate != nil {
			if err1 := a.Invalidate(); err1 != nil {
				a.Logger.Warn("could not clear account", a.Logger.Args("error", err1))
			}
		}
		return util.AuthSession{}, err
	}
	return session, nil
}

func (a *Authenticator) refresh(ctx context.Context, refreshToken string) (util.AuthSession, error) {
	if refreshToken == "" {
		return util.AuthSession{}, a.fail(util.AuthStart, "no refresh token", errors.New("empty refresh token"))
	}
	token, err := a.Api.RefreshToken(ctx, refreshToken)
	if err != nil {
		return util.AuthSession{}, a.fail(util.AuthStart, "could not refresh the microsoft token", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return a.exchange(ctx, token)
}

// OfflineUuid derives the name-based UUID offline servers assign to name.
func OfflineUuid(name string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	id, _ := uuid.FromBytes(sum[:])
	return id
}

func OfflineSession(name string) (util.AuthSession, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 16 {
		return util.AuthSession{}, fmt.Errorf("invalid offline name %q", name)
	}
	id := strings.ReplaceAll(OfflineUuid(name).String(), "-", "")
	return util.AuthSession{
		Id:          id,
		Username:    name,
		Uuid:        id,
		AccessToken: "offline_token",
		Type:        util.Offline,
	}, nil
}
