package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/mclaunch/util"
	"github.com/tidwall/gjson"
)

var ErrProfileNotFound = errors.New("minecraft profile not found")

// XSTSError carries the XErr code XSTS returns when it refuses a user.
type XSTSError struct {
	XErr    int64
	Message string
}

func (e *XSTSError) Error() string {
	return fmt.Sprintf("xsts refused authorization (XErr %d)", e.XErr)
}

type XboxToken struct {
	Token    string
	UserHash string
}

type MinecraftToken struct {
	AccessToken string
	ExpiresIn   int
}

type Profile struct {
	Id   string
	Name string
}

type xboxProperties map[string]interface{}

type xboxRequest struct {
	Properties   xboxProperties
	RelyingParty string
	TokenType    string
}

func (c *Client) postJson(ctx context.Context, url string, body interface{}) (*resty.Response, error) {
	return c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
}

func parseXboxToken(body []byte) XboxToken {
	return XboxToken{
		Token:    gjson.GetBytes(body, "Token").String(),
		UserHash: gjson.GetBytes(body, "DisplayClaims.xui.0.uhs").String(),
	}
}

func (c *Client) AuthenticateXboxLive(ctx context.Context, msAccessToken string) (XboxToken, error) {
	url := c.Endpoints.XboxAuth
	resp, err := c.postJson(ctx, url, xboxRequest{
		Properties: xboxProperties{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msAccessToken,
		},
		RelyingParty: "http://auth.xboxlive.com",
		TokenType:    "JWT",
	})
	if err != nil {
		return XboxToken{}, err
	}
	if resp.IsError() {
		return XboxToken{}, &StatusError{Status: resp.StatusCode(), Url: url}
	}

	token := parseXboxToken(resp.Body())
	if token.Token == "" {
		return XboxToken{}, fmt.Errorf("%w: xbox live response without a token", util.ErrMalformed)
	}
	return token, nil
}

func (c *Client) AuthorizeXSTS(ctx context.Context, xblToken string) (XboxToken, error) {
	url := c.Endpoints.XSTSAuth
	resp, err := c.postJson(ctx, url, xboxRequest{
		Properties: xboxProperties{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xblToken},
		},
		RelyingParty: "rp://api.minecraftservices.com/",
		TokenType:    "JWT",
	})
	if err != nil {
		return XboxToken{}, err
	}

	body := resp.Body()
	if xerr := gjson.GetBytes(body, "XErr"); xerr.Exists() {
		return XboxToken{}, &XSTSError{XErr: xerr.Int(), Message: gjson.GetBytes(body, "Message").String()}
	}
	if resp.IsError() {
		return XboxToken{}, &StatusError{Status: resp.StatusCode(), Url: url}
	}

	token := parseXboxToken(body)
	if token.Token == "" || token.UserHash == "" {
		return XboxToken{}, fmt.Errorf("%w: xsts response without a token or user hash", util.ErrMalformed)
	}
	return token, nil
}

func (c *Client) LoginWithXbox(ctx context.Context, userHash string, xstsToken string) (MinecraftToken, error) {
	url := c.Endpoints.MinecraftLogin
	resp, err := c.postJson(ctx, url, map[string]string{
		"identityToken": "XBL3.0 x=" + userHash + ";" + xstsToken,
	})
	if err != nil {
		return MinecraftToken{}, err
	}
	if resp.IsError() {
		return MinecraftToken{}, &StatusError{Status: resp.StatusCode(), Url: url}
	}

	token := MinecraftToken{
		AccessToken: gjson.GetBytes(resp.Body(), "access_token").String(),
		ExpiresIn:   int(gjson.GetBytes(resp.Body(), "expires_in").Int()),
	}
	if token.AccessToken == "" {
		return MinecraftToken{}, fmt.Errorf("%w: minecraft login response without an access token", util.ErrMalformed)
	}
	return token, nil
}

// GetProfile returns ErrProfileNotFound when the account does not own the
// game.
func (c *Client) GetProfile(ctx context.Context, accessToken string) (Profile, error) {
	url := c.Endpoints.MinecraftProfile
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Get(url)
	if err != nil {
		return Profile{}, err
	}

	body := resp.Body()
	if gjson.GetBytes(body, "error").String() == "NOT_FOUND" {
		return Profile{}, ErrProfileNotFound
	}
	if resp.IsError() {
		return Profile{}, &StatusError{Status: resp.StatusCode(), Url: url}
	}

	profile := Profile{Id: gjson.GetBytes(body, "id").String(), Name: gjson.GetBytes(body, "name").String()}
	if profile.Id == "" || profile.Name == "" {
		return Profile{}, fmt.Errorf("%w: profile without id or name", util.ErrMalformed)
	}
	return profile, nil
}
