package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mrnavastar/mclaunch/util/fileutils"
)

var ErrHTTPStatus = errors.New("unexpected http status")

type StatusError struct {
	Status int
	Url    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.Status, e.Url)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}

// Endpoints holds every remote location the launcher talks to.
type Endpoints struct {
	Manifest         string
	Resources        string
	MojangLibraries  string
	NeoForgeVersions string
	NeoForgeMaven    string
	ForgeMaven       string
	DeviceCode       string
	Token            string
	XboxAuth         string
	XSTSAuth         string
	MinecraftLogin   string
	MinecraftProfile string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Manifest:         "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
		Resources:        "https://resources.download.minecraft.net",
		MojangLibraries:  "https://libraries.minecraft.net",
		NeoForgeVersions: "https://maven.neoforged.net/api/maven/versions/releases/net/neoforged/neoforge",
		NeoForgeMaven:    "https://maven.neoforged.net/releases",
		ForgeMaven:       "https://maven.minecraftforge.net",
		DeviceCode:       "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode",
		Token:            "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
		XboxAuth:         "https://user.auth.xboxlive.com/user/authenticate",
		XSTSAuth:         "https://xsts.auth.xboxlive.com/xsts/authorize",
		MinecraftLogin:   "https://api.minecraftservices.com/authentication/login_with_xbox",
		MinecraftProfile: "https://api.minecraftservices.com/minecraft/profile",
	}
}

const ClientId = "c36a9fb6-4f2a-41ff-90bd-ae7cc92031eb"

type Client struct {
	Endpoints Endpoints
	ClientId  string
	client    *resty.Client
}

func NewClient(endpoints Endpoints, timeout time.Duration, retries int) *Client {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", "mclaunch")

	return &Client{Endpoints: endpoints, ClientId: ClientId, client: client}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, &StatusError{Status: resp.StatusCode(), Url: url}
	}
	return resp.Body(), nil
}

// Download streams url into dest. onProgress, when set, sees the running
// byte count and the advertised length (0 when unknown). A failed transfer
// leaves no file at dest.
func (c *Client) Download(ctx context.Context, url string, dest string, onProgress func(size int64, total int64)) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return err
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return &StatusError{Status: resp.StatusCode(), Url: url}
	}

	counter := &fileutils.WriteCounter{Total: resp.RawResponse.ContentLength, OnWrite: onProgress}
	if counter.Total < 0 {
		counter.Total = 0
	}
	_, err = fileutils.WriteStream(dest, io.TeeReader(body, counter))
	return err
}
