package api

import (
	"context"
	"fmt"

	"github.com/mrnavastar/mclaunch/util"
)

func (c *Client) GetVersionManifest(ctx context.Context) (util.VersionManifest, error) {
	body, err := c.get(ctx, c.Endpoints.Manifest)
	if err != nil {
		return util.VersionManifest{}, fmt.Errorf("fetch version manifest: %w", err)
	}
	return util.ParseManifest(body)
}

// GetVersionDetails returns the parsed descriptor along with the raw bytes
// so callers can persist it unchanged.
func (c *Client) GetVersionDetails(ctx context.Context, url string) (util.VersionDetails, []byte, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return util.VersionDetails{}, nil, fmt.Errorf("fetch version details: %w", err)
	}
	details, err := util.ParseVersionDetails(body)
	if err != nil {
		return util.VersionDetails{}, nil, err
	}
	return details, body, nil
}

func (c *Client) AssetUrl(hash string) string {
	return c.Endpoints.Resources + "/" + hash[:2] + "/" + hash
}
