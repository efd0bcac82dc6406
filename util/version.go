package util

import (
	"encoding/json"
	"fmt"
)

func ParseManifest(data []byte) (VersionManifest, error) {
	var manifest VersionManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return VersionManifest{}, fmt.Errorf("%w: version manifest: %v", ErrMalformed, err)
	}
	for i, v := range manifest.Versions {
		if v.Id == "" || v.Url == "" {
			return VersionManifest{}, fmt.Errorf("%w: version manifest entry %d has no id or url", ErrMalformed, i)
		}
	}
	return manifest, nil
}

// ParseVersionDetails decodes a version descriptor and checks the fields
// every later stage depends on.
func ParseVersionDetails(data []byte) (VersionDetails, error) {
	var details VersionDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return VersionDetails{}, fmt.Errorf("%w: version details: %v", ErrMalformed, err)
	}
	if details.Id == "" {
		return VersionDetails{}, fmt.Errorf("%w: version details missing id", ErrMalformed)
	}
	if details.MainClass == "" {
		return VersionDetails{}, fmt.Errorf("%w: version %s missing mainClass", ErrMalformed, details.Id)
	}
	for i, lib := range details.Libraries {
		if lib.Name == "" {
			return VersionDetails{}, fmt.Errorf("%w: version %s library %d has no name", ErrMalformed, details.Id, i)
		}
	}
	return details, nil
}

func ParseInstallProfile(data []byte) (NeoForgeInstallProfile, error) {
	var profile NeoForgeInstallProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return NeoForgeInstallProfile{}, fmt.Errorf("%w: install profile: %v", ErrMalformed, err)
	}
	for i, lib := range profile.Libraries {
		if lib.Name == "" {
			return NeoForgeInstallProfile{}, fmt.Errorf("%w: install profile library %d has no name", ErrMalformed, i)
		}
	}
	return profile, nil
}
