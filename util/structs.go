package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned when a remote or on-disk document is missing
// fields the launcher cannot work without.
var ErrMalformed = errors.New("malformed document")

type VersionManifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionSummary `json:"versions"`
}

// Find returns the summary for id, if the manifest lists it.
func (m VersionManifest) Find(id string) (VersionSummary, bool) {
	for _, v := range m.Versions {
		if v.Id == id {
			return v, true
		}
	}
	return VersionSummary{}, false
}

type VersionSummary struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	Url         string `json:"url"`
	ReleaseTime string `json:"releaseTime"`
	Sha1        string `json:"sha1"`
}

type VersionDetails struct {
	Id                 string        `json:"id"`
	Type               string        `json:"type,omitempty"`
	MainClass          string        `json:"mainClass"`
	InheritsFrom       string        `json:"inheritsFrom,omitempty"`
	MinecraftArguments string        `json:"minecraftArguments,omitempty"`
	Arguments          *Arguments    `json:"arguments,omitempty"`
	Libraries          []Library     `json:"libraries"`
	Downloads          Downloads     `json:"downloads"`
	AssetIndex         AssetIndexRef `json:"assetIndex"`
	Assets             string        `json:"assets,omitempty"`
}

type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	Jvm  []Argument `json:"jvm,omitempty"`
}

// Argument is either a plain template string or a rule-guarded group of
// templates. Plain strings decode to a single value with no rules.
type Argument struct {
	Values []string
	Rules  []Rule
}

func (a *Argument) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*a = Argument{Values: []string{plain}}
		return nil
	}

	var guarded struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &guarded); err != nil {
		return fmt.Errorf("%w: argument: %v", ErrMalformed, err)
	}

	var values []string
	if err := json.Unmarshal(guarded.Value, &plain); err == nil {
		values = []string{plain}
	} else if err := json.Unmarshal(guarded.Value, &values); err != nil {
		return fmt.Errorf("%w: argument value: %v", ErrMalformed, err)
	}
	*a = Argument{Values: values, Rules: guarded.Rules}
	return nil
}

func (a Argument) MarshalJSON() ([]byte, error) {
	if len(a.Rules) == 0 && len(a.Values) == 1 {
		return json.Marshal(a.Values[0])
	}
	return json.Marshal(struct {
		Rules []Rule   `json:"rules,omitempty"`
		Value []string `json:"value"`
	}{a.Rules, a.Values})
}

type Rule struct {
	Action   string          `json:"action"`
	Os       *OsRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

type OsRule struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

type Library struct {
	Name      string            `json:"name"`
	Url       string            `json:"url,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Extract   *ExtractRules     `json:"extract,omitempty"`
}

// Artifact returns the library's main artifact, or nil when it only ships
// classifiers or has no download block at all.
func (l Library) Artifact() *Artifact {
	if l.Downloads == nil {
		return nil
	}
	return l.Downloads.Artifact
}

// Excludes returns the native extraction exclude prefixes.
func (l Library) Excludes() []string {
	if l.Extract == nil {
		return nil
	}
	return l.Extract.Exclude
}

type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

type Artifact struct {
	Path string `json:"path,omitempty"`
	Sha1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
	Url  string `json:"url"`
}

type ExtractRules struct {
	Exclude []string `json:"exclude,omitempty"`
}

type Downloads struct {
	Client *Artifact `json:"client,omitempty"`
}

type AssetIndexRef struct {
	Id        string `json:"id"`
	Sha1      string `json:"sha1,omitempty"`
	Size      int64  `json:"size,omitempty"`
	TotalSize int64  `json:"totalSize,omitempty"`
	Url       string `json:"url"`
}

type NeoForgeInstallProfile struct {
	Version    string                     `json:"version"`
	Minecraft  string                     `json:"minecraft"`
	Json       string                     `json:"json"`
	Libraries  []Library                  `json:"libraries"`
	Processors []json.RawMessage          `json:"processors"`
	Data       map[string]ProfileDataPair `json:"data"`
}

type ProfileDataPair struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

type AccountType string

const (
	Microsoft AccountType = "microsoft"
	Offline   AccountType = "offline"
)

type AuthSession struct {
	Id           string      `json:"id"`
	Username     string      `json:"username"`
	Uuid         string      `json:"uuid"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time   `json:"expiresAt,omitempty"`
	Type         AccountType `json:"type"`
}

// Expired reports whether the session has a known expiry that lies before t.
func (s AuthSession) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}

type ServerStatus struct {
	Online      bool           `json:"online"`
	Host        string         `json:"host"`
	Port        int            `json:"port"`
	Version     *ServerVersion `json:"version,omitempty"`
	Players     *ServerPlayers `json:"players,omitempty"`
	Description string         `json:"description,omitempty"`
	Favicon     string         `json:"favicon,omitempty"`
	Ping        time.Duration  `json:"ping,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ServerVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type ServerPlayers struct {
	Online int            `json:"online"`
	Max    int            `json:"max"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

type PlayerSample struct {
	Name string `json:"name"`
	Id   string `json:"id"`
}

type ProgressEvent struct {
	Stage   string  `json:"stage"`
	Message string  `json:"message"`
	Percent float64 `json:"percent"`
}

type GameEventKind string

const (
	GameLog   GameEventKind = "log"
	GameExit  GameEventKind = "exit"
	GameError GameEventKind = "error"
)

type GameEvent struct {
	Kind   GameEventKind
	Stream string
	Line   string
	Code   int
	Err    error
}

type AuthState string

const (
	AuthStart               AuthState = "start"
	AuthDeviceCodeRequested AuthState = "device_code_requested"
	AuthPolling             AuthState = "polling"
	AuthXboxLive            AuthState = "xbox_live"
	AuthXSTS                AuthState = "xsts"
	AuthMinecraft           AuthState = "minecraft_auth"
	AuthProfile             AuthState = "profile_fetch"
	AuthDone                AuthState = "done"
	AuthFailed              AuthState = "error"
)

type AuthEvent struct {
	State           AuthState
	UserCode        string
	VerificationUri string
	Err             error
}
