package slp

import (
	"fmt"
	"strings"

	"github.com/mrnavastar/mclaunch/util"
	"github.com/tidwall/gjson"
)

// ParseStatus reads the status document a server returns into a status
// record. Host, port and ping are left for the caller to fill.
func ParseStatus(doc []byte) (util.ServerStatus, error) {
	if !gjson.ValidBytes(doc) {
		return util.ServerStatus{}, fmt.Errorf("%w: status response is not valid json", util.ErrMalformed)
	}
	status := util.ServerStatus{Online: true}

	if v := gjson.GetBytes(doc, "version"); v.Exists() {
		status.Version = &util.ServerVersion{Name: v.Get("name").String(), Protocol: int(v.Get("protocol").Int())}
	}

	if p := gjson.GetBytes(doc, "players"); p.Exists() {
		players := &util.ServerPlayers{Online: int(p.Get("online").Int()), Max: int(p.Get("max").Int())}
		for _, s := range p.Get("sample").Array() {
			players.Sample = append(players.Sample, util.PlayerSample{Name: s.Get("name").String(), Id: s.Get("id").String()})
		}
		status.Players = players
	}

	status.Description = flattenText(gjson.GetBytes(doc, "description"))
	status.Favicon = gjson.GetBytes(doc, "favicon").String()
	return status, nil
}

// flattenText renders a chat component: a plain string, or an object whose
// text is followed by its extra segments.
func flattenText(c gjson.Result) string {
	if c.Type == gjson.String {
		return c.String()
	}
	if !c.IsObject() {
		return ""
	}

	var b strings.Builder
	b.WriteString(c.Get("text").String())
	for _, extra := range c.Get("extra").Array() {
		b.WriteString(flattenText(extra))
	}
	return b.String()
}
