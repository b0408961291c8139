package lms

import (
	"regexp"
	"strconv"
)

// Grammar holds the per-session matchers for push notifications, scoped to
// one resolved player id. Push lines carry a command echo before the id, so
// matchers search anywhere in the line. A Grammar must be rebuilt whenever
// the id changes; stale matchers from a previous session must never be
// reused.
type Grammar struct {
	playerID string
	power    *regexp.Regexp
	volume   *regexp.Regexp
}

// CompileGrammar builds the power and volume matchers for the given encoded
// player id.
func CompileGrammar(encodedPlayerID string) *Grammar {
	id := regexp.QuoteMeta(encodedPlayerID)
	return &Grammar{
		playerID: encodedPlayerID,
		power:    regexp.MustCompile(id + ` power ([01])`),
		volume:   regexp.MustCompile(id + ` mixer volume ([0-9]+)`),
	}
}

// PlayerID returns the encoded player id the grammar was compiled for.
func (g *Grammar) PlayerID() string {
	return g.playerID
}

// MatchPower reports whether line is a power notification for this player,
// and if so whether the player turned on.
func (g *Grammar) MatchPower(line string) (on bool, ok bool) {
	match := g.power.FindStringSubmatch(line)
	if match == nil {
		return false, false
	}
	return match[1] == "1", true
}

// MatchVolume reports whether line is an absolute volume notification for
// this player, and if so the new volume.
func (g *Grammar) MatchVolume(line string) (volume int, ok bool) {
	match := g.volume.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	volume, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return volume, true
}
