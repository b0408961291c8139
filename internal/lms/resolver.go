package lms

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mundschenk-at/squeezebox-ir-events/internal/apperrors"
)

var (
	playerIndexSplit = regexp.MustCompile(` playerindex%3A[0-9]+ `)
	playerIDField    = regexp.MustCompile(`playerid%3A([^ ]+) `)
)

// Commander is the subset of Client the resolver needs.
type Commander interface {
	QueryInt(command string, args ...string) (int, error)
	SendCommand(template string, args ...string) (string, error)
}

// ResolvePlayerID maps a configured player name to its LMS identifier, most
// likely the player's MAC address. The id is returned percent-encoded, ready
// for matcher construction.
//
// The roster is fetched in one batch: `player count ?` followed by
// `players 0 <count>`. The reply is one long line of encoded fields split by
// per-player `playerindex` markers; the first chunk is the echoed command.
// The id is resolved fresh every session and never cached across reconnects,
// since the server roster may have changed.
func ResolvePlayerID(c Commander, name string) (string, error) {
	count, err := c.QueryInt("player count")
	if err != nil {
		return "", err
	}

	roster, err := c.SendCommand("players 0 %s", strconv.Itoa(count))
	if err != nil {
		return "", err
	}

	chunks := playerIndexSplit.Split(roster, -1)
	if len(chunks) > 0 {
		chunks = chunks[1:]
	}

	// Exact name match in encoded form, delimited by the trailing space of
	// the field.
	needle := "name%3A" + Quote(name) + " "

	for _, chunk := range chunks {
		if !strings.Contains(chunk+" ", needle) {
			continue
		}
		match := playerIDField.FindStringSubmatch(chunk + " ")
		if match == nil {
			continue
		}
		return Quote(Unquote(match[1])), nil
	}

	return "", apperrors.NewPlayerNotFoundError(name)
}
