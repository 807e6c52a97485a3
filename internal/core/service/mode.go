package service

import (
	"os"
	"strconv"
	"strings"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
)

// UpdateEnv is the environment switch that promotes test mode to record.
const UpdateEnv = "SNAPMESH_UPDATE"

// Mode is the run-wide policy deciding whether assertions write or verify.
type Mode string

// Modes.
const (
	ModeTest      Mode = "test"
	ModeRecord    Mode = "record"
	ModeFresh     Mode = "new"
	ModeBroadcast Mode = "broadcast"
	ModeBoth      Mode = "both"
)

var modeAliases = map[string]Mode{
	"":          ModeTest,
	"test":      ModeTest,
	"record":    ModeRecord,
	"drive":     ModeRecord,
	"new":       ModeFresh,
	"broadcast": ModeBroadcast,
	"tcp":       ModeBroadcast,
	"both":      ModeBoth,
}

// ParseMode maps a configured mode name, including legacy aliases, to a Mode.
func ParseMode(name string) (Mode, error) {
	m, ok := modeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", domain.ErrConfiguration.WithDetails("unknown snapshot mode " + strconv.Quote(name))
	}
	return m, nil
}

// ResolveMode parses name and applies the update switch: update, or
// SNAPMESH_UPDATE set to a true value, turns test into record.
func ResolveMode(name string, update bool) (Mode, error) {
	m, err := ParseMode(name)
	if err != nil {
		return "", err
	}
	if m == ModeTest && (update || envUpdate()) {
		return ModeRecord, nil
	}
	return m, nil
}

func envUpdate() bool {
	v, ok := os.LookupEnv(UpdateEnv)
	if !ok {
		return false
	}
	on, err := strconv.ParseBool(v)
	return err == nil && on
}

// Writes reports whether assertions record instead of compare.
func (m Mode) Writes() bool {
	return m != ModeTest
}

// WritesStorage reports whether recorded content is persisted.
func (m Mode) WritesStorage() bool {
	return m == ModeRecord || m == ModeFresh || m == ModeBoth
}

// Broadcasts reports whether recorded content goes to the live channel.
func (m Mode) Broadcasts() bool {
	return m == ModeBroadcast || m == ModeBoth
}

// Fresh reports whether the group is reset before the first write of a run.
func (m Mode) Fresh() bool {
	return m == ModeFresh
}

func (m Mode) String() string {
	return string(m)
}
