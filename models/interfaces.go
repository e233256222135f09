package models

import "fmt"

// Phase is the progression state of a tournament session. It is derived from the session fields, never stored
type Phase int32

const (
	Phase_SETUP             Phase = 0
	Phase_ROUND_IN_PROGRESS Phase = 1
	Phase_ROUND_COMPLETE    Phase = 2
	Phase_FINISHED          Phase = 3
)

var phaseNames = map[Phase]string{
	Phase_SETUP:             "setup",
	Phase_ROUND_IN_PROGRESS: "round_in_progress",
	Phase_ROUND_COMPLETE:    "round_complete",
	Phase_FINISHED:          "finished",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int32(p))
}

// TeamSize is the number of participants placed on each team
type TeamSize int

const (
	TeamSize_SOLO TeamSize = 1
	TeamSize_DUO  TeamSize = 2
)

// DefaultTeamSize is used by a freshly created session
const DefaultTeamSize = TeamSize_DUO

// TeamSizes lists the selectable team sizes in display order
var TeamSizes = []TeamSize{TeamSize_SOLO, TeamSize_DUO}

var teamSizeNames = map[TeamSize]string{
	TeamSize_SOLO: "solo",
	TeamSize_DUO:  "duo",
}

func (s TeamSize) String() string {
	if name, ok := teamSizeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("%d", int(s))
}

// Valid reports whether s is one of the selectable team sizes
func (s TeamSize) Valid() bool {
	_, ok := teamSizeNames[s]
	return ok
}

// ParseTeamSize accepts either the numeric value or the display name of a team size
func ParseTeamSize(v string) (TeamSize, bool) {
	for size, name := range teamSizeNames {
		if v == name || v == fmt.Sprintf("%d", int(size)) {
			return size, true
		}
	}
	return 0, false
}

// Team is a group of participants competing together. IDs are assigned when teams are formed and stay fixed for the rest of the tournament
type Team struct {
	ID      int      `json:"id"`
	Players []string `json:"players"`
}

// Equals compares teams by ID; rosters may repeat names
func (t Team) Equals(o Team) bool {
	return t.ID == o.ID
}

// Slot is one side of a match: either a real team or a bye
type Slot struct {
	Team *Team `json:"team,omitempty"`
}

// Real returns a slot occupied by t
func Real(t Team) Slot {
	return Slot{Team: &t}
}

// Bye returns the empty slot used when a round has an odd number of teams
func Bye() Slot {
	return Slot{}
}

// Side selects the home or away slot of a match
type Side int

const (
	Side_HOME Side = 0
	Side_AWAY Side = 1
)

func (s Side) String() string {
	switch s {
	case Side_HOME:
		return "home"
	case Side_AWAY:
		return "away"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// ParseSide accepts "home"/"away" as well as 0/1
func ParseSide(v string) (Side, bool) {
	switch v {
	case "home", "0":
		return Side_HOME, true
	case "away", "1":
		return Side_AWAY, true
	}
	return 0, false
}

// Match pairs two slots. Only the away slot is ever a bye
type Match struct {
	Home Slot `json:"home"`
	Away Slot `json:"away"`
}

// Slot returns the slot on the given side
func (m Match) Slot(side Side) (Slot, bool) {
	switch side {
	case Side_HOME:
		return m.Home, true
	case Side_AWAY:
		return m.Away, true
	}
	return Slot{}, false
}

// Teams returns the real teams in the match, home first
func (m Match) Teams() []Team {
	var teams []Team
	for _, s := range []Slot{m.Home, m.Away} {
		if !IsByeSlot(s) {
			teams = append(teams, *s.Team)
		}
	}
	return teams
}
