package models

import "strings"

// ByeLabel is displayed in place of the missing opponent of a bye match
const ByeLabel = "Waiting for opponent"

// Prompts shown when a control is used before the session allows it
const (
	IncompleteRoundPrompt = "Select a winner for every match!"
	NeedPlayersPrompt     = "Add at least 2 players to start a tournament."
)

// TeamSeparator joins player names when a team is displayed
const TeamSeparator = " & "

// IsByeSlot determines if a slot holds the bye placeholder. A slot with no team, or a team with no players, is a bye
func IsByeSlot(s Slot) bool {
	if s.Team == nil {
		return true
	}
	if len(s.Team.Players) == 0 {
		return true
	}
	return false
}

// IsByeMatch determines if a match has only one real team
func IsByeMatch(m Match) bool {
	return len(m.Teams()) <= 1
}

// Label renders a team's players joined with the team separator
func (t Team) Label() string {
	return strings.Join(t.Players, TeamSeparator)
}

// Label renders the slot, using ByeLabel for a bye
func (s Slot) Label() string {
	if IsByeSlot(s) {
		return ByeLabel
	}
	return s.Team.Label()
}
