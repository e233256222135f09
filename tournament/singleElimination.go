package tournament

import (
	"github.com/justinjudd/bracket/models"
)

// CreateMatches pairs consecutive teams into matches. A leftover team is paired with a bye
func CreateMatches(teams []models.Team) []models.Match {
	matches := make([]models.Match, 0, (len(teams)+1)/2)
	for i := 0; i < len(teams); i += 2 {
		m := models.Match{Home: models.Real(cloneTeam(teams[i])), Away: models.Bye()}
		if i+1 < len(teams) {
			m.Away = models.Real(cloneTeam(teams[i+1]))
		}
		matches = append(matches, m)
	}
	return matches
}

func startTournament(s State, src Source) (State, error) {
	if s.Phase() != models.Phase_SETUP {
		return s, ErrTournamentInProgress
	}

	size := int(s.TeamSize)
	count := len(s.Participants)
	if count == 0 || count%size != 0 {
		err := &ShortfallError{Needed: size - count%size}
		next := s.Clone()
		next.ErrorMessage = err.Error()
		return next, err
	}

	next := s.Clone()
	next.ErrorMessage = ""
	teams := formTeams(shuffle(next.Participants, src), size)
	next.Matches = CreateMatches(teams)
	next.Winners = nil
	return next, nil
}

func selectWinner(s State, matchIndex int, side models.Side) (State, error) {
	if s.Phase() == models.Phase_SETUP {
		return s, ErrNoTournament
	}
	if matchIndex < 0 || matchIndex >= len(s.Matches) {
		return s, ErrMatchIndex
	}
	slot, ok := s.Matches[matchIndex].Slot(side)
	if !ok {
		return s, ErrInvalidSide
	}
	if models.IsByeSlot(slot) {
		return s, ErrByeNotSelectable
	}

	next := s.Clone()
	next.Winners = toggleWinner(next.Winners, *slot.Team)
	return next, nil
}

func startNextRound(s State) (State, error) {
	switch s.Phase() {
	case models.Phase_SETUP:
		return s, ErrNoTournament
	case models.Phase_FINISHED:
		return s, ErrTournamentFinished
	case models.Phase_ROUND_IN_PROGRESS:
		return s, ErrRoundIncomplete
	}

	next := s.Clone()
	next.Round++
	next.Matches = CreateMatches(next.Winners)
	next.Winners = nil
	return next, nil
}

// roundComplete is true when every match has exactly one selected winner
func roundComplete(s State) bool {
	if len(s.Matches) == 0 || len(s.Winners) != len(s.Matches) {
		return false
	}
	for _, m := range s.Matches {
		selected := 0
		for _, t := range m.Teams() {
			if winnerIndex(s.Winners, t) >= 0 {
				selected++
			}
		}
		if selected != 1 {
			return false
		}
	}
	return true
}

func toggleWinner(winners []models.Team, t models.Team) []models.Team {
	if i := winnerIndex(winners, t); i >= 0 {
		return append(winners[:i], winners[i+1:]...)
	}
	return append(winners, cloneTeam(t))
}

func winnerIndex(winners []models.Team, t models.Team) int {
	for i, w := range winners {
		if w.Equals(t) {
			return i
		}
	}
	return -1
}
