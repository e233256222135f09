package tournament

import (
	"math/rand"

	"github.com/justinjudd/bracket/models"
)

// Source provides the permutation used to shuffle the roster. *rand.Rand satisfies it
type Source interface {
	Perm(n int) []int
}

type defaultSource struct{}

func (defaultSource) Perm(n int) []int {
	return rand.Perm(n)
}

// shuffle returns the players reordered by a permutation drawn from src
func shuffle(players []string, src Source) []string {
	places := src.Perm(len(players))
	out := make([]string, len(players))
	for i, place := range places {
		out[i] = players[place]
	}
	return out
}

// formTeams splits players into consecutive teams of size, numbering them from 1
func formTeams(players []string, size int) []models.Team {
	teams := make([]models.Team, 0, (len(players)+size-1)/size)
	for i := 0; i < len(players); i += size {
		end := min(i+size, len(players))
		teams = append(teams, models.Team{
			ID:      len(teams) + 1,
			Players: append([]string(nil), players[i:end]...),
		})
	}
	return teams
}

func cloneTeam(t models.Team) models.Team {
	t.Players = append([]string(nil), t.Players...)
	return t
}

func cloneSlot(s models.Slot) models.Slot {
	if s.Team == nil {
		return s
	}
	return models.Real(cloneTeam(*s.Team))
}
