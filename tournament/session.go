package tournament

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justinjudd/bracket/models"
)

var (
	ErrBlankName            = errors.New("participant name is blank")
	ErrParticipantIndex     = errors.New("participant index out of range")
	ErrInvalidTeamSize      = errors.New("invalid team size")
	ErrTournamentInProgress = errors.New("tournament already in progress")
	ErrNoTournament         = errors.New("no tournament in progress")
	ErrMatchIndex           = errors.New("match index out of range")
	ErrInvalidSide          = errors.New("invalid match side")
	ErrByeNotSelectable     = errors.New("a bye cannot be selected as winner")
	ErrRoundIncomplete      = errors.New("round incomplete")
	ErrTournamentFinished   = errors.New("tournament already finished")
	ErrUnsupportedCommand   = errors.New("unsupported command")
)

// ShortfallError is returned when the roster cannot be split into complete teams
type ShortfallError struct {
	Needed int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("Not enough players! You need %d more player(s) to form complete teams.", e.Needed)
}

// State is a snapshot of a tournament session. Apply never modifies a State it is given
type State struct {
	Participants []string        `json:"participants"`
	TeamSize     models.TeamSize `json:"teamSize"`
	Matches      []models.Match  `json:"matches"`
	Round        int             `json:"round"`
	Winners      []models.Team   `json:"winners"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// NewState returns the state of a freshly created session
func NewState() State {
	return State{
		TeamSize: models.DefaultTeamSize,
		Round:    1,
	}
}

// Phase derives where the session is in its lifecycle
func (s State) Phase() models.Phase {
	switch {
	case len(s.Matches) == 0:
		return models.Phase_SETUP
	case len(s.Matches) == 1 && len(s.Winners) == 1:
		return models.Phase_FINISHED
	case roundComplete(s):
		return models.Phase_ROUND_COMPLETE
	}
	return models.Phase_ROUND_IN_PROGRESS
}

// Champion returns the tournament winner once the session is finished
func (s State) Champion() (models.Team, bool) {
	if s.Phase() != models.Phase_FINISHED {
		return models.Team{}, false
	}
	return s.Winners[0], true
}

// IsWinner reports whether t is currently selected as a winner
func (s State) IsWinner(t models.Team) bool {
	return winnerIndex(s.Winners, t) >= 0
}

// CanStart mirrors the start control: a tournament needs at least two participants
func (s State) CanStart() bool {
	return s.Phase() == models.Phase_SETUP && len(s.Participants) >= 2
}

type CommandType string

const (
	CmdAddParticipant    CommandType = "AddParticipant"
	CmdRemoveParticipant CommandType = "RemoveParticipant"
	CmdSetTeamSize       CommandType = "SetTeamSize"
	CmdStartTournament   CommandType = "StartTournament"
	CmdSelectWinner      CommandType = "SelectWinner"
	CmdStartNextRound    CommandType = "StartNextRound"
	CmdResetTournament   CommandType = "ResetTournament"
)

// Command is a single user action. Index is the participant index for
// CmdRemoveParticipant and the match index for CmdSelectWinner
type Command struct {
	Type     CommandType
	Name     string
	Index    int
	TeamSize models.TeamSize
	Side     models.Side
}

// Apply runs one command against s and returns the resulting state. A rejected
// command returns an error and leaves the state as it was, except for a failed
// start, which records the shortfall message in ErrorMessage.
// src supplies the shuffle for CmdStartTournament; nil uses math/rand.
func Apply(s State, cmd Command, src Source) (State, error) {
	if src == nil {
		src = defaultSource{}
	}

	switch cmd.Type {
	case CmdAddParticipant:
		if s.Phase() != models.Phase_SETUP {
			return s, ErrTournamentInProgress
		}
		name := strings.TrimSpace(cmd.Name)
		if name == "" {
			return s, ErrBlankName
		}
		next := s.Clone()
		next.Participants = append(next.Participants, name)
		return next, nil

	case CmdRemoveParticipant:
		if s.Phase() != models.Phase_SETUP {
			return s, ErrTournamentInProgress
		}
		if cmd.Index < 0 || cmd.Index >= len(s.Participants) {
			return s, ErrParticipantIndex
		}
		next := s.Clone()
		next.Participants = append(next.Participants[:cmd.Index], next.Participants[cmd.Index+1:]...)
		return next, nil

	case CmdSetTeamSize:
		if s.Phase() != models.Phase_SETUP {
			return s, ErrTournamentInProgress
		}
		if !cmd.TeamSize.Valid() {
			return s, ErrInvalidTeamSize
		}
		next := s.Clone()
		next.TeamSize = cmd.TeamSize
		return next, nil

	case CmdStartTournament:
		return startTournament(s, src)

	case CmdSelectWinner:
		return selectWinner(s, cmd.Index, cmd.Side)

	case CmdStartNextRound:
		return startNextRound(s)

	case CmdResetTournament:
		return NewState(), nil
	}

	return s, ErrUnsupportedCommand
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	next := s
	next.Participants = append([]string(nil), s.Participants...)
	if s.Matches != nil {
		next.Matches = make([]models.Match, len(s.Matches))
		for i, m := range s.Matches {
			next.Matches[i] = models.Match{Home: cloneSlot(m.Home), Away: cloneSlot(m.Away)}
		}
	}
	if s.Winners != nil {
		next.Winners = make([]models.Team, len(s.Winners))
		for i, t := range s.Winners {
			next.Winners[i] = cloneTeam(t)
		}
	}
	return next
}

// Session holds the current state of one tournament and the random source used to shuffle it
type Session struct {
	state State
	rand  Source
}

// NewSession creates an empty session. A nil src uses math/rand
func NewSession(src Source) *Session {
	return &Session{state: NewState(), rand: src}
}

// State returns a copy of the current state
func (s *Session) State() State {
	return s.state.Clone()
}

// Apply runs cmd and keeps the resulting state
func (s *Session) Apply(cmd Command) error {
	next, err := Apply(s.state, cmd, s.rand)
	s.state = next
	return err
}

func (s *Session) AddParticipant(name string) error {
	return s.Apply(Command{Type: CmdAddParticipant, Name: name})
}

func (s *Session) RemoveParticipant(index int) error {
	return s.Apply(Command{Type: CmdRemoveParticipant, Index: index})
}

func (s *Session) SetTeamSize(size models.TeamSize) error {
	return s.Apply(Command{Type: CmdSetTeamSize, TeamSize: size})
}

func (s *Session) StartTournament() error {
	return s.Apply(Command{Type: CmdStartTournament})
}

func (s *Session) SelectWinner(match int, side models.Side) error {
	return s.Apply(Command{Type: CmdSelectWinner, Index: match, Side: side})
}

func (s *Session) StartNextRound() error {
	return s.Apply(Command{Type: CmdStartNextRound})
}

func (s *Session) ResetTournament() error {
	return s.Apply(Command{Type: CmdResetTournament})
}
