// Package console drives a tournament session from a line-oriented terminal.
//
// Each input line is one command; after every command the session is printed
// again so the terminal always shows the current round. Player names may be
// quoted to include spaces:
//
//	add "Mary Jane"
//	remove mary
//	win 1 home
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-andiamo/splitter"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"github.com/justinjudd/bracket"
	"github.com/justinjudd/bracket/models"
	"github.com/justinjudd/bracket/tournament"
)

const help = `Commands:
  add <name>               register a player (quote names with spaces)
  remove <name|number>     remove a player before the tournament starts
                           (an exact name is matched before a list number)
  size solo|duo            players per team
  start                    shuffle players into teams and pair the first round
  win <match> home|away    toggle the winner of a match
  next                     start the next round
  reset                    clear everything
  show                     print the bracket
  help                     print this message
  quit                     leave
`

var (
	errUsage       = errors.New("usage")
	errNoPlayer    = errors.New("no player matches")
	errAmbiguous   = errors.New("more than one player matches")
	errNeedPlayers = errors.New("not enough players to start")
)

// Console reads commands and prints the session after each one
type Console struct {
	session *tournament.Session
	out     io.Writer
	logger  *zap.Logger
	split   splitter.Splitter
}

// New creates a console with an empty session. src shuffles the roster; nil uses math/rand
func New(out io.Writer, src tournament.Source, logger *zap.Logger) (*Console, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	split, err := splitter.NewSplitter(' ', splitter.DoubleQuotes, splitter.LeftRightDoubleDoubleQuotes)
	if err != nil {
		return nil, fmt.Errorf("create splitter: %w", err)
	}
	return &Console{
		session: tournament.NewSession(src),
		out:     out,
		logger:  logger,
		split:   split,
	}, nil
}

// State returns the current session state
func (c *Console) State() tournament.State {
	return c.session.State()
}

// Run executes commands from in until quit, end of input, or ctx is cancelled.
// Cancelling ctx returns immediately even while a read is blocked
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprint(c.out, help)
	c.print("")

	stop := make(chan struct{})
	defer close(stop)
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		done <- scanner.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		case line := <-lines:
			if err := ctx.Err(); err != nil {
				return err
			}
			if quit := c.Execute(line); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and prints the result. It reports whether the console should stop
func (c *Console) Execute(line string) bool {
	args, err := c.tokens(line)
	if err != nil {
		c.print(err.Error())
		return false
	}
	if len(args) == 0 {
		return false
	}

	name, args := strings.ToLower(args[0]), args[1:]
	switch name {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprint(c.out, help)
		return false
	case "show":
		c.print("")
		return false
	}

	cmd, err := c.command(name, args)
	if err == nil {
		err = c.session.Apply(cmd)
		c.logger.Debug("command",
			zap.String("command", string(cmd.Type)),
			zap.Stringer("phase", c.session.State().Phase()),
			zap.Error(err),
		)
	}

	var shortfall *tournament.ShortfallError
	switch {
	case err == nil, errors.As(err, &shortfall):
		// the shortfall message is part of the state and printed with it
		c.print("")
	case errors.Is(err, errUsage):
		c.print(err.Error())
	default:
		c.print(userMessage(err))
	}
	return false
}

func (c *Console) command(name string, args []string) (tournament.Command, error) {
	switch name {
	case "add":
		if len(args) == 0 {
			return tournament.Command{}, fmt.Errorf("%w: add <name>", errUsage)
		}
		return tournament.Command{Type: tournament.CmdAddParticipant, Name: strings.Join(args, " ")}, nil

	case "remove", "rm":
		if len(args) == 0 {
			return tournament.Command{}, fmt.Errorf("%w: remove <number|name>", errUsage)
		}
		index, err := c.findParticipant(strings.Join(args, " "))
		if err != nil {
			return tournament.Command{}, err
		}
		return tournament.Command{Type: tournament.CmdRemoveParticipant, Index: index}, nil

	case "size":
		if len(args) != 1 {
			return tournament.Command{}, fmt.Errorf("%w: size solo|duo", errUsage)
		}
		size, ok := models.ParseTeamSize(strings.ToLower(args[0]))
		if !ok {
			return tournament.Command{}, tournament.ErrInvalidTeamSize
		}
		return tournament.Command{Type: tournament.CmdSetTeamSize, TeamSize: size}, nil

	case "start":
		s := c.session.State()
		if s.Phase() == models.Phase_SETUP && !s.CanStart() {
			return tournament.Command{}, errNeedPlayers
		}
		return tournament.Command{Type: tournament.CmdStartTournament}, nil

	case "win", "winner":
		if len(args) != 2 {
			return tournament.Command{}, fmt.Errorf("%w: win <match> home|away", errUsage)
		}
		match, err := strconv.Atoi(args[0])
		if err != nil {
			return tournament.Command{}, fmt.Errorf("%w: win <match> home|away", errUsage)
		}
		side, ok := models.ParseSide(strings.ToLower(args[1]))
		if !ok {
			return tournament.Command{}, tournament.ErrInvalidSide
		}
		return tournament.Command{Type: tournament.CmdSelectWinner, Index: match - 1, Side: side}, nil

	case "next":
		return tournament.Command{Type: tournament.CmdStartNextRound}, nil

	case "reset":
		return tournament.Command{Type: tournament.CmdResetTournament}, nil
	}
	return tournament.Command{}, fmt.Errorf("%w: unknown command %q, type help", errUsage, name)
}

// findParticipant resolves an exact name, a 1-based number, or the single closest fuzzy match, in that order
func (c *Console) findParticipant(query string) (int, error) {
	players := c.session.State().Participants
	for i, p := range players {
		if strings.EqualFold(p, query) {
			return i, nil
		}
	}
	if n, err := strconv.Atoi(query); err == nil {
		return n - 1, nil
	}

	ranks := fuzzy.RankFindFold(query, players)
	if len(ranks) == 0 {
		return 0, fmt.Errorf("%w %q", errNoPlayer, query)
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
		var names []string
		for _, r := range ranks {
			if r.Distance == ranks[0].Distance {
				names = append(names, r.Target)
			}
		}
		return 0, fmt.Errorf("%w %q: %s", errAmbiguous, query, strings.Join(names, ", "))
	}
	return ranks[0].OriginalIndex, nil
}

func (c *Console) tokens(line string) ([]string, error) {
	parts, err := c.split.Split(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("could not read command: %w", err)
	}
	var args []string
	for _, p := range parts {
		p = strings.NewReplacer(`"`, "", "“", "", "”", "").Replace(p)
		if strings.TrimSpace(p) != "" {
			args = append(args, p)
		}
	}
	return args, nil
}

func (c *Console) print(prompt string) {
	out, err := bracket.GenerateSessionText(bracket.Page{State: c.session.State(), Prompt: prompt})
	if err != nil {
		c.logger.Error("render session", zap.Error(err))
		return
	}
	c.out.Write(out)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, tournament.ErrBlankName):
		return "Enter a player name."
	case errors.Is(err, tournament.ErrParticipantIndex):
		return "There is no player with that number."
	case errors.Is(err, tournament.ErrInvalidTeamSize):
		return "Team size must be solo or duo."
	case errors.Is(err, tournament.ErrTournamentInProgress):
		return "The tournament has started, reset to change the roster."
	case errors.Is(err, tournament.ErrNoTournament):
		return "Start the tournament first."
	case errors.Is(err, tournament.ErrMatchIndex):
		return "There is no match with that number."
	case errors.Is(err, tournament.ErrInvalidSide):
		return "Pick home or away."
	case errors.Is(err, tournament.ErrByeNotSelectable):
		return "That side is waiting for an opponent and cannot win."
	case errors.Is(err, tournament.ErrTournamentFinished):
		return "The tournament is over, reset to play again."
	case errors.Is(err, tournament.ErrRoundIncomplete):
		return models.IncompleteRoundPrompt
	case errors.Is(err, errNeedPlayers):
		return models.NeedPlayersPrompt
	}
	return err.Error()
}
