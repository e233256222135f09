package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/justinjudd/bracket"
	"github.com/justinjudd/bracket/models"
	"github.com/justinjudd/bracket/models/memory"
	"github.com/justinjudd/bracket/tournament"
)

// Prompts are passed through the redirect after a blocked action
const (
	promptIncompleteRound = "incomplete-round"
	promptNeedPlayers     = "need-players"
)

var prompts = map[string]string{
	promptIncompleteRound: models.IncompleteRoundPrompt,
	promptNeedPlayers:     models.NeedPlayersPrompt,
}

// existing returns the caller's session without creating one. found is false when
// the cookie is missing or names a session that no longer exists
func (s *Server) existing(r *http.Request) (id string, state tournament.State, found bool, err error) {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return "", tournament.State{}, false, nil
	}
	state, err = s.store.GetSession(c.Value)
	if errors.Is(err, memory.ErrSessionNotFound) {
		return "", tournament.State{}, false, nil
	}
	if err != nil {
		return "", tournament.State{}, false, err
	}
	return c.Value, state, true, nil
}

// session returns the caller's session, creating one when the cookie is missing or stale.
// Only commands create sessions; pages and the JSON view render a fresh state instead
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, tournament.State, error) {
	id, state, found, err := s.existing(r)
	if err != nil || found {
		return id, state, err
	}

	id, err = s.store.CreateSession()
	if err != nil {
		return "", tournament.State{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Info("session created", zap.String("session", id))
	state, err = s.store.GetSession(id)
	return id, state, err
}

// view returns the caller's state for read-only routes, or a fresh state when there is no session
func (s *Server) view(r *http.Request) (string, tournament.State, error) {
	id, state, found, err := s.existing(r)
	if err != nil {
		return "", tournament.State{}, err
	}
	if !found {
		return "", tournament.NewState(), nil
	}
	return id, state, nil
}

// apply runs cmd against the caller's session. ok is false when the response
// has already been written with a storage failure; rejected holds the reason a
// valid session refused the command
func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd tournament.Command) (ok bool, rejected error) {
	id, _, err := s.session(w, r)
	if err != nil {
		s.logger.Error("load session", zap.Error(err))
		http.Error(w, "unable to load session", http.StatusInternalServerError)
		return false, nil
	}
	return s.applyTo(w, id, cmd)
}

func (s *Server) applyTo(w http.ResponseWriter, id string, cmd tournament.Command) (ok bool, rejected error) {
	state, err := s.store.Apply(id, cmd)
	if errors.Is(err, memory.ErrSessionNotFound) {
		s.logger.Error("apply command", zap.String("session", id), zap.Error(err))
		http.Error(w, "session expired", http.StatusInternalServerError)
		return false, nil
	}
	s.metrics.observe(cmd.Type, err)

	fields := []zap.Field{
		zap.String("session", id),
		zap.String("command", string(cmd.Type)),
		zap.Stringer("phase", state.Phase()),
		zap.Int("round", state.Round),
	}
	if err != nil {
		s.logger.Info("command rejected", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("command applied", fields...)
	}
	return true, err
}

func redirect(w http.ResponseWriter, r *http.Request, prompt string) {
	target := "/"
	if prompt != "" {
		target += "?prompt=" + prompt
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	_, state, err := s.view(r)
	if err != nil {
		s.logger.Error("load session", zap.Error(err))
		http.Error(w, "unable to load session", http.StatusInternalServerError)
		return
	}

	page, err := bracket.GenerateSessionHTML(bracket.Page{State: state, Prompt: prompts[r.URL.Query().Get("prompt")]})
	if err != nil {
		s.logger.Error("render page", zap.Error(err))
		http.Error(w, "unable to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	if ok, _ := s.apply(w, r, tournament.Command{Type: tournament.CmdAddParticipant, Name: r.FormValue("name")}); ok {
		redirect(w, r, "")
	}
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "invalid participant index", http.StatusBadRequest)
		return
	}
	if ok, _ := s.apply(w, r, tournament.Command{Type: tournament.CmdRemoveParticipant, Index: index}); ok {
		redirect(w, r, "")
	}
}

func (s *Server) handleTeamSize(w http.ResponseWriter, r *http.Request) {
	size, ok := models.ParseTeamSize(r.FormValue("size"))
	if !ok {
		http.Error(w, "invalid team size", http.StatusBadRequest)
		return
	}
	if ok, _ := s.apply(w, r, tournament.Command{Type: tournament.CmdSetTeamSize, TeamSize: size}); ok {
		redirect(w, r, "")
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, state, err := s.session(w, r)
	if err != nil {
		s.logger.Error("load session", zap.Error(err))
		http.Error(w, "unable to load session", http.StatusInternalServerError)
		return
	}
	if state.Phase() == models.Phase_SETUP && !state.CanStart() {
		redirect(w, r, promptNeedPlayers)
		return
	}
	if ok, _ := s.applyTo(w, id, tournament.Command{Type: tournament.CmdStartTournament}); ok {
		redirect(w, r, "")
	}
}

func (s *Server) handleSelectWinner(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	match, err := strconv.Atoi(vars["match"])
	if err != nil {
		http.Error(w, "invalid match", http.StatusBadRequest)
		return
	}
	side, ok := models.ParseSide(vars["side"])
	if !ok {
		http.Error(w, "invalid side", http.StatusBadRequest)
		return
	}
	if ok, _ := s.apply(w, r, tournament.Command{Type: tournament.CmdSelectWinner, Index: match, Side: side}); ok {
		redirect(w, r, "")
	}
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	ok, err := s.apply(w, r, tournament.Command{Type: tournament.CmdStartNextRound})
	if !ok {
		return
	}
	if errors.Is(err, tournament.ErrRoundIncomplete) {
		redirect(w, r, promptIncompleteRound)
		return
	}
	redirect(w, r, "")
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if ok, _ := s.apply(w, r, tournament.Command{Type: tournament.CmdResetTournament}); ok {
		redirect(w, r, "")
	}
}

type sessionView struct {
	ID           string         `json:"id,omitempty"`
	Phase        string         `json:"phase"`
	Round        int            `json:"round"`
	TeamSize     int            `json:"teamSize"`
	Participants []string       `json:"participants"`
	Matches      []models.Match `json:"matches"`
	Winners      []models.Team  `json:"winners"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Champion     *models.Team   `json:"champion,omitempty"`
}

func (s *Server) handleSessionJSON(w http.ResponseWriter, r *http.Request) {
	id, state, err := s.view(r)
	if err != nil {
		s.logger.Error("load session", zap.Error(err))
		http.Error(w, "unable to load session", http.StatusInternalServerError)
		return
	}

	view := sessionView{
		ID:           id,
		Phase:        state.Phase().String(),
		Round:        state.Round,
		TeamSize:     int(state.TeamSize),
		Participants: state.Participants,
		Matches:      state.Matches,
		Winners:      state.Winners,
		ErrorMessage: state.ErrorMessage,
	}
	if champ, ok := state.Champion(); ok {
		view.Champion = &champ
	}
	if view.Participants == nil {
		view.Participants = []string{}
	}
	if view.Matches == nil {
		view.Matches = []models.Match{}
	}
	if view.Winners == nil {
		view.Winners = []models.Team{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
