package gateway

import (
	"context"
	"encoding/json"

	"sync"

	"github.com/acmilanman/chgk/internal/game"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Hub owns the game session and the role-partitioned connection registry.
// One mutex serializes every inbound message and every timer tick, so each
// read-modify-recompute-broadcast runs to completion before the next
// operation starts. Broadcasts are best-effort: a slow or broken connection
// only loses its own messages.
type Hub struct {
	mu      sync.Mutex
	session *game.Session
	clock   clockwork.Clock
	cfg     Config

	conns map[Role]map[*Connection]bool
}

// NewHub wires a hub around the session. The clock drives the timer poll
// loop and must be the same clock the session uses.
func NewHub(session *game.Session, clock clockwork.Clock, cfg Config) *Hub {
	return &Hub{
		session: session,
		clock:   clock,
		cfg:     cfg,
		conns: map[Role]map[*Connection]bool{
			RoleAdmin:   make(map[*Connection]bool),
			RoleCaptain: make(map[*Connection]bool),
			RolePlayer:  make(map[*Connection]bool),
		},
	}
}

// Run drives the countdown poll loop until the context is cancelled. The
// timer is anchor-based, so the loop only broadcasts when the whole-second
// remaining value actually changes.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.cfg.PollInterval)
	defer ticker.Stop()

	log.Info().Dur("poll_interval", h.cfg.PollInterval).Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hub shutting down")
			return
		case <-ticker.Chan():
			h.mu.Lock()
			if h.session.PollTimer() {
				h.broadcastTimer()
			}
			h.mu.Unlock()
		}
	}
}

// register adds a connection to its role set and pushes the initial
// snapshot for that role.
func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.Role][c] = true

	switch c.Role {
	case RoleAdmin:
		h.sendAdminSnapshot(c)
		h.sendTo(c, MsgAdminOK, messagePayload{Message: "Host connected."})
	case RoleCaptain:
		h.sendTo(c, MsgInitForCaptain, initCaptainPayload{
			Teams: h.session.Teams(),
			Shown: h.session.Shown(),
			Timer: h.session.Timer(),
		})
	case RolePlayer:
		h.sendTo(c, MsgInitForPlayer, initPlayerPayload{
			Shown: h.session.Shown(),
			Timer: h.session.Timer(),
		})
		h.sendTo(c, MsgBreakTable, h.session.ScoreTable())
	}

	log.Info().
		Str("connection_id", c.ID).
		Str("role", string(c.Role)).
		Int("role_connections", len(h.conns[c.Role])).
		Msg("connection registered")
}

// removeConnection drops a connection from its role set. A captain going
// away frees the seat (activeCaptain) but keeps the device binding so a
// reconnect restores the team without a new pick step.
func (h *Hub) removeConnection(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.conns[c.Role][c] {
		return
	}
	delete(h.conns[c.Role], c)
	close(c.send)

	if c.Role == RoleCaptain && c.teamID != 0 {
		h.session.DeactivateCaptain(c.teamID)
		h.broadcastTeams()
	}

	log.Info().
		Str("connection_id", c.ID).
		Str("role", string(c.Role)).
		Msg("connection unregistered")
}

// handleMessage dispatches one inbound message by (role, type). Unparseable
// envelopes are dropped without a reply.
func (h *Hub) handleMessage(c *Connection, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch c.Role {
	case RoleAdmin:
		h.handleAdmin(c, env)
	case RoleCaptain:
		h.handleCaptain(c, env)
	}
	// Players only listen.
}

// sendTo queues a message for one connection. Must be called with the hub
// mutex held.
func (h *Hub) sendTo(c *Connection, msgType string, payload any) {
	data, err := encodeMessage(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to encode message")
		return
	}
	h.trySend(c, data)
}

// broadcast fans a message out to every open connection of the given roles,
// or to all three sets when none are named. Sends never block and never
// raise; a full buffer just drops that one message for that one connection.
func (h *Hub) broadcast(msgType string, payload any, roles ...Role) {
	data, err := encodeMessage(msgType, payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to encode broadcast")
		return
	}
	if len(roles) == 0 {
		roles = []Role{RoleAdmin, RoleCaptain, RolePlayer}
	}
	for _, role := range roles {
		for c := range h.conns[role] {
			h.trySend(c, data)
		}
	}
}

func (h *Hub) trySend(c *Connection, data []byte) {
	select {
	case c.send <- data:
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("role", string(c.Role)).
			Msg("send buffer full, dropping message")
	}
}

// Derived-view broadcast helpers; all require the hub mutex.

func (h *Hub) broadcastTeams() {
	h.broadcast(MsgTeamsUpdate, teamsPayload{Teams: h.session.Teams()})
}

func (h *Hub) broadcastShown() {
	h.broadcast(MsgShownUpdate, h.session.Shown(), RoleCaptain, RolePlayer)
}

// broadcastScores feeds the host the full table and mirrors it to the
// shared screens as the break/table view data.
func (h *Hub) broadcastScores() {
	table := h.session.ScoreTable()
	h.broadcast(MsgScoresFull, table, RoleAdmin)
	h.broadcast(MsgBreakTable, table, RoleCaptain, RolePlayer)
}

func (h *Hub) broadcastQuestions() {
	h.broadcast(MsgQuestionsList, questionsPayload{Questions: h.session.QuestionSummaries()}, RoleAdmin)
}

func (h *Hub) broadcastTimer() {
	h.broadcast(MsgTimerUpdate, h.session.Timer())
}

// broadcastAnswersForShown refreshes the host answers table for whatever is
// on screen; outside question/answer views the table is emptied.
func (h *Hub) broadcastAnswersForShown() {
	shown := h.session.Shown()
	if shown.Phase == game.PhaseQuestion || shown.Phase == game.PhaseAnswer {
		h.broadcastAnswers(shown.QIndex)
		return
	}
	h.broadcast(MsgAnswersUpdate, answersPayload{QIndex: -1, Answers: []game.AnswerView{}}, RoleAdmin)
}

func (h *Hub) broadcastAnswers(qIndex int) {
	h.broadcast(MsgAnswersUpdate, answersPayload{
		QIndex:  qIndex,
		Answers: h.session.AnswersForQuestion(qIndex),
	}, RoleAdmin)
}

// broadcastAdminState pushes the control-panel header (teams, shown view,
// autostart, button labels) to every host connection.
func (h *Hub) broadcastAdminState() {
	labels := h.session.Labels()
	h.broadcast(MsgAdminState, adminStatePayload{
		Teams:     h.session.Teams(),
		Shown:     h.session.Shown(),
		AutoStart: h.session.AutoStart(),
		NextLabel: labels.Next,
		PrevLabel: labels.Prev,
	}, RoleAdmin)
}

// sendAdminSnapshot pushes the full session picture to one newly connected
// host.
func (h *Hub) sendAdminSnapshot(c *Connection) {
	labels := h.session.Labels()
	shown := h.session.Shown()

	h.sendTo(c, MsgAdminState, adminStatePayload{
		Teams:     h.session.Teams(),
		Shown:     shown,
		AutoStart: h.session.AutoStart(),
		NextLabel: labels.Next,
		PrevLabel: labels.Prev,
	})
	h.sendTo(c, MsgQuestionsList, questionsPayload{Questions: h.session.QuestionSummaries()})
	h.sendTo(c, MsgTimerUpdate, h.session.Timer())
	h.sendTo(c, MsgScoresFull, h.session.ScoreTable())

	if shown.Phase == game.PhaseQuestion || shown.Phase == game.PhaseAnswer {
		h.sendTo(c, MsgAnswersUpdate, answersPayload{
			QIndex:  shown.QIndex,
			Answers: h.session.AnswersForQuestion(shown.QIndex),
		})
	} else {
		h.sendTo(c, MsgAnswersUpdate, answersPayload{QIndex: -1, Answers: []game.AnswerView{}})
	}
}

// kickTeamLocked releases the team's binding and tells any live captain
// connection on that team to fall back to team selection.
func (h *Hub) kickTeamLocked(teamID int) {
	h.session.KickTeam(teamID)
	for c := range h.conns[RoleCaptain] {
		if c.teamID == teamID {
			h.sendTo(c, MsgTeamKicked, teamIDPayload{TeamID: teamID})
			c.teamID = 0
		}
	}
}

// kickAllCaptainsLocked clears every captain seat, used by team resets.
func (h *Hub) kickAllCaptainsLocked() {
	for c := range h.conns[RoleCaptain] {
		if c.teamID != 0 {
			h.sendTo(c, MsgTeamKicked, teamIDPayload{TeamID: c.teamID})
			c.teamID = 0
		}
	}
}
