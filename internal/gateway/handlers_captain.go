package gateway

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/acmilanman/chgk/internal/game"
)

// decode parses an inbound payload; anything unparseable is treated like a
// malformed envelope and silently dropped by the caller.
func decode(payload json.RawMessage, v any) bool {
	if len(payload) == 0 {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}

// policyMessage maps core policy violations to the text returned to the
// originating connection.
func policyMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrTeamNotFound):
		return "Team not found."
	case errors.Is(err, game.ErrDeviceBound):
		return "This device is already locked to another team."
	case errors.Is(err, game.ErrTeamTaken):
		return "Team already taken by another device."
	case errors.Is(err, game.ErrNotQuestionPhase):
		return "Answers are not accepted right now."
	case errors.Is(err, game.ErrNoActiveQuestion):
		return "No active question right now."
	case errors.Is(err, game.ErrEmptyQuestion):
		return "Question text is empty."
	}
	return "Request failed."
}

func (h *Hub) notify(c *Connection, msgType, message string) {
	h.sendTo(c, msgType, messagePayload{Message: message})
}

// handleCaptain dispatches captain messages. The captain's seat state lives
// on the connection; the durable device-team binding lives in the session.
func (h *Hub) handleCaptain(c *Connection, env Envelope) {
	switch env.Type {
	case MsgCaptainHello:
		var req helloRequest
		if !decode(env.Payload, &req) {
			return
		}
		device := strings.TrimSpace(req.DeviceID)
		if device == "" {
			return
		}
		c.deviceID = device

		if teamID, ok := h.session.Hello(device); ok {
			c.teamID = teamID
			h.broadcastTeams()
			h.sendTo(c, MsgCaptainSession, captainSessionPayload{AssignedTeamID: &teamID})
		} else {
			h.sendTo(c, MsgCaptainSession, captainSessionPayload{})
		}

	case MsgCaptainPickTeam:
		var req teamRequest
		if !decode(env.Payload, &req) {
			return
		}
		if c.deviceID == "" {
			h.notify(c, MsgError, "No device id. Reload the page.")
			return
		}
		if err := h.session.PickTeam(c.deviceID, req.TeamID); err != nil {
			h.notify(c, MsgError, policyMessage(err))
			return
		}
		c.teamID = req.TeamID
		h.broadcastTeams()
		h.sendTo(c, MsgTeamConfirmed, teamIDPayload{TeamID: req.TeamID})

	case MsgCaptainLogout:
		if c.teamID != 0 {
			h.session.Logout(c.teamID)
			c.teamID = 0
			h.broadcastTeams()
		}
		h.sendTo(c, MsgCaptainLoggedOut, emptyPayload{})

	case MsgCaptainAnswer:
		var req answerRequest
		if !decode(env.Payload, &req) {
			return
		}
		if c.teamID == 0 {
			h.notify(c, MsgError, "Pick a team first.")
			return
		}
		qIndex, err := h.session.Submit(c.teamID, strings.TrimSpace(req.Text))
		if err != nil {
			h.notify(c, MsgError, policyMessage(err))
			return
		}
		h.broadcastAnswers(qIndex)
		h.sendTo(c, MsgAnswerOK, emptyPayload{})
	}
}
