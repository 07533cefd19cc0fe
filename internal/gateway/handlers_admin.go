package gateway

import (
	"encoding/base64"
	"fmt"

	"github.com/acmilanman/chgk/internal/export"
	"github.com/acmilanman/chgk/internal/game"
	"github.com/rs/zerolog/log"
)

// handleAdmin dispatches host messages. Invalid references (unknown team,
// out-of-range question index) fall through as silent no-ops; policy
// violations come back as admin_error to the originating connection only.
func (h *Hub) handleAdmin(c *Connection, env Envelope) {
	switch env.Type {
	case MsgAdminLoadTeams:
		var req loadTeamsRequest
		if !decode(env.Payload, &req) {
			return
		}
		h.kickAllCaptainsLocked()
		n := h.session.LoadTeams(req.Names)
		h.broadcastTeams()
		h.broadcastScores()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Teams loaded: %d", n))
		h.broadcastAdminState()

	case MsgAdminResetTeams:
		h.kickAllCaptainsLocked()
		h.session.ResetTeams()
		h.broadcastTeams()
		h.broadcastScores()
		h.notify(c, MsgAdminOK, "Teams reset.")
		h.broadcastAdminState()

	case MsgAdminKickTeam:
		var req teamRequest
		if !decode(env.Payload, &req) {
			return
		}
		h.kickTeamLocked(req.TeamID)
		h.broadcastTeams()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Team %d kicked", req.TeamID))

	case MsgAdminAddQuestion:
		var req questionRequest
		if !decode(env.Payload, &req) {
			return
		}
		if err := h.session.AddQuestion(req.QuestionText, req.AnswerText, req.CommentText); err != nil {
			h.notify(c, MsgAdminError, policyMessage(err))
			return
		}
		h.notify(c, MsgAdminOK, fmt.Sprintf("Question added. Total: %d", h.session.QuestionCount()))
		h.broadcastQuestions()
		h.broadcastAdminState()

	case MsgAdminLoadQuestions:
		var req loadQuestionsRequest
		if !decode(env.Payload, &req) {
			return
		}
		n := h.session.LoadQuestions(req.Questions)
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Batch loaded: %d questions.", n))
		h.broadcastAdminState()

	case MsgAdminUpdateQuestion:
		var req questionRequest
		if !decode(env.Payload, &req) {
			return
		}
		if !h.session.UpdateQuestion(req.Index, req.QuestionText, req.AnswerText, req.CommentText) {
			return
		}
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Question %d saved.", req.Index+1))
		h.broadcastAdminState()

	case MsgAdminDeleteQuestion:
		var req questionRequest
		if !decode(env.Payload, &req) {
			return
		}
		if !h.session.DeleteQuestion(req.Index) {
			return
		}
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, "Question deleted.")
		h.broadcastAdminState()

	case MsgAdminResetQuestions:
		h.session.ResetQuestions()
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, "Questions cleared.")
		h.broadcastAdminState()

	case MsgAdminSetImage:
		var req imageRequest
		if !decode(env.Payload, &req) {
			return
		}
		if len(req.DataURL) > h.cfg.MaxImageBytes {
			h.notify(c, MsgAdminError, "Image too large.")
			return
		}
		if !h.session.SetQuestionImage(req.Index, req.Field, req.DataURL) {
			return
		}
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Image updated (question %d).", req.Index+1))
		h.broadcastAdminState()

	case MsgAdminClearImage:
		var req imageRequest
		if !decode(env.Payload, &req) {
			return
		}
		if !h.session.ClearQuestionImage(req.Index, req.Field) {
			return
		}
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Image removed (question %d).", req.Index+1))
		h.broadcastAdminState()

	case MsgAdminSetAutostart:
		var req autostartRequest
		if !decode(env.Payload, &req) {
			return
		}
		h.session.SetAutoStart(req.Value)
		h.notify(c, MsgAdminOK, "Setting updated.")
		h.broadcastAdminState()

	case MsgAdminResetShow:
		h.session.ResetReveal()
		h.broadcastShown()
		h.broadcastTimer()
		h.broadcastAnswersForShown()
		h.broadcastAdminState()

	case MsgAdminBreak:
		h.session.EnterBreak()
		h.broadcastShown()
		h.broadcastTimer()
		h.broadcastAdminState()

	case MsgAdminShowTable:
		h.session.EnterTable()
		h.broadcastShown()
		h.broadcastTimer()
		h.broadcastScores()
		h.broadcastAdminState()

	case MsgAdminShowNext, MsgAdminShowPrev:
		committed := false
		if env.Type == MsgAdminShowNext {
			committed = h.session.Advance()
		} else {
			h.session.Retreat()
		}
		if committed {
			h.broadcastScores()
		}
		h.broadcastShown()
		h.broadcastTimer()
		h.broadcastAnswersForShown()
		h.broadcastAdminState()

	case MsgAdminTimerStart:
		h.session.StartTimer(game.DefaultTimerSeconds)
		h.broadcastTimer()

	case MsgAdminTimerPause:
		if h.session.PauseTimer() {
			h.broadcastTimer()
		}

	case MsgAdminTimerStop:
		h.session.StopTimer()
		h.broadcastTimer()

	case MsgAdminTimerAdd10:
		h.session.AddTimerSeconds(10)
		h.broadcastTimer()

	case MsgAdminMarkAnswer:
		var req markAnswerRequest
		if !decode(env.Payload, &req) {
			return
		}
		if h.session.MarkAnswer(req.QIndex, req.TeamID, game.VerdictFromBoolPtr(req.Verdict)) {
			h.broadcastAnswers(req.QIndex)
		}

	case MsgAdminCommitCurrent:
		qIndex, err := h.session.CommitCurrent()
		if err != nil {
			h.notify(c, MsgAdminError, policyMessage(err))
			return
		}
		h.broadcastScores()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Results for question %d confirmed.", qIndex+1))

	case MsgAdminResultsQuestion:
		var req questionIndexRequest
		if !decode(env.Payload, &req) {
			return
		}
		h.sendTo(c, MsgResultsQuestion, resultsQuestionPayload{
			QIndex: req.QIndex,
			Rows:   h.session.ResultsForQuestion(req.QIndex),
		})

	case MsgAdminEditResult:
		var req editResultRequest
		if !decode(env.Payload, &req) {
			return
		}
		if !h.session.EditResult(req.QIndex, req.TeamID, game.VerdictFromBoolPtr(req.Value)) {
			return
		}
		h.broadcastScores()
		h.notify(c, MsgAdminOK, fmt.Sprintf("Result changed (question %d).", req.QIndex+1))

	case MsgAdminEndGame:
		h.session.EndGame()
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, "Game ended (play state reset).")
		h.broadcastAdminState()

	case MsgAdminResetAll:
		h.kickAllCaptainsLocked()
		h.session.ResetAll()
		h.broadcastTeams()
		h.broadcastQuestions()
		h.broadcastPlayStateReset()
		h.notify(c, MsgAdminOK, "Everything reset.")
		h.broadcastAdminState()

	case MsgAdminExportTeams:
		h.sendFile(c, "teams.xlsx", func() ([]byte, error) {
			return export.Teams(h.session.Teams())
		})

	case MsgAdminExportQuestions:
		h.sendFile(c, "questions.xlsx", func() ([]byte, error) {
			return export.Questions(h.session.Questions())
		})
	}
}

// broadcastPlayStateReset pushes every view touched by a full play-state
// reset: shown view, scores, timer, catalogue and the answers table.
func (h *Hub) broadcastPlayStateReset() {
	h.broadcastShown()
	h.broadcastScores()
	h.broadcastTimer()
	h.broadcastQuestions()
	h.broadcastAnswersForShown()
}

func (h *Hub) sendFile(c *Connection, filename string, build func() ([]byte, error)) {
	data, err := build()
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("export failed")
		h.notify(c, MsgAdminError, "Export failed.")
		return
	}
	h.sendTo(c, MsgAdminFile, filePayload{
		Filename: filename,
		Base64:   base64.StdEncoding.EncodeToString(data),
	})
}
