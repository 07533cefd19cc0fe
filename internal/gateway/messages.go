package gateway

import (
	"encoding/json"

	"github.com/acmilanman/chgk/internal/game"
)

// Envelope is the message frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound message types, host role.
const (
	MsgAdminLoadTeams       = "admin_load_teams"
	MsgAdminResetTeams      = "admin_reset_teams"
	MsgAdminKickTeam        = "admin_kick_team"
	MsgAdminAddQuestion     = "admin_add_question"
	MsgAdminLoadQuestions   = "admin_load_questions"
	MsgAdminUpdateQuestion  = "admin_update_question"
	MsgAdminDeleteQuestion  = "admin_delete_question"
	MsgAdminResetQuestions  = "admin_reset_questions"
	MsgAdminSetImage        = "admin_set_question_image"
	MsgAdminClearImage      = "admin_clear_question_image"
	MsgAdminSetAutostart    = "admin_set_autostart"
	MsgAdminShowNext        = "admin_show_next"
	MsgAdminShowPrev        = "admin_show_prev"
	MsgAdminResetShow       = "admin_reset_show"
	MsgAdminBreak           = "admin_break_simple"
	MsgAdminShowTable       = "admin_show_table"
	MsgAdminTimerStart      = "admin_timer_start"
	MsgAdminTimerPause      = "admin_timer_pause"
	MsgAdminTimerStop       = "admin_timer_stop"
	MsgAdminTimerAdd10      = "admin_timer_add10"
	MsgAdminMarkAnswer      = "admin_mark_answer"
	MsgAdminCommitCurrent   = "admin_commit_current"
	MsgAdminResultsQuestion = "admin_results_question"
	MsgAdminEditResult      = "admin_edit_result"
	MsgAdminEndGame         = "admin_end_game"
	MsgAdminResetAll        = "admin_reset_all"
	MsgAdminExportTeams     = "admin_export_teams_xlsx"
	MsgAdminExportQuestions = "admin_export_questions_xlsx"
)

// Inbound message types, captain role.
const (
	MsgCaptainHello    = "captain_hello"
	MsgCaptainPickTeam = "captain_pick_team"
	MsgCaptainLogout   = "captain_logout"
	MsgCaptainAnswer   = "captain_send_answer"
)

// Outbound message types.
const (
	MsgAdminState       = "admin_state"
	MsgQuestionsList    = "questions_list"
	MsgTimerUpdate      = "timer_update"
	MsgScoresFull       = "scores_full"
	MsgBreakTable       = "break_table"
	MsgShownUpdate      = "shown_update"
	MsgAnswersUpdate    = "answers_update"
	MsgTeamsUpdate      = "teams_update"
	MsgResultsQuestion  = "results_question"
	MsgInitForCaptain   = "init_for_captain"
	MsgInitForPlayer    = "init_for_player"
	MsgCaptainSession   = "captain_session"
	MsgTeamConfirmed    = "team_confirmed"
	MsgCaptainLoggedOut = "captain_logged_out"
	MsgAnswerOK         = "answer_ok"
	MsgTeamKicked       = "team_kicked"
	MsgAdminOK          = "admin_ok"
	MsgAdminError       = "admin_error"
	MsgError            = "error"
	MsgAdminFile        = "admin_file"
)

// Outbound payloads.

type adminStatePayload struct {
	Teams     []game.Team `json:"teams"`
	Shown     game.Shown  `json:"shown"`
	AutoStart bool        `json:"autoStartTimerOnQuestion"`
	NextLabel string      `json:"nextLabel"`
	PrevLabel string      `json:"prevLabel"`
}

type teamsPayload struct {
	Teams []game.Team `json:"teams"`
}

type questionsPayload struct {
	Questions []game.QuestionSummary `json:"questions"`
}

type answersPayload struct {
	QIndex  int               `json:"qIndex"`
	Answers []game.AnswerView `json:"answers"`
}

type resultsQuestionPayload struct {
	QIndex int              `json:"qIndex"`
	Rows   []game.ResultRow `json:"rows"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type filePayload struct {
	Filename string `json:"filename"`
	Base64   string `json:"base64"`
}

type captainSessionPayload struct {
	AssignedTeamID *int `json:"assignedTeamId"`
}

type teamIDPayload struct {
	TeamID int `json:"teamId"`
}

type initCaptainPayload struct {
	Teams []game.Team `json:"teams"`
	Shown game.Shown  `json:"shown"`
	Timer game.Timer  `json:"timer"`
}

type initPlayerPayload struct {
	Shown game.Shown `json:"shown"`
	Timer game.Timer `json:"timer"`
}

type emptyPayload struct{}

// Inbound payloads.

type loadTeamsRequest struct {
	Names []string `json:"names"`
}

type teamRequest struct {
	TeamID int `json:"teamId"`
}

type questionRequest struct {
	Index        int    `json:"index"`
	QuestionText string `json:"questionText"`
	AnswerText   string `json:"answerText"`
	CommentText  string `json:"commentText"`
}

type loadQuestionsRequest struct {
	Questions []game.QuestionImport `json:"questions"`
}

type imageRequest struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	DataURL string `json:"dataUrl"`
}

type autostartRequest struct {
	Value bool `json:"value"`
}

type markAnswerRequest struct {
	QIndex  int   `json:"qIndex"`
	TeamID  int   `json:"teamId"`
	Verdict *bool `json:"verdict"`
}

type editResultRequest struct {
	QIndex int   `json:"qIndex"`
	TeamID int   `json:"teamId"`
	Value  *bool `json:"value"`
}

type questionIndexRequest struct {
	QIndex int `json:"qIndex"`
}

type helloRequest struct {
	DeviceID string `json:"deviceId"`
}

type answerRequest struct {
	Text string `json:"text"`
}

// encodeMessage frames an outbound payload once so a broadcast marshals a
// single time regardless of fan-out width.
func encodeMessage(msgType string, payload any) ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{Type: msgType, Payload: payload})
}
