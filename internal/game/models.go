package game

import "time"

// Team is one playing team. IDs are assigned sequentially on load and are
// unique within a load batch; reloading teams replaces the whole set.
type Team struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	ActiveCaptain bool   `json:"activeCaptain"`
}

// Question is identified by its position in the session's question list.
// The two image fields carry opaque data-URL payloads and may be empty.
type Question struct {
	Text         string
	Answer       string
	Comment      string
	HandoutImage string
	CommentImage string
}

// QuestionImport is the shape accepted by bulk question loading.
type QuestionImport struct {
	Text         string `json:"text"`
	Answer       string `json:"answer"`
	Comment      string `json:"comment"`
	HandoutImage string `json:"handoutImage"`
	CommentImage string `json:"commentImage"`
}

// QuestionSummary is the host-facing catalogue view. Image payloads are
// reduced to presence flags so the catalogue stays small.
type QuestionSummary struct {
	Text          string `json:"text"`
	Answer        string `json:"answer"`
	Comment       string `json:"comment"`
	HasHandout    bool   `json:"hasHandout"`
	HasCommentImg bool   `json:"hasCommentImg"`
}

// RawAnswer holds a team's latest submission for one question together with
// the host's provisional verdict. It is overwritten by each new submission;
// the full history lives in the answer log.
type RawAnswer struct {
	Text    string  `json:"text"`
	Verdict Verdict `json:"verdict"`
}

// LogEntry is one entry of the append-only answer history.
type LogEntry struct {
	At   time.Time `json:"ts"`
	Text string    `json:"text"`
}

// AnswerView is one row of the host's answers table for the question on
// screen.
type AnswerView struct {
	TeamID  int     `json:"teamId"`
	Text    string  `json:"text"`
	Verdict Verdict `json:"verdict"`
}

// ResultRow is one row of the host's per-question results view: the ranked
// team, its latest answer, the committed result and the submission history.
type ResultRow struct {
	TeamID     int        `json:"teamId"`
	TeamName   string     `json:"teamName"`
	AnswerText string     `json:"answerText"`
	Result     Verdict    `json:"result"`
	AnswerLog  []LogEntry `json:"answerLog"`
}

// ScoreRow is one ranked row of the aggregate score table.
type ScoreRow struct {
	TeamID      int       `json:"teamId"`
	Name        string    `json:"name"`
	PerQuestion []Verdict `json:"perQuestion"`
	Total       int       `json:"total"`
}

// ScoreTable is the full ranked score table broadcast to every role.
type ScoreTable struct {
	QuestionsCount int        `json:"questionsCount"`
	Rows           []ScoreRow `json:"rows"`
}
