package game

import (
	"errors"
	"strings"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Policy violations reported back to the originating connection. Invalid
// references (unknown team, out-of-range question) are deliberately silent
// no-ops instead and never surface as errors.
var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrDeviceBound      = errors.New("device already bound to another team")
	ErrTeamTaken        = errors.New("team already taken by another device")
	ErrNotQuestionPhase = errors.New("answers are not accepted right now")
	ErrNoActiveQuestion = errors.New("no active question")
	ErrEmptyQuestion    = errors.New("question text is empty")
)

// Session is the single authoritative game state: teams, questions, raw
// answers and their history, committed results, the countdown timer and the
// reveal cursor. It lives for the process lifetime; a restart is a full
// reset.
//
// The session itself is not goroutine-safe. The gateway serializes every
// inbound message and timer tick through one mutex so each
// read-modify-recompute-broadcast runs to completion before the next starts.
type Session struct {
	clock clockwork.Clock

	autoStart bool
	mode      DisplayMode
	step      int

	teams     []Team
	questions []Question

	// raw and logs are keyed by question index, then team id. results holds
	// only committed cells; absence means "not yet played or hand-cleared".
	raw     map[int]map[int]*RawAnswer
	log     map[int]map[int][]LogEntry
	results map[int]map[int]Verdict

	timer    Timer
	bindings *bindingRegistry
	collator *collate.Collator
}

// NewSession creates an empty session. The clock is injected so the timer
// properties are testable against a fake clock.
func NewSession(clock clockwork.Clock) *Session {
	s := &Session{
		clock:     clock,
		autoStart: true,
		mode:      ModeNormal,
		step:      -1,
		raw:       make(map[int]map[int]*RawAnswer),
		log:       make(map[int]map[int][]LogEntry),
		results:   make(map[int]map[int]Verdict),
		bindings:  newBindingRegistry(),
		collator:  collate.New(language.Russian),
	}
	s.timer.reset()
	return s
}

// Teams returns the current team list in load order.
func (s *Session) Teams() []Team {
	return s.teams
}

// QuestionCount returns the number of loaded questions.
func (s *Session) QuestionCount() int {
	return len(s.questions)
}

// Questions returns the full question set, image payloads included.
func (s *Session) Questions() []Question {
	return s.questions
}

// QuestionSummaries builds the host-facing catalogue view.
func (s *Session) QuestionSummaries() []QuestionSummary {
	out := make([]QuestionSummary, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, QuestionSummary{
			Text:          q.Text,
			Answer:        q.Answer,
			Comment:       q.Comment,
			HasHandout:    q.HandoutImage != "",
			HasCommentImg: q.CommentImage != "",
		})
	}
	return out
}

// AutoStart reports whether revealing a question starts the countdown.
func (s *Session) AutoStart() bool {
	return s.autoStart
}

// SetAutoStart toggles the question-reveal countdown autostart.
func (s *Session) SetAutoStart(v bool) {
	s.autoStart = v
}

// Timer returns the countdown snapshot for broadcasting.
func (s *Session) Timer() Timer {
	return s.timer
}

// StartTimer begins a fresh countdown of the given duration.
func (s *Session) StartTimer(durationSec int) {
	s.timer.start(s.clock.Now(), durationSec)
}

// PauseTimer freezes the countdown; it reports false when nothing was
// running.
func (s *Session) PauseTimer() bool {
	return s.timer.pause(s.clock.Now())
}

// StopTimer forces the countdown to zero.
func (s *Session) StopTimer() {
	s.timer.stop()
}

// AddTimerSeconds extends a countdown without restarting it.
func (s *Session) AddTimerSeconds(delta int) {
	s.timer.addSeconds(delta)
}

// PollTimer recomputes remaining time from the wall-clock anchor and reports
// whether the broadcast value changed.
func (s *Session) PollTimer() bool {
	return s.timer.poll(s.clock.Now())
}

// LoadTeams replaces the whole team set. Bindings and all per-team play
// state are discarded first; ids are reassigned sequentially from 1.
func (s *Session) LoadTeams(names []string) int {
	s.ResetTeams()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.teams = append(s.teams, Team{ID: len(s.teams) + 1, Name: name})
	}
	return len(s.teams)
}

// ResetTeams clears every team, every device binding and all answer state.
func (s *Session) ResetTeams() {
	s.bindings.clear()
	s.teams = nil
	s.raw = make(map[int]map[int]*RawAnswer)
	s.log = make(map[int]map[int][]LogEntry)
	s.results = make(map[int]map[int]Verdict)
}

// KickTeam releases a team's device binding and marks its captain inactive.
// Unknown ids are a silent no-op.
func (s *Session) KickTeam(teamID int) {
	s.bindings.unbindTeam(teamID)
	if t := s.findTeam(teamID); t != nil {
		t.ActiveCaptain = false
	}
}

// DeactivateCaptain marks a team's captain as offline while keeping the
// device binding, so a reconnect silently restores the seat.
func (s *Session) DeactivateCaptain(teamID int) {
	if t := s.findTeam(teamID); t != nil {
		t.ActiveCaptain = false
	}
}

// Hello restores a previously seen device to its bound team, if any.
func (s *Session) Hello(device string) (teamID int, ok bool) {
	teamID, ok = s.bindings.teamFor(device)
	if !ok {
		return 0, false
	}
	if t := s.findTeam(teamID); t != nil {
		t.ActiveCaptain = true
	}
	return teamID, true
}

// PickTeam binds a device to a team. It succeeds only if the team exists,
// the device is unbound or bound to this same team, and the team is unbound
// or bound to this same device. Both mirror maps are updated together.
func (s *Session) PickTeam(device string, teamID int) error {
	team := s.findTeam(teamID)
	if team == nil {
		return ErrTeamNotFound
	}
	if bound, ok := s.bindings.teamFor(device); ok && bound != teamID {
		return ErrDeviceBound
	}
	if dev, ok := s.bindings.deviceFor(teamID); ok && dev != device {
		return ErrTeamTaken
	}
	s.bindings.bind(device, teamID)
	team.ActiveCaptain = true
	return nil
}

// Logout releases a captain's binding voluntarily.
func (s *Session) Logout(teamID int) {
	if t := s.findTeam(teamID); t != nil {
		t.ActiveCaptain = false
	}
	s.bindings.unbindTeam(teamID)
}

// BoundDevice reports the device currently holding a team, for tests and
// diagnostics.
func (s *Session) BoundDevice(teamID int) (string, bool) {
	return s.bindings.deviceFor(teamID)
}

// BoundTeam reports the team a device is locked to.
func (s *Session) BoundTeam(device string) (int, bool) {
	return s.bindings.teamFor(device)
}

// AddQuestion appends a single question to the catalogue.
func (s *Session) AddQuestion(text, answer, comment string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyQuestion
	}
	s.questions = append(s.questions, Question{
		Text:    text,
		Answer:  strings.TrimSpace(answer),
		Comment: strings.TrimSpace(comment),
	})
	return nil
}

// LoadQuestions replaces the catalogue with an imported batch, dropping
// entries with no question text, and resets all play state.
func (s *Session) LoadQuestions(batch []QuestionImport) int {
	s.questions = nil
	for _, q := range batch {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		s.questions = append(s.questions, Question{
			Text:         text,
			Answer:       strings.TrimSpace(q.Answer),
			Comment:      strings.TrimSpace(q.Comment),
			HandoutImage: q.HandoutImage,
			CommentImage: q.CommentImage,
		})
	}
	s.resetPlayState()
	return len(s.questions)
}

// UpdateQuestion rewrites a question's texts. Question identity is
// positional, so any text mutation invalidates answers, results and the
// reveal cursor for the whole session. Out-of-range indexes are a silent
// no-op.
func (s *Session) UpdateQuestion(index int, text, answer, comment string) bool {
	if index < 0 || index >= len(s.questions) {
		return false
	}
	q := &s.questions[index]
	q.Text = strings.TrimSpace(text)
	q.Answer = strings.TrimSpace(answer)
	q.Comment = strings.TrimSpace(comment)
	s.resetPlayState()
	return true
}

// DeleteQuestion removes one question and, because every later question
// shifts down one index, resets all play state for the whole session.
func (s *Session) DeleteQuestion(index int) bool {
	if index < 0 || index >= len(s.questions) {
		return false
	}
	s.questions = append(s.questions[:index], s.questions[index+1:]...)
	s.resetPlayState()
	return true
}

// Image field selectors for SetQuestionImage / ClearQuestionImage.
const (
	ImageFieldHandout = "handoutImage"
	ImageFieldComment = "commentImage"
)

// SetQuestionImage attaches an image payload to a question. Bad indexes and
// unknown fields are silent no-ops.
func (s *Session) SetQuestionImage(index int, field, dataURL string) bool {
	return s.setImage(index, field, dataURL)
}

// ClearQuestionImage removes an image payload from a question.
func (s *Session) ClearQuestionImage(index int, field string) bool {
	return s.setImage(index, field, "")
}

func (s *Session) setImage(index int, field, dataURL string) bool {
	if index < 0 || index >= len(s.questions) {
		return false
	}
	switch field {
	case ImageFieldHandout:
		s.questions[index].HandoutImage = dataURL
	case ImageFieldComment:
		s.questions[index].CommentImage = dataURL
	default:
		return false
	}
	s.resetPlayState()
	return true
}

// ResetQuestions clears the catalogue and all play state.
func (s *Session) ResetQuestions() {
	s.questions = nil
	s.resetPlayState()
}

// EndGame discards the game process (answers, results, reveal cursor) while
// keeping teams, bindings and the question catalogue.
func (s *Session) EndGame() {
	s.resetPlayState()
}

// ResetAll wipes everything back to a fresh session.
func (s *Session) ResetAll() {
	s.ResetTeams()
	s.questions = nil
	s.resetPlayState()
}

// resetPlayState drops answers, logs, results and the reveal cursor, and
// idles the timer. Teams, bindings and questions survive.
func (s *Session) resetPlayState() {
	s.raw = make(map[int]map[int]*RawAnswer)
	s.log = make(map[int]map[int][]LogEntry)
	s.results = make(map[int]map[int]Verdict)
	s.mode = ModeNormal
	s.step = -1
	s.timer.reset()
}

func (s *Session) findTeam(teamID int) *Team {
	for i := range s.teams {
		if s.teams[i].ID == teamID {
			return &s.teams[i]
		}
	}
	return nil
}
