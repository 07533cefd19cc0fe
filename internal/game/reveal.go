package game

import "fmt"

// Phase is the decoded reveal state shown to clients. Internally the session
// keeps a compact step counter plus an override mode; consumers only ever see
// this tagged view and never re-derive the parity logic themselves.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseQuestion Phase = "question"
	PhaseAnswer   Phase = "answer"
	PhaseBreak    Phase = "break"
	PhaseTable    Phase = "table"
)

// DisplayMode is the override on top of the step counter. Break and table
// suspend the step-derived view without discarding the step, so leaving them
// restores whatever was on screen before.
type DisplayMode string

const (
	ModeNormal DisplayMode = "normal"
	ModeBreak  DisplayMode = "break"
	ModeTable  DisplayMode = "table"
)

// Shown describes what is currently on screen. QIndex is -1 outside the
// question and answer phases. Answer-phase fields stay empty during the
// question phase so captains never receive the answer early.
type Shown struct {
	Phase        Phase  `json:"phase"`
	QIndex       int    `json:"qIndex"`
	QuestionText string `json:"questionText,omitempty"`
	AnswerText   string `json:"answerText,omitempty"`
	CommentText  string `json:"commentText,omitempty"`
	HandoutImage string `json:"handoutImage,omitempty"`
	CommentImage string `json:"commentImage,omitempty"`
}

// Labels are the human-readable captions for the host's forward/back
// controls, derived from the neighbouring steps without mutating anything.
type Labels struct {
	Next string `json:"nextLabel"`
	Prev string `json:"prevLabel"`
}

// maxStep is 2N-1 for N questions, or -1 with no questions loaded.
func (s *Session) maxStep() int {
	if len(s.questions) == 0 {
		return -1
	}
	return len(s.questions)*2 - 1
}

// Shown decodes the step counter and override mode into the current view.
func (s *Session) Shown() Shown {
	switch s.mode {
	case ModeBreak:
		return Shown{Phase: PhaseBreak, QIndex: -1}
	case ModeTable:
		return Shown{Phase: PhaseTable, QIndex: -1}
	}
	if len(s.questions) == 0 || s.step < 0 {
		return Shown{Phase: PhaseWaiting, QIndex: -1}
	}

	step := clamp(s.step, 0, s.maxStep())
	qIndex := step / 2
	q := s.questions[qIndex]

	if step%2 == 0 {
		return Shown{
			Phase:        PhaseQuestion,
			QIndex:       qIndex,
			QuestionText: q.Text,
			HandoutImage: q.HandoutImage,
		}
	}
	return Shown{
		Phase:        PhaseAnswer,
		QIndex:       qIndex,
		QuestionText: q.Text,
		AnswerText:   q.Answer,
		CommentText:  q.Comment,
		HandoutImage: q.HandoutImage,
		CommentImage: q.CommentImage,
	}
}

// Labels computes the captions for the next/prev controls.
func (s *Session) Labels() Labels {
	shown := s.Shown()

	switch shown.Phase {
	case PhaseWaiting:
		next := "Show …"
		if len(s.questions) > 0 {
			next = "Show Question 1"
		}
		return Labels{Next: next, Prev: "Back"}
	case PhaseBreak, PhaseTable:
		return Labels{Next: "Continue", Prev: "Back"}
	}

	step := clamp(s.step, -1, s.maxStep())
	nextStep := step + 1
	if nextStep > s.maxStep() {
		nextStep = s.maxStep()
	}
	prevStep := step - 1

	prev := "Back (Wait)"
	if prevStep >= 0 {
		prev = labelForStep(prevStep)
	}
	return Labels{Next: labelForStep(nextStep), Prev: prev}
}

func labelForStep(step int) string {
	if step < 0 {
		return "Wait"
	}
	n := step/2 + 1
	if step%2 == 0 {
		return fmt.Sprintf("Question %d", n)
	}
	return fmt.Sprintf("Answer %d", n)
}

// Advance moves the reveal one step forward. Leaving a question behind (the
// current view is its answer phase) first commits that question's verdicts;
// this is the only place results become durable during forward play. The
// reported flag tells the caller whether a commit happened.
func (s *Session) Advance() (committed bool) {
	if len(s.questions) == 0 {
		s.step = -1
		s.mode = ModeNormal
		return false
	}
	s.mode = ModeNormal

	if shown := s.Shown(); shown.Phase == PhaseAnswer {
		s.commitVerdicts(shown.QIndex)
		committed = true
	}

	if s.step < s.maxStep() {
		s.step++
	}
	s.syncTimerWithPhase()
	return committed
}

// Retreat moves the reveal one step back, clamped at the waiting state.
// Going backwards never commits.
func (s *Session) Retreat() {
	if len(s.questions) == 0 {
		s.step = -1
		s.mode = ModeNormal
		return
	}
	s.mode = ModeNormal
	if s.step > -1 {
		s.step--
	}
	s.syncTimerWithPhase()
}

// EnterBreak switches the shared view to the break screen and pauses the
// countdown. The step counter is untouched.
func (s *Session) EnterBreak() {
	s.mode = ModeBreak
	s.timer.pause(s.clock.Now())
}

// EnterTable switches the shared view to the score table and pauses the
// countdown.
func (s *Session) EnterTable() {
	s.mode = ModeTable
	s.timer.pause(s.clock.Now())
}

// ResetReveal returns the view to waiting and resets the countdown.
func (s *Session) ResetReveal() {
	s.step = -1
	s.mode = ModeNormal
	s.timer.reset()
}

// syncTimerWithPhase applies the timer policy after a step move: entering a
// question starts a fresh countdown when autostart is on (idle reset
// otherwise), every other view pauses.
func (s *Session) syncTimerWithPhase() {
	if s.Shown().Phase == PhaseQuestion {
		if s.autoStart {
			s.timer.start(s.clock.Now(), DefaultTimerSeconds)
		} else {
			s.timer.reset()
		}
		return
	}
	s.timer.pause(s.clock.Now())
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
