package game

// answerLogLimit caps the per-(question, team) submission history. Older
// entries are silently discarded; this bounds memory, not correctness.
const answerLogLimit = 50

// Submit records a captain's answer for the question currently on screen.
// Submissions are accepted only while that question's question phase is
// shown; every attempt is appended to the history and the latest raw answer
// text is overwritten, preserving any verdict already set on it.
func (s *Session) Submit(teamID int, text string) (qIndex int, err error) {
	shown := s.Shown()
	if shown.Phase != PhaseQuestion {
		return 0, ErrNotQuestionPhase
	}
	qIndex = shown.QIndex

	s.appendLog(qIndex, teamID, text)

	row := s.ensureRaw(qIndex)
	prev := row[teamID]
	if prev == nil {
		row[teamID] = &RawAnswer{Text: text}
	} else {
		prev.Text = text
	}
	return qIndex, nil
}

// MarkAnswer sets or clears the host's provisional verdict on a team's
// latest answer. It never touches the history and never commits anything.
// Invalid references are a silent no-op.
func (s *Session) MarkAnswer(qIndex, teamID int, v Verdict) bool {
	if qIndex < 0 || qIndex >= len(s.questions) {
		return false
	}
	if s.findTeam(teamID) == nil {
		return false
	}
	row := s.ensureRaw(qIndex)
	if prev := row[teamID]; prev != nil {
		prev.Verdict = v
	} else {
		row[teamID] = &RawAnswer{Verdict: v}
	}
	return true
}

// CommitCurrent commits verdicts for the question on screen without moving
// the reveal cursor. It fails when no question or answer view is shown.
func (s *Session) CommitCurrent() (qIndex int, err error) {
	shown := s.Shown()
	if shown.Phase != PhaseQuestion && shown.Phase != PhaseAnswer {
		return 0, ErrNoActiveQuestion
	}
	s.commitVerdicts(shown.QIndex)
	return shown.QIndex, nil
}

// commitVerdicts copies every team's raw verdict for a question into the
// permanent result matrix. A team with no explicit verdict, including teams
// that never answered, is recorded as incorrect. Re-committing with
// unchanged verdicts is idempotent.
func (s *Session) commitVerdicts(qIndex int) {
	if qIndex < 0 || qIndex >= len(s.questions) {
		return
	}
	row := s.results[qIndex]
	if row == nil {
		row = make(map[int]Verdict)
		s.results[qIndex] = row
	}
	rawRow := s.raw[qIndex]
	for _, t := range s.teams {
		verdict := VerdictIncorrect
		if a := rawRow[t.ID]; a != nil && a.Verdict != VerdictUnset {
			verdict = a.Verdict
		}
		row[t.ID] = verdict
	}
}

// EditResult hand-edits one committed cell. An unset value deletes the cell
// so the column renders blank again for not-yet-played questions.
func (s *Session) EditResult(qIndex, teamID int, v Verdict) bool {
	if qIndex < 0 || qIndex >= len(s.questions) {
		return false
	}
	if s.findTeam(teamID) == nil {
		return false
	}
	if v == VerdictUnset {
		delete(s.results[qIndex], teamID)
		return true
	}
	if s.results[qIndex] == nil {
		s.results[qIndex] = make(map[int]Verdict)
	}
	s.results[qIndex][teamID] = v
	return true
}

// AnswersForQuestion builds the host's live answers table, one row per team
// in load order.
func (s *Session) AnswersForQuestion(qIndex int) []AnswerView {
	rawRow := s.raw[qIndex]
	out := make([]AnswerView, 0, len(s.teams))
	for _, t := range s.teams {
		view := AnswerView{TeamID: t.ID}
		if a := rawRow[t.ID]; a != nil {
			view.Text = a.Text
			view.Verdict = a.Verdict
		}
		out = append(out, view)
	}
	return out
}

// AnswerLog returns the submission history for one (question, team) pair,
// oldest first.
func (s *Session) AnswerLog(qIndex, teamID int) []LogEntry {
	entries := s.log[qIndex][teamID]
	if entries == nil {
		return []LogEntry{}
	}
	return entries
}

// ResultsForQuestion builds the host's per-question review: ranked teams
// with their latest answer, committed result and full history.
func (s *Session) ResultsForQuestion(qIndex int) []ResultRow {
	rawRow := s.raw[qIndex]
	ranked := s.rankedTeams()
	out := make([]ResultRow, 0, len(ranked))
	for _, t := range ranked {
		row := ResultRow{
			TeamID:    t.ID,
			TeamName:  t.Name,
			Result:    s.result(qIndex, t.ID),
			AnswerLog: s.AnswerLog(qIndex, t.ID),
		}
		if a := rawRow[t.ID]; a != nil {
			row.AnswerText = a.Text
		}
		out = append(out, row)
	}
	return out
}

func (s *Session) appendLog(qIndex, teamID int, text string) {
	if s.log[qIndex] == nil {
		s.log[qIndex] = make(map[int][]LogEntry)
	}
	entries := append(s.log[qIndex][teamID], LogEntry{At: s.clock.Now(), Text: text})
	if len(entries) > answerLogLimit {
		entries = entries[len(entries)-answerLogLimit:]
	}
	s.log[qIndex][teamID] = entries
}

func (s *Session) ensureRaw(qIndex int) map[int]*RawAnswer {
	if s.raw[qIndex] == nil {
		s.raw[qIndex] = make(map[int]*RawAnswer)
	}
	return s.raw[qIndex]
}
