package game

import "sort"

// result reads one cell of the result matrix; Unset means the cell was
// never committed or was hand-cleared.
func (s *Session) result(qIndex, teamID int) Verdict {
	return s.results[qIndex][teamID]
}

// Total counts a team's correct committed results.
func (s *Session) Total(teamID int) int {
	total := 0
	for i := range s.questions {
		if s.result(i, teamID) == VerdictCorrect {
			total++
		}
	}
	return total
}

// PlayedCount is the number of questions strictly before the one the reveal
// cursor points at. Those columns must render as resolved in the score
// table; later ones stay blank unless hand-edited. The break/table override
// does not move the cursor, so it does not change the count.
func (s *Session) PlayedCount() int {
	if len(s.questions) == 0 || s.step < 0 {
		return 0
	}
	return clamp(s.step, 0, s.maxStep()) / 2
}

// rankedTeams sorts the team set with the full comparator: higher total
// first; ties broken by scanning questions from the last to the first,
// where the first differing result favours the team that was correct (more
// recent correct answers rank higher); still-tied teams order by collated
// name.
func (s *Session) rankedTeams() []Team {
	ranked := make([]Team, len(s.teams))
	copy(ranked, s.teams)
	sort.SliceStable(ranked, func(i, j int) bool {
		return s.teamLess(ranked[i], ranked[j])
	})
	return ranked
}

func (s *Session) teamLess(a, b Team) bool {
	ta, tb := s.Total(a.ID), s.Total(b.ID)
	if ta != tb {
		return ta > tb
	}
	for i := len(s.questions) - 1; i >= 0; i-- {
		ra := s.result(i, a.ID) == VerdictCorrect
		rb := s.result(i, b.ID) == VerdictCorrect
		if ra != rb {
			return ra
		}
	}
	return s.collator.CompareString(a.Name, b.Name) < 0
}

// ScoreTable builds the ranked aggregate table. Columns for already played
// questions always resolve (blank counts as incorrect); columns at or past
// the current question show the raw cell so hand-edited future results stay
// visible without leaking anything else.
func (s *Session) ScoreTable() ScoreTable {
	played := s.PlayedCount()
	ranked := s.rankedTeams()

	rows := make([]ScoreRow, 0, len(ranked))
	for _, t := range ranked {
		perQuestion := make([]Verdict, len(s.questions))
		for i := range s.questions {
			r := s.result(i, t.ID)
			if i < played && r != VerdictCorrect {
				r = VerdictIncorrect
			}
			perQuestion[i] = r
		}
		rows = append(rows, ScoreRow{
			TeamID:      t.ID,
			Name:        t.Name,
			PerQuestion: perQuestion,
			Total:       s.Total(t.ID),
		})
	}
	return ScoreTable{QuestionsCount: len(s.questions), Rows: rows}
}
