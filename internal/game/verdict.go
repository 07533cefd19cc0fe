package game

import "encoding/json"

// Verdict is the host's three-valued call on a team's answer. Unset means
// "not yet judged", which is distinct from "judged incorrect" until commit
// time, when Unset collapses to Incorrect.
type Verdict int

const (
	VerdictUnset Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

// On the wire a verdict is null / true / false, same as the result cells in
// the score table.
func (v Verdict) MarshalJSON() ([]byte, error) {
	switch v {
	case VerdictCorrect:
		return []byte("true"), nil
	case VerdictIncorrect:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*v = VerdictFromBoolPtr(b)
	return nil
}

// VerdictFromBoolPtr maps the wire encoding back to the enum: nil is Unset.
func VerdictFromBoolPtr(b *bool) Verdict {
	switch {
	case b == nil:
		return VerdictUnset
	case *b:
		return VerdictCorrect
	default:
		return VerdictIncorrect
	}
}
