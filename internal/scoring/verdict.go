package scoring

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/config"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// Outcome is the final verdict of a session.
type Outcome struct {
	WinnerID uuid.UUID
	Draw     bool
	Forfeit  bool
	Totals   map[uuid.UUID]Totals
	Feedback map[uuid.UUID]string
}

// Verdict derives the final outcome from accumulated totals. The winner is
// the higher total; ties resolve by the configured rule. Feedback is
// templated from average and turn count only — the judge's free text is
// never re-parsed on the finishing path.
func Verdict(a *Aggregator, first, second models.Participant, tieRule config.TieRule) Outcome {
	ft := a.Totals(first.ID)
	st := a.Totals(second.ID)

	out := Outcome{
		Totals: map[uuid.UUID]Totals{
			first.ID:  ft,
			second.ID: st,
		},
		Feedback: map[uuid.UUID]string{
			first.ID:  templateFeedback(ft),
			second.ID: templateFeedback(st),
		},
	}

	switch {
	case ft.Total > st.Total:
		out.WinnerID = first.ID
	case st.Total > ft.Total:
		out.WinnerID = second.ID
	default:
		switch tieRule {
		case config.TieRuleSecondParticipant:
			out.WinnerID = second.ID
		case config.TieRuleDraw:
			out.Draw = true
		default:
			out.WinnerID = first.ID
		}
	}
	return out
}

// ForfeitOutcome is the deterministic verdict when one side abandons.
func ForfeitOutcome(a *Aggregator, present, absent models.Participant) Outcome {
	return Outcome{
		WinnerID: present.ID,
		Forfeit:  true,
		Totals: map[uuid.UUID]Totals{
			present.ID: a.Totals(present.ID),
			absent.ID:  a.Totals(absent.ID),
		},
		Feedback: map[uuid.UUID]string{
			present.ID: "won by forfeit: the opponent left the debate",
			absent.ID:  "lost by forfeit: no activity before the deadline",
		},
	}
}

func templateFeedback(t Totals) string {
	if t.Count == 0 {
		return "no scored turns"
	}
	avg := t.Average()
	var quality string
	switch {
	case avg >= 8:
		quality = "consistently strong argumentation"
	case avg >= 6:
		quality = "solid points with room to sharpen rebuttals"
	case avg >= 4:
		quality = "uneven turns; focus on directly addressing the opponent"
	default:
		quality = "arguments rarely landed; build claims with evidence"
	}
	return fmt.Sprintf("%s (%.1f average over %d turns)", quality, avg, t.Count)
}
