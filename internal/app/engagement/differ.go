package engagement

import "github.com/stillpoint-app/stillpoint/internal/domain"

// Diff returns the definitions whose achieved flag flipped from false in
// before to true in after, in catalog definition order. Each definition
// appears at most once in an evaluation list, so duplicates are
// impossible.
//
// Both inputs must come from the same catalog; before must be the real
// pre-mutation snapshot, captured before the state change was applied —
// never reconstructed from the post-mutation state.
func (c *Catalog) Diff(before, after []domain.Evaluation) []domain.AchievementDef {
	achievedBefore := make(map[string]bool, len(before))
	for _, ev := range before {
		if ev.Achieved {
			achievedBefore[ev.Def.ID] = true
		}
	}
	achievedAfter := make(map[string]bool, len(after))
	for _, ev := range after {
		if ev.Achieved {
			achievedAfter[ev.Def.ID] = true
		}
	}

	var newlyUnlocked []domain.AchievementDef
	for _, def := range c.defs {
		if achievedAfter[def.ID] && !achievedBefore[def.ID] {
			newlyUnlocked = append(newlyUnlocked, def)
		}
	}
	return newlyUnlocked
}
