package model

import "strings"

// The helpers below never modify their input. Each edit produces a fresh
// slice whose indexes are recomputed from position.

// CleanIngredients drops entries with a blank name or quantity and trims the rest.
func CleanIngredients(items []Ingredient) Ingredients {
	out := make(Ingredients, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		qty := strings.TrimSpace(it.Quantity)
		if name == "" || qty == "" {
			continue
		}
		out = append(out, Ingredient{Name: name, Quantity: qty})
	}
	return out
}

// CleanSteps drops blank steps and reindexes what is left.
func CleanSteps(steps []Step) Steps {
	out := make(Steps, 0, len(steps))
	for _, s := range steps {
		desc := strings.TrimSpace(s.Description)
		if desc == "" {
			continue
		}
		out = append(out, Step{Description: desc})
	}
	return reindex(out)
}

// ReindexSteps returns a copy of steps with Index set to the 1-based position.
func ReindexSteps(steps []Step) Steps {
	out := make(Steps, len(steps))
	copy(out, steps)
	return reindex(out)
}

// AppendStep adds a step at the end.
func AppendStep(steps []Step, description string) Steps {
	return InsertStep(steps, len(steps), description)
}

// InsertStep inserts a step before position pos (0-based). Out of range
// positions are clamped to the ends of the list.
func InsertStep(steps []Step, pos int, description string) Steps {
	if pos < 0 {
		pos = 0
	}
	if pos > len(steps) {
		pos = len(steps)
	}
	out := make(Steps, 0, len(steps)+1)
	out = append(out, steps[:pos]...)
	out = append(out, Step{Description: description})
	out = append(out, steps[pos:]...)
	return reindex(out)
}

// RemoveStep removes the step at position pos (0-based). An out of range
// position returns an unchanged, reindexed copy.
func RemoveStep(steps []Step, pos int) Steps {
	if pos < 0 || pos >= len(steps) {
		return ReindexSteps(steps)
	}
	out := make(Steps, 0, len(steps)-1)
	out = append(out, steps[:pos]...)
	out = append(out, steps[pos+1:]...)
	return reindex(out)
}

func reindex(steps Steps) Steps {
	for i := range steps {
		steps[i].Index = i + 1
	}
	return steps
}
