package dialogue

import (
	"log/slog"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// canonicalNames merges character name variants ("Tom" / "Tomas",
// "Ivan Fyodorovich" / "Ivan Fyodorovitch") under a single canonical name
// using token-sort fuzzy matching. Names are visited in first-appearance
// order and each name joins the first existing cluster it matches, so the
// earliest variant of a name becomes the canonical one. Returns the
// raw-to-canonical mapping and the canonical names in first-seen order.
func canonicalNames(order []string, threshold int) (map[string]string, []string) {
	canon := make(map[string]string, len(order))
	var canonicalOrder []string

	for _, character := range order {
		canonical := character
		for _, existing := range canonicalOrder {
			if fuzzy.TokenSortRatio(strings.ToLower(character), strings.ToLower(existing)) >= threshold {
				canonical = existing
				break
			}
		}

		if canonical == character {
			canonicalOrder = append(canonicalOrder, canonical)
		}
		canon[character] = canonical
	}

	if len(canonicalOrder) < len(order) {
		slog.Info("normalized character names",
			"raw", len(order),
			"unique", len(canonicalOrder))
	}

	return canon, canonicalOrder
}

// applyCanonicalNames rewrites speaker and addressee names in place so
// every scene carries only canonical names.
func applyCanonicalNames(scenes []Scene, canon map[string]string) {
	for i := range scenes {
		for j := range scenes[i].Dialogues {
			d := &scenes[i].Dialogues[j]
			if canonical, ok := canon[d.Character]; ok {
				d.Character = canonical
			}
			if canonical, ok := canon[d.Addressee]; ok {
				d.Addressee = canonical
			}
		}
		for j, participant := range scenes[i].Participants {
			if canonical, ok := canon[participant]; ok {
				scenes[i].Participants[j] = canonical
			}
		}
	}
}
