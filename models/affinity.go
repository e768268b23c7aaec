package models

// OrderByAffinity moves events whose category the user already attended to the
// front. Both groups keep their relative order; this is a stable partition,
// not a sort.
func OrderByAffinity(attended []Category, events []Event) []Event {
	if len(attended) == 0 {
		return events
	}
	seen := make(map[Category]struct{}, len(attended))
	for _, c := range attended {
		seen[c] = struct{}{}
	}

	matching := make([]Event, 0, len(events))
	others := make([]Event, 0, len(events))
	for _, e := range events {
		if _, ok := seen[e.Category]; ok {
			matching = append(matching, e)
		} else {
			others = append(others, e)
		}
	}
	return append(matching, others...)
}
