package biz

// ReconcileGenres computes the minimal change turning current into desired:
// toRemove = current - desired, toAdd = desired - current. Names compare
// exactly, so "drama" and "Drama" are different genres here even though
// listing filters ignore case. Both results keep first-seen order and hold
// each name once.
func ReconcileGenres(current, desired []string) (toRemove, toAdd []string) {
	have := make(map[string]struct{}, len(current))
	for _, name := range current {
		have[name] = struct{}{}
	}
	want := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		want[name] = struct{}{}
	}

	seen := make(map[string]struct{}, len(current))
	for _, name := range current {
		if _, ok := want[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		toRemove = append(toRemove, name)
	}

	seen = make(map[string]struct{}, len(desired))
	for _, name := range desired {
		if _, ok := have[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		toAdd = append(toAdd, name)
	}
	return toRemove, toAdd
}
