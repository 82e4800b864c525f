package model

// ManifestDiff is the difference between a previous and a current manifest.
type ManifestDiff struct {
	AddedPages          []string `json:"added_pages,omitempty"`
	RemovedPages        []string `json:"removed_pages,omitempty"`
	ChangedPages        []string `json:"changed_pages,omitempty"`
	AddedRequirements   []string `json:"added_requirements,omitempty"`
	RemovedRequirements []string `json:"removed_requirements,omitempty"`
	EntrypointChanged   bool     `json:"entrypoint_changed"`
}

// HasChanges reports whether the diff is non-empty.
func (d *ManifestDiff) HasChanges() bool {
	return d.EntrypointChanged ||
		len(d.AddedPages) > 0 ||
		len(d.RemovedPages) > 0 ||
		len(d.ChangedPages) > 0 ||
		len(d.AddedRequirements) > 0 ||
		len(d.RemovedRequirements) > 0
}

// CompareManifests computes the difference from previous to current.
// Page lists are sorted; requirement lists follow source order.
func CompareManifests(previous, current *Manifest) *ManifestDiff {
	diff := &ManifestDiff{}

	prevEntry, prevOK := previous.Files[EntrypointKey]
	curEntry, curOK := current.Files[EntrypointKey]
	if prevOK != curOK || !prevEntry.Content.Equal(curEntry.Content) {
		diff.EntrypointChanged = true
	}

	for _, key := range current.PageNames() {
		prev, ok := previous.Files[key]
		switch {
		case !ok:
			diff.AddedPages = append(diff.AddedPages, key)
		case !prev.Content.Equal(current.Files[key].Content):
			diff.ChangedPages = append(diff.ChangedPages, key)
		}
	}
	for _, key := range previous.PageNames() {
		if _, ok := current.Files[key]; !ok {
			diff.RemovedPages = append(diff.RemovedPages, key)
		}
	}

	diff.AddedRequirements = missingFrom(current.Requirements, previous.Requirements)
	diff.RemovedRequirements = missingFrom(previous.Requirements, current.Requirements)

	return diff
}

// missingFrom returns the items of a that are not in b, in a's order.
func missingFrom(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
