package similarity

// Precision scores retrieved against relevant as the size of their set
// intersection over the longer list, in percent. Two empty lists score 0.
func Precision(retrieved, relevant []string) float64 {
	denom := max(len(retrieved), len(relevant))
	if denom == 0 {
		return 0
	}

	want := make(map[string]struct{}, len(relevant))
	for _, id := range relevant {
		want[id] = struct{}{}
	}

	seen := make(map[string]struct{}, len(retrieved))
	hits := 0
	for _, id := range retrieved {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := want[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(denom) * 100
}
