package area

import "area-locator/internal/models"

// Score counts, for every area in the catalog, how many of its range entries
// the fingerprint satisfies. Every area is present in the result, unmatched
// areas with 0. Ranges are independent checks: two entries for the same
// emitter can both count.
func Score(fp Fingerprint, catalog models.AreaCatalog) map[string]int {
	scores := make(map[string]int, len(catalog))
	for name, ranges := range catalog {
		count := 0
		for _, r := range ranges {
			s, ok := fp[r.EmitterID]
			if !ok {
				continue
			}
			if float64(r.MinStrength) < s && s < float64(r.MaxStrength) {
				count++
			}
		}
		scores[name] = count
	}
	return scores
}

// Best picks the area with the strictly greatest positive score, visiting
// areas in the given order so the first one wins a tie. It returns NoArea
// when nothing scored above zero.
func Best(scores map[string]int, order []string) (string, int) {
	best, top := models.NoArea, 0
	for _, name := range order {
		if count, ok := scores[name]; ok && count > top {
			best, top = name, count
		}
	}
	return best, top
}
