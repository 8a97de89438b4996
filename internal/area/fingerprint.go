package area

import "area-locator/internal/models"

// Fingerprint maps emitter id to its averaged strength.
// Emitters without observations are absent, never zero.
type Fingerprint map[string]float64

type strengthSum struct {
	sum   int64
	count int64
}

func (s strengthSum) mean() float64 {
	return float64(s.sum) / float64(s.count)
}

// BuildFingerprint averages the window per emitter, both technologies sharing one identity space
func BuildFingerprint(w *SampleWindow) Fingerprint {
	groups := make(map[string]*strengthSum)

	w.Each(func(_ models.Technology, obs models.Observation) {
		g, ok := groups[obs.EmitterID]
		if !ok {
			g = &strengthSum{}
			groups[obs.EmitterID] = g
		}
		g.sum += int64(obs.Strength)
		g.count++
	})

	fp := make(Fingerprint, len(groups))
	for id, g := range groups {
		fp[id] = g.mean()
	}
	return fp
}

// BuildTechnologyFingerprints averages the window per emitter, keeping each
// technology separate. Technologies with no observations are absent.
func BuildTechnologyFingerprints(w *SampleWindow) map[models.Technology]Fingerprint {
	groups := make(map[models.Technology]map[string]*strengthSum)

	w.Each(func(tech models.Technology, obs models.Observation) {
		byEmitter, ok := groups[tech]
		if !ok {
			byEmitter = make(map[string]*strengthSum)
			groups[tech] = byEmitter
		}
		g, ok := byEmitter[obs.EmitterID]
		if !ok {
			g = &strengthSum{}
			byEmitter[obs.EmitterID] = g
		}
		g.sum += int64(obs.Strength)
		g.count++
	})

	out := make(map[models.Technology]Fingerprint, len(groups))
	for tech, byEmitter := range groups {
		fp := make(Fingerprint, len(byEmitter))
		for id, g := range byEmitter {
			fp[id] = g.mean()
		}
		out[tech] = fp
	}
	return out
}

func (fp Fingerprint) clone() Fingerprint {
	if fp == nil {
		return nil
	}
	out := make(Fingerprint, len(fp))
	for k, v := range fp {
		out[k] = v
	}
	return out
}
