package service

import "math"

// ResolvedRank is the display rank for an XP total. It is never persisted.
type ResolvedRank struct {
	Threshold    Threshold  `json:"threshold"`
	Next         *Threshold `json:"next,omitempty"`
	XP           float64    `json:"xp"`
	Progress     float64    `json:"progress"`
	IsOverridden bool       `json:"is_overridden"`
}

func (r ResolvedRank) Name() string { return r.Threshold.Name }
func (r ResolvedRank) Level() int   { return r.Threshold.Level }
func (r ResolvedRank) Pips() int    { return r.Threshold.Pips }

// NextName is the name of the following tier, or "Max Level" at the top.
func (r ResolvedRank) NextName() string {
	if r.Next == nil {
		return "Max Level"
	}
	return r.Next.Name
}

// TargetXP is the XP where the next tier starts, or the top tier's floor.
func (r ResolvedRank) TargetXP() int64 {
	if r.Next == nil {
		return r.Threshold.MinXP
	}
	return r.Next.MinXP
}

// Resolve maps xp to a tier. An overridden identity always gets the top tier at
// 100% progress; xp is still reported. Negative, NaN and infinite xp count as 0.
func (t *Table) Resolve(xp float64, overridden bool) ResolvedRank {
	xp = sanitizeXP(xp)

	if overridden {
		return ResolvedRank{
			Threshold:    t.Top(),
			XP:           xp,
			Progress:     100,
			IsOverridden: true,
		}
	}

	idx := len(t.desc) - 1
	for i, tier := range t.desc {
		if xp >= float64(tier.MinXP) {
			idx = i
			break
		}
	}

	res := ResolvedRank{Threshold: t.desc[idx], XP: xp, Progress: 100}
	if idx == 0 {
		return res
	}

	next := t.desc[idx-1]
	res.Next = &next

	span := float64(next.MinXP - res.Threshold.MinXP)
	progress := (xp - float64(res.Threshold.MinXP)) / span * 100
	res.Progress = roundProgress(clamp(progress, 0, 100))
	return res
}

func sanitizeXP(xp float64) float64 {
	if math.IsNaN(xp) || math.IsInf(xp, 0) || xp < 0 {
		return 0
	}
	return xp
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundProgress(p float64) float64 {
	return math.Round(p*100) / 100
}
