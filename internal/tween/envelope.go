package tween

// Keyframe represents a value at normalized time T with an easing curve
// that applies to the segment starting at this keyframe.
type Keyframe struct {
	T    float64 `yaml:"t"`
	V    float64 `yaml:"v"`
	Ease Ease    `yaml:"ease,omitempty"`
}

// Envelope is a sorted list of keyframes; Eval(t) interpolates a value.
type Envelope struct {
	Keys []Keyframe `yaml:"keys"`
}

// FadeOut is the 1 -> 0 linear envelope over [0,1].
func FadeOut() Envelope {
	return Envelope{Keys: []Keyframe{{T: 0, V: 1, Ease: Linear}, {T: 1, V: 0}}}
}

// Eval returns the value of the envelope at t.
// If there are no keys, returns 0; if one key, returns its value.
// Keys must be sorted by T ascending.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return e.Keys[0].V
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	if t >= e.Keys[n-1].T {
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a := e.Keys[i]
		b := e.Keys[i+1]
		if t >= a.T && t <= b.T {
			den := b.T - a.T
			if den <= 0 {
				return b.V
			}
			u := a.Ease.Apply(clamp01((t - a.T) / den))
			return Lerp(a.V, b.V, u)
		}
	}
	return e.Keys[n-1].V
}
