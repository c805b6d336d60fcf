package render

import "math"

// Tone is a filmic (ACES) tone map with exposure in EV and output gamma.
type Tone struct {
	ExposureEV float64
	Gamma      float64 // <= 0 means 2.2
}

func (t Tone) Apply(buf []Color) {
	gamma := t.Gamma
	if gamma <= 0 {
		gamma = 2.2
	}
	exposure := float32(math.Pow(2.0, t.ExposureEV))
	ig := 1.0 / gamma

	for i := range buf {
		r := acesApprox(buf[i].R * exposure)
		g := acesApprox(buf[i].G * exposure)
		b := acesApprox(buf[i].B * exposure)
		if gamma != 1.0 {
			r = powf(r, ig)
			g = powf(g, ig)
			b = powf(b, ig)
		}
		buf[i] = Color{clamp01(r), clamp01(g), clamp01(b)}
	}
}

// Limiter keeps an LED strip inside its power envelope in two stages:
// a per-pixel white cap on R+G+B, then a global current budget with a
// soft knee. Zero fields take defaults; zero BudgetMA skips stage two.
type Limiter struct {
	WhiteCap float64 // default 3.0 (no cap)
	ChanMA   float64 // mA per channel at full scale, default 20
	BudgetMA float64
	Knee     float64 // fraction of budget where soft limiting starts, default 0.9
}

func (l Limiter) Apply(buf []Color) {
	whiteCap, chanMA, knee := 3.0, 20.0, 0.9
	if l.WhiteCap > 0 {
		whiteCap = l.WhiteCap
	}
	if l.ChanMA > 0 {
		chanMA = l.ChanMA
	}
	if l.Knee > 0 && l.Knee < 1 {
		knee = l.Knee
	}

	wc := float32(whiteCap)
	for i := range buf {
		s := buf[i].R + buf[i].G + buf[i].B
		if s > wc && s > 0 {
			buf[i] = buf[i].Scale(wc / s)
		}
	}

	if l.BudgetMA <= 0 {
		return
	}
	total := Current(buf, chanMA)
	if total <= 0 {
		return
	}
	soft := knee * l.BudgetMA
	if total <= soft {
		return
	}
	// compress the excess above the knee so output approaches the budget
	// asymptotically; the curve has slope 1 at the knee
	room := l.BudgetMA - soft
	out := soft + room*(1-math.Exp(-(total-soft)/room))
	scaleAll(buf, float32(out/total))
}

// Current estimates draw in mA for buf at chanMA per full channel.
func Current(buf []Color, chanMA float64) float64 {
	var total float64
	cm := float32(chanMA)
	for i := range buf {
		total += float64((buf[i].R + buf[i].G + buf[i].B) * cm)
	}
	return total
}

func scaleAll(buf []Color, s float32) {
	if s >= 1.0 {
		return
	}
	for i := range buf {
		buf[i] = buf[i].Scale(s)
	}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func powf(x float32, p float64) float32 {
	return float32(math.Pow(float64(x), p))
}

// Approximate ACES filmic curve (Narkowicz 2015).
func acesApprox(x float32) float32 {
	const a, b, c, d, e = 2.51, 0.03, 2.43, 0.59, 0.14
	return clamp01((x * (a*x + b)) / (x*(c*x+d) + e))
}
