package render

import "testing"

func TestLimiterBudgetClamp(t *testing.T) {
	// 10 pixels all white
	buf := make([]Color, 10)
	for i := range buf {
		buf[i] = Color{1, 1, 1}
	}
	l := Limiter{ChanMA: 20, BudgetMA: 300, WhiteCap: 3.0, Knee: 0.9}

	// pre-limit current would be 10 * 60 = 600 mA
	l.Apply(buf)
	if cur := Current(buf, 20); cur > 300.1 {
		t.Fatalf("expected <= 300mA after limit, got %.2f mA", cur)
	}
}

func TestLimiterSoftKnee(t *testing.T) {
	// 95% of budget: inside the knee, scaled gently but not to the budget line
	buf := []Color{{0.95, 0.95, 0.95}}
	Limiter{ChanMA: 20, BudgetMA: 60}.Apply(buf)
	cur := Current(buf, 20)
	if cur >= 57 || cur <= 54 {
		t.Fatalf("expected soft scale between 54 and 57 mA, got %.2f", cur)
	}
}

func TestWhiteCap(t *testing.T) {
	buf := []Color{{1, 1, 1}} // sum=3
	Limiter{WhiteCap: 1.5}.Apply(buf)
	if sum := buf[0].R + buf[0].G + buf[0].B; sum > 1.5001 {
		t.Fatalf("expected sum <= 1.5, got %f", sum)
	}
}
