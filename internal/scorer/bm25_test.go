package scorer

import "testing"

func TestIDFMonotonicInDF(t *testing.T) {
	n := int64(1000)
	rare := IDF(n, 1)
	common := IDF(n, 500)
	if !(rare > common) {
		t.Fatalf("expected rarer term to have higher idf: rare=%v common=%v", rare, common)
	}
}

func TestScoreSaturatesUnderUpperBound(t *testing.T) {
	p := DefaultParams()
	idf := IDF(1000, 10)
	ub := UpperBound(idf, p)
	for _, tf := range []uint32{1, 2, 5, 50, 5000} {
		s := Score(idf, tf, 20, 20, p)
		if s > ub {
			t.Fatalf("score %v exceeds upper bound %v at tf=%d", s, ub, tf)
		}
	}
}

func TestScoreZeroTF(t *testing.T) {
	p := DefaultParams()
	idf := IDF(1000, 10)
	if s := Score(idf, 0, 20, 20, p); s != 0 {
		t.Fatalf("expected zero score at tf=0, got %v", s)
	}
}

func TestScoreLongerDocScoresLessForSameTF(t *testing.T) {
	p := DefaultParams()
	idf := IDF(1000, 10)
	short := Score(idf, 3, 10, 20, p)
	long := Score(idf, 3, 200, 20, p)
	if !(short > long) {
		t.Fatalf("expected shorter document to score higher: short=%v long=%v", short, long)
	}
}
