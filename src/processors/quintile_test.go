package processors

import (
	"math"
	"reflect"
	"testing"
)

func assertScoreRange(t *testing.T, name string, scores []int, n int) {
	t.Helper()
	if len(scores) != n {
		t.Fatalf("%s: got %d scores, want %d", name, len(scores), n)
	}
	for i, s := range scores {
		if s < 1 || s > 5 {
			t.Errorf("%s: score[%d] = %d outside 1..5", name, i, s)
		}
	}
}

func TestScoreQuintilesRange(t *testing.T) {
	many := make([]float64, 200)
	for i := range many {
		many[i] = 1 // every customer tied on frequency 1
	}
	skewed := []float64{1, 1, 1, 1, 1, 1, 1, 2, 2, 3, 250}

	cases := map[string][]float64{
		"single":         {42},
		"two":            {3, 3},
		"three distinct": {5, 1, 9},
		"four":           {1, 2, 3, 4},
		"constant":       many,
		"skewed":         skewed,
		"with NaN":       {math.NaN(), 1, 2, math.Inf(1), 10, 3},
		"all NaN":        {math.NaN(), math.NaN()},
	}
	for name, values := range cases {
		for _, higher := range []bool{true, false} {
			assertScoreRange(t, name, ScoreQuintiles(values, higher), len(values))
		}
	}
	if got := ScoreQuintiles(nil, true); len(got) != 0 {
		t.Errorf("empty input should score nothing, got %v", got)
	}
}

func TestScoreQuintilesEqualFrequency(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	want := []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}
	if got := ScoreQuintiles(values, true); !reflect.DeepEqual(got, want) {
		t.Errorf("ScoreQuintiles = %v, want %v", got, want)
	}

	reversed := []float64{100, 90, 80, 70, 60, 50, 40, 30, 20, 10}
	wantRev := []int{5, 5, 4, 4, 3, 3, 2, 2, 1, 1}
	if got := ScoreQuintiles(reversed, true); !reflect.DeepEqual(got, wantRev) {
		t.Errorf("reverse-sorted ScoreQuintiles = %v, want %v", got, wantRev)
	}
}

func TestScoreQuintilesTiesBrokenByOrder(t *testing.T) {
	values := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	want := []int{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}
	if got := ScoreQuintiles(values, true); !reflect.DeepEqual(got, want) {
		t.Errorf("ScoreQuintiles(ties) = %v, want %v", got, want)
	}
}

func TestScoreQuintilesSmallInputs(t *testing.T) {
	if got := ScoreQuintiles([]float64{7}, true); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("single value = %v, want [3]", got)
	}
	if got := ScoreQuintiles([]float64{7}, false); !reflect.DeepEqual(got, []int{3}) {
		t.Errorf("single value inverted = %v, want [3]", got)
	}
	if got := ScoreQuintiles([]float64{8, 2}, true); !reflect.DeepEqual(got, []int{5, 1}) {
		t.Errorf("two values = %v, want [5 1]", got)
	}
	if got := ScoreQuintiles([]float64{1, 2, 3}, true); !reflect.DeepEqual(got, []int{1, 3, 5}) {
		t.Errorf("three values = %v, want [1 3 5]", got)
	}
}

func TestScoreQuintilesRecencyInversion(t *testing.T) {
	recency := []float64{300, 2, 45, 17, 120, 9, 60}
	scores := ScoreQuintiles(recency, false)
	minIdx, maxIdx := 1, 0
	if scores[minIdx] != 5 {
		t.Errorf("minimum recency scored %d, want 5", scores[minIdx])
	}
	if scores[maxIdx] != 1 {
		t.Errorf("maximum recency scored %d, want 1", scores[maxIdx])
	}
}

func TestScoreQuintilesMonotonic(t *testing.T) {
	values := []float64{5, 3, 8, 1, 9, 2, 7, 4, 6, 12, 11, 0, 15}
	for _, higher := range []bool{true, false} {
		scores := ScoreQuintiles(values, higher)
		for i := range values {
			for j := range values {
				if values[i] >= values[j] {
					continue
				}
				if higher && scores[i] > scores[j] {
					t.Errorf("higher=true: %v scored %d above %v scored %d", values[i], scores[i], values[j], scores[j])
				}
				if !higher && scores[i] < scores[j] {
					t.Errorf("higher=false: %v scored %d below %v scored %d", values[i], scores[i], values[j], scores[j])
				}
			}
		}
	}
}

func TestImputeMedian(t *testing.T) {
	got := ImputeMedian([]float64{1, math.NaN(), 3, 10})
	if got[1] != 3 {
		t.Errorf("NaN imputed to %v, want median 3", got[1])
	}
	if all := ImputeMedian([]float64{math.NaN()}); all[0] != 0 {
		t.Errorf("all-NaN imputed to %v, want 0", all[0])
	}
}

func TestRankFirst(t *testing.T) {
	got := RankFirst([]float64{3, 1, 3, 2, 1})
	want := []float64{4, 1, 5, 3, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RankFirst = %v, want %v", got, want)
	}
}
