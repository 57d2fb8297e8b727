package processors

import (
	"testing"

	"github.com/username/retailrfm/src/models"
)

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		r, f, m int
		want    models.Segment
	}{
		{5, 5, 5, models.SegmentChampions},
		{4, 4, 4, models.SegmentChampions},
		{4, 4, 3, models.SegmentLoyal},
		{5, 3, 3, models.SegmentLoyal},
		{4, 3, 2, models.SegmentRegular},
		{5, 2, 5, models.SegmentNewPromising},
		{4, 1, 1, models.SegmentNewPromising},
		{2, 3, 3, models.SegmentAtRiskHighVal},
		{1, 5, 5, models.SegmentAtRiskHighVal},
		{2, 2, 5, models.SegmentHibernating},
		{1, 1, 1, models.SegmentHibernating},
		{2, 4, 2, models.SegmentRegular},
		{3, 5, 5, models.SegmentRegular},
		{3, 1, 1, models.SegmentRegular},
	}
	for _, tt := range tests {
		if got := ClassifySegment(tt.r, tt.f, tt.m); got != tt.want {
			t.Errorf("ClassifySegment(%d,%d,%d) = %q, want %q", tt.r, tt.f, tt.m, got, tt.want)
		}
	}
}

func TestClassifySegmentIsTotal(t *testing.T) {
	known := make(map[models.Segment]bool)
	for _, s := range models.Segments {
		known[s] = true
	}
	hit := make(map[models.Segment]int)
	for r := 1; r <= 5; r++ {
		for f := 1; f <= 5; f++ {
			for m := 1; m <= 5; m++ {
				s := ClassifySegment(r, f, m)
				if !known[s] {
					t.Fatalf("ClassifySegment(%d,%d,%d) = %q, not a known segment", r, f, m, s)
				}
				hit[s]++
			}
		}
	}
	if len(hit) != len(models.Segments) {
		t.Errorf("expected every segment reachable, got %v", hit)
	}
}

func TestRFMCode(t *testing.T) {
	if got := RFMCode(4, 5, 5); got != "455" {
		t.Errorf("RFMCode = %q, want 455", got)
	}
}

func TestSegmentCounts(t *testing.T) {
	records := []models.CustomerRFMRecord{
		{Segment: models.SegmentChampions},
		{Segment: models.SegmentRegular},
		{Segment: models.SegmentChampions},
	}
	got := SegmentCounts(records)
	if got[models.SegmentChampions] != 2 || got[models.SegmentRegular] != 1 || len(got) != 2 {
		t.Errorf("SegmentCounts = %v", got)
	}
}
