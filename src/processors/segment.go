package processors

import "github.com/username/retailrfm/src/models"

// ClassifySegment maps R, F and M scores to a segment. Rules are evaluated in
// order and the first match wins; anything unmatched is Regular.
func ClassifySegment(r, f, m int) models.Segment {
	switch {
	case r >= 4 && f >= 4 && m >= 4:
		return models.SegmentChampions
	case r >= 4 && f >= 3 && m >= 3:
		return models.SegmentLoyal
	case r >= 4 && f <= 2:
		return models.SegmentNewPromising
	case r <= 2 && f >= 3 && m >= 3:
		return models.SegmentAtRiskHighVal
	case r <= 2 && f <= 2:
		return models.SegmentHibernating
	default:
		return models.SegmentRegular
	}
}

// SegmentCounts counts customers per segment.
func SegmentCounts(records []models.CustomerRFMRecord) map[models.Segment]int {
	counts := make(map[models.Segment]int, len(models.Segments))
	for _, r := range records {
		counts[r.Segment]++
	}
	return counts
}
