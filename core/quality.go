package core

// LinkQuality is a coarse, human-readable classification of a link
// derived from its effective margin.
type LinkQuality string

const (
	LinkQualityDown      LinkQuality = "down"
	LinkQualityPoor      LinkQuality = "poor"
	LinkQualityFair      LinkQuality = "fair"
	LinkQualityGood      LinkQuality = "good"
	LinkQualityExcellent LinkQuality = "excellent"
)

// ClassifyMargin buckets a margin in dB. A negative margin means the
// received power is below the receiver sensitivity, so the link is down.
func ClassifyMargin(marginDb float64) LinkQuality {
	switch {
	case marginDb < 0:
		return LinkQualityDown
	case marginDb < 5:
		return LinkQualityPoor
	case marginDb < 10:
		return LinkQualityFair
	case marginDb < 20:
		return LinkQualityGood
	default:
		return LinkQualityExcellent
	}
}

// Viable reports whether a link of this quality can carry traffic.
func (q LinkQuality) Viable() bool {
	return q != LinkQualityDown
}
