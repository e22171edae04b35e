package types

// PageStrip is a sampled header or footer band from one page: its region
// plus intensity statistics from the zone-cropping stage.
type PageStrip struct {
	BBox          NormalizedBBox `json:"bbox"`
	MeanIntensity float64        `json:"mean_intensity"`
	Variance      float64        `json:"variance"`
}

// HasContent reports whether the strip carries distinguishing signal.
// Low-variance strips are blank margins.
func (p PageStrip) HasContent(varianceThreshold float64) bool {
	return p.Variance > varianceThreshold
}
