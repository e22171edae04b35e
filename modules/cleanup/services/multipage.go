package services

import (
	"math"

	"github.com/rowanvale/Ledgers-And-Lanterns/modules/cleanup/domain/types"
)

// stripVarianceScale widens the variance band relative to the intensity
// band; variances vary over a larger numeric range than means.
const stripVarianceScale = 4.0

// StripSimilar reports whether two header/footer strips show the same
// pattern. Reflexive and symmetric. Two blank strips are always similar:
// blank margins carry no distinguishing signal. A blank strip and a
// content strip never are. Two content strips compare mean intensity and
// variance against the threshold; a higher threshold is more lenient.
func StripSimilar(a, b types.PageStrip, threshold, varianceThreshold float64) bool {
	aContent := a.HasContent(varianceThreshold)
	bContent := b.HasContent(varianceThreshold)
	if !aContent && !bContent {
		return true
	}
	if aContent != bContent {
		return false
	}
	if math.Abs(a.MeanIntensity-b.MeanIntensity) > threshold {
		return false
	}
	return math.Abs(a.Variance-b.Variance) <= threshold*stripVarianceScale
}

// ConfidenceBoost scores how strongly a header/footer pattern recurs
// across a document. A single matching page is statistically meaningless,
// so matchCount < 2 scores zero. Otherwise the boost grows linearly with
// the matching fraction and reaches maxBoost exactly when every page
// matches.
func ConfidenceBoost(matchCount, totalPages int, maxBoost float64) float64 {
	if totalPages == 0 || matchCount < 2 {
		return 0
	}
	if matchCount > totalPages {
		matchCount = totalPages
	}
	return float64(matchCount) / float64(totalPages) * maxBoost
}
