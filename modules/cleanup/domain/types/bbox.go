package types

import "errors"

var (
	errBBoxOutOfRange = errors.New("CLEANUP_BBOX_OUT_OF_RANGE")
	errBBoxEmpty      = errors.New("CLEANUP_BBOX_EMPTY")
)

// NormalizedBBox is an axis-aligned rectangle in page-relative coordinates.
// All fields are in [0,1]; X+Width and Y+Height never exceed 1.
type NormalizedBBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewNormalizedBBox(x, y, width, height float64) (NormalizedBBox, error) {
	b := NormalizedBBox{X: x, Y: y, Width: width, Height: height}
	if err := b.Validate(); err != nil {
		return NormalizedBBox{}, err
	}
	return b, nil
}

func (b NormalizedBBox) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return errBBoxEmpty
	}
	if b.X < 0 || b.Y < 0 || b.X+b.Width > 1 || b.Y+b.Height > 1 {
		return errBBoxOutOfRange
	}
	return nil
}

func (b NormalizedBBox) Area() float64 {
	return b.Width * b.Height
}

// IntersectionArea returns the overlap area of two boxes, 0 when disjoint.
func IntersectionArea(a, b NormalizedBBox) float64 {
	left := maxf(a.X, b.X)
	right := minf(a.X+a.Width, b.X+b.Width)
	top := maxf(a.Y, b.Y)
	bottom := minf(a.Y+a.Height, b.Y+b.Height)
	if right <= left || bottom <= top {
		return 0
	}
	return (right - left) * (bottom - top)
}

// IoU is intersection-over-union: symmetric, iou(a,a)=1, bounded in [0,1].
// Returns 0 when the union area is 0.
func IoU(a, b NormalizedBBox) float64 {
	inter := IntersectionArea(a, b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio is the fraction of the shield's own area covered by zone.
// Asymmetric on purpose: the policy question is how much of the redaction
// lands on the protected region, not mutual overlap.
func OverlapRatio(shield, zone NormalizedBBox) float64 {
	area := shield.Area()
	if area <= 0 {
		return 0
	}
	return IntersectionArea(shield, zone) / area
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
