package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Column indices of the stats matrix filled by ConnectedComponentsWithStats,
// in OpenCV's ConnectedComponentsTypes order.
const (
	statLeft = iota
	statTop
	statWidth
	statHeight
	statArea
)

// ErrNoForegroundComponent is returned when a mask has no foreground pixels left
// to select from.
var ErrNoForegroundComponent = errors.New("no foreground component in mask")

// Component describes one 8-connected foreground region of a mask.
type Component struct {
	// Label is the OpenCV label id; 0 is reserved for background.
	Label int `json:"label"`
	// Area is the pixel count of the region.
	Area int `json:"area"`
	// Bounds is the tight bounding rectangle of the region.
	Bounds image.Rectangle `json:"bounds"`
}

// Components labels the foreground of mask with 8-connectivity and returns every
// region ordered by label id.
func Components(mask *Mask) ([]Component, error) {
	comps, labels, err := label(mask)
	if err != nil {
		return nil, err
	}
	labels.Close()
	return comps, nil
}

// SelectLargestComponent keeps only the largest 8-connected foreground region.
// When several regions share the largest area the one with the lowest label id
// wins, which is the first one met in raster order.
//
// Arguments:
//   - mask: The refined binary mask.
//
// Returns:
//   - *Mask: A new mask holding only the selected region.
//   - Component: The selected region.
//   - error: ErrNoForegroundComponent if the mask is blank.
func SelectLargestComponent(mask *Mask) (*Mask, Component, error) {
	if mask != nil && mask.IsBlank() {
		return nil, Component{}, ErrNoForegroundComponent
	}

	comps, labels, err := label(mask)
	if err != nil {
		return nil, Component{}, err
	}
	defer labels.Close()

	if len(comps) == 0 {
		return nil, Component{}, ErrNoForegroundComponent
	}

	best := comps[0]
	for _, c := range comps[1:] {
		if c.Area > best.Area {
			best = c
		}
	}

	selected := gocv.NewMat()
	value := gocv.NewScalar(float64(best.Label), 0, 0, 0)
	gocv.InRangeWithScalar(labels, value, value, &selected)

	return &Mask{mat: selected}, best, nil
}

// label runs connected component analysis. The caller owns the returned labels Mat.
func label(mask *Mask) ([]Component, gocv.Mat, error) {
	if mask == nil {
		return nil, gocv.Mat{}, errors.New("cannot label a nil mask")
	}

	labels := gocv.NewMat()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	// Default connectivity is 8.
	n := gocv.ConnectedComponentsWithStats(mask.mat, &labels, &stats, &centroids)

	comps := make([]Component, 0, max(n-1, 0))
	for l := 1; l < n; l++ {
		left := int(stats.GetIntAt(l, statLeft))
		top := int(stats.GetIntAt(l, statTop))
		comps = append(comps, Component{
			Label: l,
			Area:  int(stats.GetIntAt(l, statArea)),
			Bounds: image.Rect(left, top,
				left+int(stats.GetIntAt(l, statWidth)),
				top+int(stats.GetIntAt(l, statHeight))),
		})
	}
	return comps, labels, nil
}
