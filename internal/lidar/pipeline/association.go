package pipeline

import (
	"math"

	"github.com/banshee-data/lidar.perception/internal/lidar/l5tracks"
	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
)

// UnresolvedID is the object id of features with no linked identity.
const UnresolvedID = -1

// DetectionFromFeature is the top-down rectangle handed to the tracker:
// bounding-box minimum corner, x extent and y extent.
func DetectionFromFeature(f l6objects.ObjectFeature) l5tracks.Detection {
	return l5tracks.Detection{X: f.BBoxMin[0], Y: f.BBoxMin[1], W: f.Width, H: f.Length}
}

// Detections converts the non-noise features into tracker detections, in
// feature order.
func Detections(features []l6objects.ObjectFeature) []l5tracks.Detection {
	dets := make([]l5tracks.Detection, 0, len(features))
	for _, f := range features {
		if f.Class == l6objects.ClassNoise {
			continue
		}
		dets = append(dets, DetectionFromFeature(f))
	}
	return dets
}

// LinkIdentities returns one object id per feature. Each non-noise feature
// considers only the first tracker output, in returned order, whose corner
// lies strictly within tol of the feature's bounding-box minimum on both
// axes. When an earlier feature already claimed that output the feature
// stays unresolved; later outputs are never tried. Noise features and
// features without a match get UnresolvedID.
func LinkIdentities(features []l6objects.ObjectFeature, tracked []l5tracks.TrackedDetection, tol float64) []int {
	ids := make([]int, len(features))
	claimed := make([]bool, len(tracked))

	for i, f := range features {
		ids[i] = UnresolvedID
		if f.Class == l6objects.ClassNoise {
			continue
		}
		for j, td := range tracked {
			if math.Abs(f.BBoxMin[0]-td.X) >= tol || math.Abs(f.BBoxMin[1]-td.Y) >= tol {
				continue
			}
			if !claimed[j] {
				ids[i] = td.ID
				claimed[j] = true
			}
			break
		}
	}
	return ids
}
