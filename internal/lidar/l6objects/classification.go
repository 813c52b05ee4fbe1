package l6objects

import (
	"github.com/banshee-data/lidar.perception/internal/config"
)

// ClassifierThresholds holds the rule constants (metres unless noted).
type ClassifierThresholds struct {
	NoiseMinPoints      int     // Clusters with fewer points are noise
	NoiseMaxExtent      float64 // Clusters below this on every axis are noise
	UprightMinHeight    float64 // Pedestrians and cyclists are taller than this
	UprightMaxFootprint float64 // ...and narrower and shorter than this
	CyclistMinLength    float64 // Upright objects longer than this are cyclists
	CarMinLength        float64
	CarMinWidth         float64
	CarMinHeight        float64 // Exclusive
	CarMaxHeight        float64 // Exclusive
}

// DefaultClassifierThresholds returns the default rule constants.
func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholdsFromTuning(config.EmptyTuningConfig())
}

// ClassifierThresholdsFromTuning extracts classifier thresholds from cfg.
func ClassifierThresholdsFromTuning(cfg *config.TuningConfig) ClassifierThresholds {
	return ClassifierThresholds{
		NoiseMinPoints:      cfg.GetNoiseMinPoints(),
		NoiseMaxExtent:      cfg.GetNoiseMaxExtent(),
		UprightMinHeight:    cfg.GetUprightMinHeight(),
		UprightMaxFootprint: cfg.GetUprightMaxFootprint(),
		CyclistMinLength:    cfg.GetCyclistMinLength(),
		CarMinLength:        cfg.GetCarMinLength(),
		CarMinWidth:         cfg.GetCarMinWidth(),
		CarMinHeight:        cfg.GetCarMinHeight(),
		CarMaxHeight:        cfg.GetCarMaxHeight(),
	}
}

// Classifier assigns an ObjectClass with ordered, first-match rules.
type Classifier struct {
	Thresholds ClassifierThresholds
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(th ClassifierThresholds) *Classifier {
	return &Classifier{Thresholds: th}
}

// Classify labels f from its point count and extents. The horizontal
// extents are reordered so that width is the smaller one, making the
// result independent of the object's heading.
func (c *Classifier) Classify(f ObjectFeature) ObjectClass {
	th := c.Thresholds
	width, length := f.Width, f.Length
	if width > length {
		width, length = length, width
	}
	height := f.Height

	if f.PointCount < th.NoiseMinPoints ||
		(length < th.NoiseMaxExtent && width < th.NoiseMaxExtent && height < th.NoiseMaxExtent) {
		return ClassNoise
	}

	if height > th.UprightMinHeight && length < th.UprightMaxFootprint && width < th.UprightMaxFootprint {
		if length > th.CyclistMinLength {
			return ClassCyclist
		}
		return ClassPedestrian
	}

	if length > th.CarMinLength && width > th.CarMinWidth && height > th.CarMinHeight && height < th.CarMaxHeight {
		return ClassCar
	}

	return ClassUnknown
}

// ClassifyAll sets Class on every feature in place.
func (c *Classifier) ClassifyAll(features []ObjectFeature) {
	for i := range features {
		features[i].Class = c.Classify(features[i])
	}
}
