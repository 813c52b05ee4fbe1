package l6objects

// ObjectClass represents the semantic label of a cluster.
type ObjectClass string

const (
	// ClassNoise marks clusters too small or too sparse to be an object
	ClassNoise ObjectClass = "noise"
	// ClassPedestrian indicates an upright, narrow object
	ClassPedestrian ObjectClass = "pedestrian"
	// ClassCyclist indicates an upright object longer than a pedestrian
	ClassCyclist ObjectClass = "cyclist"
	// ClassCar indicates a large, low object
	ClassCar ObjectClass = "car"
	// ClassUnknown indicates an object matching no rule
	ClassUnknown ObjectClass = "unknown"
)

// AllClasses lists every class in report order.
var AllClasses = []ObjectClass{ClassPedestrian, ClassCyclist, ClassCar, ClassUnknown, ClassNoise}

// ObjectFeature describes one cluster of a single frame.
// Width, Length and Height are the x, y and z extents; all dimensions and
// bounding-box coordinates are rounded to 2 decimal places.
type ObjectFeature struct {
	Label        int        // Frame-local cluster label
	PointCount   int        // Member points
	BBoxMin      [3]float64 // Minimum (x, y, z)
	BBoxMax      [3]float64 // Maximum (x, y, z)
	Width        float64    // x extent (metres)
	Length       float64    // y extent (metres)
	Height       float64    // z extent (metres)
	AvgIntensity int        // Mean intensity, truncated
	Class        ObjectClass
}
