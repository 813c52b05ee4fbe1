package l5tracks

import (
	"math"
	"sync"

	"github.com/banshee-data/lidar.perception/internal/config"
)

// TrackerConfig holds configuration for the identity tracker.
type TrackerConfig struct {
	DistThreshold float64 // Centroid distance below which a detection matches (metres)
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfigFromTuning(config.EmptyTuningConfig())
}

// TrackerConfigFromTuning builds a TrackerConfig from a loaded TuningConfig.
func TrackerConfigFromTuning(cfg *config.TuningConfig) TrackerConfig {
	return TrackerConfig{DistThreshold: cfg.GetTrackerDistThreshold()}
}

// Detection is a top-down rectangle: corner (X, Y), width W along x and
// height H along y.
type Detection struct {
	X, Y, W, H float64
}

// Centroid returns the rectangle centre.
func (d Detection) Centroid() (float64, float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// TrackedDetection is a detection with the identity assigned this frame.
type TrackedDetection struct {
	Detection
	ID int
}

// identity is one tracked object's last known centroid.
type identity struct {
	id     int
	cx, cy float64
}

// IdentityTracker assigns persistent integer ids to detections across
// frames. Ids start at 1, only increase and are never reused.
type IdentityTracker struct {
	cfg TrackerConfig

	mu         sync.RWMutex
	identities []identity // Creation order, which is ascending id order
	nextID     int
}

// NewIdentityTracker creates an empty tracker.
func NewIdentityTracker(cfg TrackerConfig) *IdentityTracker {
	return &IdentityTracker{cfg: cfg, nextID: 1}
}

// Update matches dets against the tracked identities using the configured
// distance threshold. See UpdateWithThreshold.
func (t *IdentityTracker) Update(dets []Detection) []TrackedDetection {
	return t.UpdateWithThreshold(dets, t.cfg.DistThreshold)
}

// UpdateWithThreshold processes one frame of detections.
//
// Each identity, in ascending id order, claims the nearest still-unmatched
// detection whose centroid lies strictly closer than threshold; equal
// distances keep the earlier detection. Unmatched detections spawn new
// identities in input order. The output lists matched detections in
// identity order followed by spawned ones, and afterwards the tracker holds
// exactly the identities in that output. An empty dets clears all state.
func (t *IdentityTracker) UpdateWithThreshold(dets []Detection, threshold float64) []TrackedDetection {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedDetection, 0, len(dets))
	next := make([]identity, 0, len(dets))
	consumed := make([]bool, len(dets))

	for _, ident := range t.identities {
		best := -1
		bestDist := threshold
		for i, d := range dets {
			if consumed[i] {
				continue
			}
			cx, cy := d.Centroid()
			if dist := math.Hypot(cx-ident.cx, cy-ident.cy); dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best < 0 {
			continue
		}
		consumed[best] = true
		cx, cy := dets[best].Centroid()
		next = append(next, identity{id: ident.id, cx: cx, cy: cy})
		out = append(out, TrackedDetection{Detection: dets[best], ID: ident.id})
	}

	for i, d := range dets {
		if consumed[i] {
			continue
		}
		cx, cy := d.Centroid()
		id := t.nextID
		t.nextID++
		next = append(next, identity{id: id, cx: cx, cy: cy})
		out = append(out, TrackedDetection{Detection: d, ID: id})
	}

	t.identities = next
	return out
}

// Len returns the number of identities currently tracked.
func (t *IdentityTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.identities)
}

// ids returns the tracked ids in iteration order.
func (t *IdentityTracker) ids() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int, len(t.identities))
	for i, ident := range t.identities {
		ids[i] = ident.id
	}
	return ids
}

// centroid returns the stored centroid of id, if it is tracked.
func (t *IdentityTracker) centroid(id int) (x, y float64, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, ident := range t.identities {
		if ident.id == id {
			return ident.cx, ident.cy, true
		}
	}
	return 0, 0, false
}

// NextID returns the id the next spawned identity will receive.
func (t *IdentityTracker) NextID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextID
}
