package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/perception.defaults.json"

// maxConfigFileSize bounds config files read from disk.
const maxConfigFileSize = 1 * 1024 * 1024

// TuningConfig represents the root configuration for the perception pipeline.
// Every field is optional: nil fields fall back to the defaults returned by
// the Get* accessors, so partial files are safe.
type TuningConfig struct {
	// Ground segmentation (RANSAC)
	GroundDistanceThreshold *float64 `json:"ground_distance_threshold,omitempty" yaml:"ground_distance_threshold,omitempty"`
	RansacSampleSize        *int     `json:"ransac_sample_size,omitempty" yaml:"ransac_sample_size,omitempty"`
	RansacIterations        *int     `json:"ransac_iterations,omitempty" yaml:"ransac_iterations,omitempty"`
	RandomSeed              *int64   `json:"random_seed,omitempty" yaml:"random_seed,omitempty"`

	// Clustering (DBSCAN)
	DBSCANEps    *float64 `json:"dbscan_eps,omitempty" yaml:"dbscan_eps,omitempty"`
	DBSCANMinPts *int     `json:"dbscan_min_pts,omitempty" yaml:"dbscan_min_pts,omitempty"`

	// Tracking and post-tracking linkage
	TrackerDistThreshold *float64 `json:"tracker_dist_threshold,omitempty" yaml:"tracker_dist_threshold,omitempty"`
	LinkTolerance        *float64 `json:"link_tolerance,omitempty" yaml:"link_tolerance,omitempty"`

	// Run limits
	MaxFrames *int `json:"max_frames,omitempty" yaml:"max_frames,omitempty"`

	// Classifier thresholds (metres unless noted)
	NoiseMinPoints      *int     `json:"noise_min_points,omitempty" yaml:"noise_min_points,omitempty"`
	NoiseMaxExtent      *float64 `json:"noise_max_extent,omitempty" yaml:"noise_max_extent,omitempty"`
	UprightMinHeight    *float64 `json:"upright_min_height,omitempty" yaml:"upright_min_height,omitempty"`
	UprightMaxFootprint *float64 `json:"upright_max_footprint,omitempty" yaml:"upright_max_footprint,omitempty"`
	CyclistMinLength    *float64 `json:"cyclist_min_length,omitempty" yaml:"cyclist_min_length,omitempty"`
	CarMinLength        *float64 `json:"car_min_length,omitempty" yaml:"car_min_length,omitempty"`
	CarMinWidth         *float64 `json:"car_min_width,omitempty" yaml:"car_min_width,omitempty"`
	CarMinHeight        *float64 `json:"car_min_height,omitempty" yaml:"car_min_height,omitempty"`
	CarMaxHeight        *float64 `json:"car_max_height,omitempty" yaml:"car_max_height,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the Get* defaults.
func DefaultTuningConfig() *TuningConfig {
	e := EmptyTuningConfig()
	return &TuningConfig{
		GroundDistanceThreshold: ptrFloat64(e.GetGroundDistanceThreshold()),
		RansacSampleSize:        ptrInt(e.GetRansacSampleSize()),
		RansacIterations:        ptrInt(e.GetRansacIterations()),
		RandomSeed:              ptrInt64(e.GetRandomSeed()),
		DBSCANEps:               ptrFloat64(e.GetDBSCANEps()),
		DBSCANMinPts:            ptrInt(e.GetDBSCANMinPts()),
		TrackerDistThreshold:    ptrFloat64(e.GetTrackerDistThreshold()),
		LinkTolerance:           ptrFloat64(e.GetLinkTolerance()),
		MaxFrames:               ptrInt(e.GetMaxFrames()),
		NoiseMinPoints:          ptrInt(e.GetNoiseMinPoints()),
		NoiseMaxExtent:          ptrFloat64(e.GetNoiseMaxExtent()),
		UprightMinHeight:        ptrFloat64(e.GetUprightMinHeight()),
		UprightMaxFootprint:     ptrFloat64(e.GetUprightMaxFootprint()),
		CyclistMinLength:        ptrFloat64(e.GetCyclistMinLength()),
		CarMinLength:            ptrFloat64(e.GetCarMinLength()),
		CarMinWidth:             ptrFloat64(e.GetCarMinWidth()),
		CarMinHeight:            ptrFloat64(e.GetCarMinHeight()),
		CarMaxHeight:            ptrFloat64(e.GetCarMaxHeight()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The format is chosen by extension (.json, .yaml, .yml) and the file must
// be under the max file size. Fields omitted from the file retain their
// default values.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lidar/l4perception/
		"../../../../" + DefaultConfigPath, // from internal/lidar/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.GroundDistanceThreshold != nil && *c.GroundDistanceThreshold <= 0 {
		return fmt.Errorf("ground_distance_threshold must be positive, got %f", *c.GroundDistanceThreshold)
	}
	if c.RansacSampleSize != nil && *c.RansacSampleSize < 3 {
		return fmt.Errorf("ransac_sample_size must be at least 3, got %d", *c.RansacSampleSize)
	}
	if c.RansacIterations != nil && *c.RansacIterations < 1 {
		return fmt.Errorf("ransac_iterations must be at least 1, got %d", *c.RansacIterations)
	}
	if c.DBSCANEps != nil && *c.DBSCANEps <= 0 {
		return fmt.Errorf("dbscan_eps must be positive, got %f", *c.DBSCANEps)
	}
	if c.DBSCANMinPts != nil && *c.DBSCANMinPts < 1 {
		return fmt.Errorf("dbscan_min_pts must be at least 1, got %d", *c.DBSCANMinPts)
	}
	if c.TrackerDistThreshold != nil && *c.TrackerDistThreshold <= 0 {
		return fmt.Errorf("tracker_dist_threshold must be positive, got %f", *c.TrackerDistThreshold)
	}
	if c.LinkTolerance != nil && *c.LinkTolerance < 0 {
		return fmt.Errorf("link_tolerance must be non-negative, got %f", *c.LinkTolerance)
	}
	if c.MaxFrames != nil && *c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative, got %d", *c.MaxFrames)
	}
	if c.NoiseMinPoints != nil && *c.NoiseMinPoints < 0 {
		return fmt.Errorf("noise_min_points must be non-negative, got %d", *c.NoiseMinPoints)
	}
	if c.GetCarMinHeight() >= c.GetCarMaxHeight() {
		return fmt.Errorf("car_min_height (%f) must be below car_max_height (%f)", c.GetCarMinHeight(), c.GetCarMaxHeight())
	}
	return nil
}

// envOverride maps one PERCEPTION_* variable onto a config field.
type envOverride struct {
	key   string
	apply func(c *TuningConfig, raw string) error
}

func floatOverride(field func(*TuningConfig) **float64) func(*TuningConfig, string) error {
	return func(c *TuningConfig, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*field(c) = &v
		return nil
	}
}

func intOverride(field func(*TuningConfig) **int) func(*TuningConfig, string) error {
	return func(c *TuningConfig, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*field(c) = &v
		return nil
	}
}

var envOverrides = []envOverride{
	{"PERCEPTION_GROUND_DISTANCE_THRESHOLD", floatOverride(func(c *TuningConfig) **float64 { return &c.GroundDistanceThreshold })},
	{"PERCEPTION_RANSAC_SAMPLE_SIZE", intOverride(func(c *TuningConfig) **int { return &c.RansacSampleSize })},
	{"PERCEPTION_RANSAC_ITERATIONS", intOverride(func(c *TuningConfig) **int { return &c.RansacIterations })},
	{"PERCEPTION_RANDOM_SEED", func(c *TuningConfig, raw string) error {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		c.RandomSeed = &v
		return nil
	}},
	{"PERCEPTION_DBSCAN_EPS", floatOverride(func(c *TuningConfig) **float64 { return &c.DBSCANEps })},
	{"PERCEPTION_DBSCAN_MIN_PTS", intOverride(func(c *TuningConfig) **int { return &c.DBSCANMinPts })},
	{"PERCEPTION_TRACKER_DIST_THRESHOLD", floatOverride(func(c *TuningConfig) **float64 { return &c.TrackerDistThreshold })},
	{"PERCEPTION_LINK_TOLERANCE", floatOverride(func(c *TuningConfig) **float64 { return &c.LinkTolerance })},
	{"PERCEPTION_MAX_FRAMES", intOverride(func(c *TuningConfig) **int { return &c.MaxFrames })},
}

// ApplyEnv overrides fields from PERCEPTION_* variables returned by lookup
// (normally os.LookupEnv) and re-validates the result.
func (c *TuningConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		raw, ok := lookup(o.key)
		if !ok || raw == "" {
			continue
		}
		if err := o.apply(c, raw); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", o.key, raw, err)
		}
	}
	return c.Validate()
}

// GetGroundDistanceThreshold returns the ground_distance_threshold value or the default.
func (c *TuningConfig) GetGroundDistanceThreshold() float64 {
	if c.GroundDistanceThreshold == nil {
		return 0.2
	}
	return *c.GroundDistanceThreshold
}

// GetRansacSampleSize returns the ransac_sample_size value or the default.
func (c *TuningConfig) GetRansacSampleSize() int {
	if c.RansacSampleSize == nil {
		return 3
	}
	return *c.RansacSampleSize
}

// GetRansacIterations returns the ransac_iterations value or the default.
func (c *TuningConfig) GetRansacIterations() int {
	if c.RansacIterations == nil {
		return 1000
	}
	return *c.RansacIterations
}

// GetRandomSeed returns the random_seed value or the default.
func (c *TuningConfig) GetRandomSeed() int64 {
	if c.RandomSeed == nil {
		return 42
	}
	return *c.RandomSeed
}

// GetDBSCANEps returns the dbscan_eps value or the default.
func (c *TuningConfig) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return 1.0
	}
	return *c.DBSCANEps
}

// GetDBSCANMinPts returns the dbscan_min_pts value or the default.
func (c *TuningConfig) GetDBSCANMinPts() int {
	if c.DBSCANMinPts == nil {
		return 20
	}
	return *c.DBSCANMinPts
}

// GetTrackerDistThreshold returns the tracker_dist_threshold value or the default.
func (c *TuningConfig) GetTrackerDistThreshold() float64 {
	if c.TrackerDistThreshold == nil {
		return 5.0
	}
	return *c.TrackerDistThreshold
}

// GetLinkTolerance returns the link_tolerance value or the default.
func (c *TuningConfig) GetLinkTolerance() float64 {
	if c.LinkTolerance == nil {
		return 0.1
	}
	return *c.LinkTolerance
}

// GetMaxFrames returns the max_frames value or the default (0 = unlimited).
func (c *TuningConfig) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return 0
	}
	return *c.MaxFrames
}

// GetNoiseMinPoints returns the noise_min_points value or the default.
func (c *TuningConfig) GetNoiseMinPoints() int {
	if c.NoiseMinPoints == nil {
		return 20
	}
	return *c.NoiseMinPoints
}

// GetNoiseMaxExtent returns the noise_max_extent value or the default.
func (c *TuningConfig) GetNoiseMaxExtent() float64 {
	if c.NoiseMaxExtent == nil {
		return 0.2
	}
	return *c.NoiseMaxExtent
}

// GetUprightMinHeight returns the upright_min_height value or the default.
func (c *TuningConfig) GetUprightMinHeight() float64 {
	if c.UprightMinHeight == nil {
		return 1.0
	}
	return *c.UprightMinHeight
}

// GetUprightMaxFootprint returns the upright_max_footprint value or the default.
func (c *TuningConfig) GetUprightMaxFootprint() float64 {
	if c.UprightMaxFootprint == nil {
		return 1.5
	}
	return *c.UprightMaxFootprint
}

// GetCyclistMinLength returns the cyclist_min_length value or the default.
func (c *TuningConfig) GetCyclistMinLength() float64 {
	if c.CyclistMinLength == nil {
		return 1.0
	}
	return *c.CyclistMinLength
}

// GetCarMinLength returns the car_min_length value or the default.
func (c *TuningConfig) GetCarMinLength() float64 {
	if c.CarMinLength == nil {
		return 1.5
	}
	return *c.CarMinLength
}

// GetCarMinWidth returns the car_min_width value or the default.
func (c *TuningConfig) GetCarMinWidth() float64 {
	if c.CarMinWidth == nil {
		return 1.0
	}
	return *c.CarMinWidth
}

// GetCarMinHeight returns the car_min_height value or the default.
func (c *TuningConfig) GetCarMinHeight() float64 {
	if c.CarMinHeight == nil {
		return 0.8
	}
	return *c.CarMinHeight
}

// GetCarMaxHeight returns the car_max_height value or the default.
func (c *TuningConfig) GetCarMaxHeight() float64 {
	if c.CarMaxHeight == nil {
		return 3.0
	}
	return *c.CarMaxHeight
}
