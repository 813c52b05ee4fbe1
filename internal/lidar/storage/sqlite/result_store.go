package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/banshee-data/lidar.perception/internal/lidar/l6objects"
	"github.com/banshee-data/lidar.perception/internal/lidar/pipeline"
	"github.com/banshee-data/lidar.perception/internal/timeutil"
	"github.com/banshee-data/lidar.perception/internal/version"
)

// ErrNoActiveRun is returned when frames are written before StartRun.
var ErrNoActiveRun = errors.New("no active run")

// Run is one pipeline invocation.
type Run struct {
	RunID              string          `json:"run_id"`
	StartedAt          int64           `json:"started_at"`            // Unix nanoseconds
	FinishedAt         int64           `json:"finished_at,omitempty"` // 0 until FinishRun
	DataRoot           string          `json:"data_root"`
	RandomSeed         int64           `json:"random_seed"`
	ConfigJSON         json.RawMessage `json:"config_json"`
	BuildVersion       string          `json:"build_version"`
	FramesTotal        int             `json:"frames_total"`
	FramesProcessed    int             `json:"frames_processed"`
	FramesInsufficient int             `json:"frames_insufficient"`
	FramesSkipped      int             `json:"frames_skipped"`
	NumRecords         int             `json:"num_records"`
	UniqueObjects      int             `json:"unique_objects"`
}

// Frame is the stored outcome of one frame.
type Frame struct {
	Index       int                  `json:"frame_index"`
	Source      string               `json:"source"`
	Status      pipeline.FrameStatus `json:"status"`
	Reason      string               `json:"reason,omitempty"`
	NumPoints   int                  `json:"num_points"`
	NumGround   int                  `json:"num_ground"`
	NumClusters int                  `json:"num_clusters"`
	NumObjects  int                  `json:"num_objects"`
}

// Object is an object record together with the frame it was seen in.
type Object struct {
	FrameIndex int `json:"frame_index"`
	pipeline.ObjectRecord
}

// ResultStore writes one run at a time and reads back any stored run.
// It implements pipeline.ResultSink once StartRun has been called.
type ResultStore struct {
	db    *sql.DB
	clock timeutil.Clock
	runID string
}

// NewResultStore creates a store backed by db, which must already carry
// the perception schema.
func NewResultStore(db *sql.DB) *ResultStore {
	return NewResultStoreWithClock(db, timeutil.RealClock{})
}

// NewResultStoreWithClock is NewResultStore with an explicit clock for run
// timestamps and busy-retry backoff.
func NewResultStoreWithClock(db *sql.DB, clock timeutil.Clock) *ResultStore {
	return &ResultStore{db: db, clock: clock}
}

func (s *ResultStore) retry(fn func() error) error {
	return retryOnBusy(s.clock, fn)
}

// RunID returns the id of the active run, or "" before StartRun.
func (s *ResultStore) RunID() string {
	return s.runID
}

// StartRun inserts a new run and makes it the target of WriteFrame.
// cfg is stored as JSON.
func (s *ResultStore) StartRun(dataRoot string, seed int64, cfg interface{}) (string, error) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal run config: %w", err)
	}

	runID := uuid.New().String()
	err = s.retry(func() error {
		_, err := s.db.Exec(`
			INSERT INTO perception_runs (
				run_id, started_at, data_root, random_seed, config_json, build_version
			) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, s.clock.Now().UnixNano(), dataRoot, seed, string(configJSON), version.String(),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	s.runID = runID
	return runID, nil
}

// WriteFrame stores a frame and its object records in one transaction.
func (s *ResultStore) WriteFrame(res pipeline.FrameResult) error {
	if s.runID == "" {
		return ErrNoActiveRun
	}
	return s.retry(func() error {
		return s.writeFrame(res)
	})
}

func (s *ResultStore) writeFrame(res pipeline.FrameResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin frame tx: %w", err)
	}

	var reason interface{}
	if res.Reason != "" {
		reason = res.Reason
	}
	_, err = tx.Exec(`
		INSERT INTO perception_frames (
			run_id, frame_index, source, status, reason,
			num_points, num_ground, num_clusters, num_objects
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, res.Index, res.Source, string(res.Status), reason,
		res.NumPoints, res.NumGround, res.NumClusters, len(res.Records),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert frame %d: %w", res.Index, err)
	}

	for _, r := range res.Records {
		_, err := tx.Exec(`
			INSERT INTO perception_objects (
				run_id, frame_index, cluster_id, object_id, class, num_points,
				width_m, length_m, height_m, avg_intensity
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, res.Index, r.ClusterID, r.ObjectID, string(r.Class), r.NumPoints,
			r.Dimensions.Width, r.Dimensions.Length, r.Dimensions.Height, r.AvgIntensity,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert object %d of frame %d: %w", r.ClusterID, res.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit frame tx: %w", err)
	}
	return nil
}

// FinishRun stamps the active run with its end time and summary counts.
func (s *ResultStore) FinishRun(summary pipeline.RunSummary) error {
	if s.runID == "" {
		return ErrNoActiveRun
	}
	return s.retry(func() error {
		_, err := s.db.Exec(`
			UPDATE perception_runs SET
				finished_at = ?, frames_total = ?, frames_processed = ?,
				frames_insufficient = ?, frames_skipped = ?, num_records = ?, unique_objects = ?
			WHERE run_id = ?`,
			s.clock.Now().UnixNano(), summary.Frames, summary.Processed,
			summary.Insufficient, summary.Skipped, summary.Records, len(summary.ObjectIDs),
			s.runID,
		)
		return err
	})
}

const runColumns = `run_id, started_at, finished_at, data_root, random_seed, config_json,
	build_version, frames_total, frames_processed, frames_insufficient, frames_skipped,
	num_records, unique_objects`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r          Run
		finishedAt sql.NullInt64
		configStr  string
	)
	err := row.Scan(
		&r.RunID, &r.StartedAt, &finishedAt, &r.DataRoot, &r.RandomSeed, &configStr,
		&r.BuildVersion, &r.FramesTotal, &r.FramesProcessed, &r.FramesInsufficient, &r.FramesSkipped,
		&r.NumRecords, &r.UniqueObjects,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Int64
	}
	r.ConfigJSON = json.RawMessage(configStr)
	return &r, nil
}

// GetRun returns a single run by id.
func (s *ResultStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM perception_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// ListRuns returns every run, most recent first.
func (s *ResultStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(`SELECT ` + runColumns + ` FROM perception_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListFrames returns the frames of a run in frame order.
func (s *ResultStore) ListFrames(runID string) ([]Frame, error) {
	rows, err := s.db.Query(`
		SELECT frame_index, source, status, reason, num_points, num_ground, num_clusters, num_objects
		FROM perception_frames
		WHERE run_id = ?
		ORDER BY frame_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f      Frame
			status string
			reason sql.NullString
		)
		if err := rows.Scan(&f.Index, &f.Source, &status, &reason,
			&f.NumPoints, &f.NumGround, &f.NumClusters, &f.NumObjects); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Status = pipeline.FrameStatus(status)
		f.Reason = reason.String
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// ListObjects returns the object records of a run ordered by frame and
// cluster.
func (s *ResultStore) ListObjects(runID string) ([]Object, error) {
	return s.queryObjects(`
		SELECT frame_index, cluster_id, object_id, class, num_points,
		       width_m, length_m, height_m, avg_intensity
		FROM perception_objects
		WHERE run_id = ?
		ORDER BY frame_index, cluster_id`, runID)
}

// ObjectHistory returns every record of one object id in frame order.
func (s *ResultStore) ObjectHistory(runID string, objectID int) ([]Object, error) {
	return s.queryObjects(`
		SELECT frame_index, cluster_id, object_id, class, num_points,
		       width_m, length_m, height_m, avg_intensity
		FROM perception_objects
		WHERE run_id = ? AND object_id = ?
		ORDER BY frame_index`, runID, objectID)
}

func (s *ResultStore) queryObjects(query string, args ...interface{}) ([]Object, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var (
			o     Object
			class string
		)
		if err := rows.Scan(&o.FrameIndex, &o.ClusterID, &o.ObjectID, &class, &o.NumPoints,
			&o.Dimensions.Width, &o.Dimensions.Length, &o.Dimensions.Height, &o.AvgIntensity); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		o.Class = l6objects.ObjectClass(class)
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// DeleteRun removes a run with its frames and objects.
func (s *ResultStore) DeleteRun(runID string) error {
	return s.retry(func() error {
		result, err := s.db.Exec(`DELETE FROM perception_runs WHERE run_id = ?`, runID)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

var _ pipeline.ResultSink = (*ResultStore)(nil)
