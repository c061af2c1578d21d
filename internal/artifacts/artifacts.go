// Package artifacts reads the output directories produced by agent batch
// runs. It knows just enough of the layout to answer operator questions:
// one subdirectory per instance holding <instance>.traj, a preds.json with
// one entry per predicted instance, and an optional results.json written by
// evaluation.
package artifacts

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// TrajExt is the trajectory file suffix.
	TrajExt = ".traj"
	// PredictionsFileName sits at the top of a run directory.
	PredictionsFileName = "preds.json"
	// ResultsFileName is written once evaluation finishes.
	ResultsFileName = "results.json"
)

// Instance is one instance directory inside a run.
type Instance struct {
	ID        string
	TrajPath  string
	TrajSize  int64
	UpdatedAt time.Time
}

// Results is the parsed evaluation summary. Counts holds the length of every
// top-level JSON array keyed by its name, so unfamiliar report shapes still
// produce something useful.
type Results struct {
	Path     string
	Resolved []string
	Counts   map[string]int
}

// Summary describes the artifacts of one run directory at scan time.
type Summary struct {
	Dir            string
	Exists         bool
	Instances      []Instance
	HasPredictions bool
	Predictions    int
	Results        *Results
	ScannedAt      time.Time
}

// TrajectoryCount returns how many instances have a trajectory file.
func (s *Summary) TrajectoryCount() int {
	return len(s.Instances)
}

// LatestUpdate returns the most recent trajectory modification time, zero
// when no trajectories exist yet.
func (s *Summary) LatestUpdate() time.Time {
	var latest time.Time
	for _, inst := range s.Instances {
		if inst.UpdatedAt.After(latest) {
			latest = inst.UpdatedAt
		}
	}
	return latest
}

// ResolvedCount returns how many instances evaluation marked resolved, zero
// when no results file exists.
func (s *Summary) ResolvedCount() int {
	if s.Results == nil {
		return 0
	}
	return len(s.Results.Resolved)
}

// Scan inspects a run directory. A directory that does not exist yet is not
// an error; the summary reports Exists=false so watchers started before the
// external tool creates its output can poll for it.
func Scan(dir string) (*Summary, error) {
	summary := &Summary{Dir: dir, ScannedAt: time.Now()}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return summary, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to inspect output directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("output path %s is not a directory", dir)
	}
	summary.Exists = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		inst, ok := scanInstance(dir, entry.Name())
		if ok {
			summary.Instances = append(summary.Instances, inst)
		}
	}
	sort.Slice(summary.Instances, func(i, j int) bool {
		return summary.Instances[i].ID < summary.Instances[j].ID
	})

	predsPath := filepath.Join(dir, PredictionsFileName)
	if _, err := os.Stat(predsPath); err == nil {
		summary.HasPredictions = true
		summary.Predictions = countPredictions(predsPath)
	}

	resultsPath := filepath.Join(dir, ResultsFileName)
	if _, err := os.Stat(resultsPath); err == nil {
		summary.Results = loadResults(resultsPath)
	}

	return summary, nil
}

// scanInstance checks one candidate instance directory for the trajectory
// file named after it.
func scanInstance(dir, name string) (Instance, bool) {
	trajPath := filepath.Join(dir, name, name+TrajExt)
	info, err := os.Stat(trajPath)
	if err != nil || info.IsDir() {
		return Instance{}, false
	}
	return Instance{
		ID:        name,
		TrajPath:  trajPath,
		TrajSize:  info.Size(),
		UpdatedAt: info.ModTime(),
	}, true
}

// countPredictions reads preds.json as a map keyed by instance ID. A file
// that cannot be parsed counts as zero entries; the external tool may be
// mid-write.
func countPredictions(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	var preds map[string]json.RawMessage
	if err := json.Unmarshal(data, &preds); err != nil {
		return 0
	}
	return len(preds)
}

func loadResults(path string) *Results {
	results := &Results{Path: path, Counts: map[string]int{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return results
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return results
	}

	for key, raw := range top {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		results.Counts[key] = len(list)
		if key == "resolved" {
			sorted := append([]string(nil), list...)
			sort.Strings(sorted)
			results.Resolved = sorted
		}
	}
	return results
}

// TailTrajectory returns up to limit bytes from the end of an instance's
// trajectory file, for the per-instance preview in the watch dashboard.
func TailTrajectory(inst Instance, limit int64) (string, error) {
	f, err := os.Open(inst.TrajPath)
	if err != nil {
		return "", fmt.Errorf("failed to open trajectory: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to inspect trajectory: %w", err)
	}

	if size := info.Size(); size > limit {
		if _, err := f.Seek(size-limit, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to seek trajectory: %w", err)
		}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("failed to read trajectory: %w", err)
	}
	return string(data), nil
}
