package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"spendsense/internal/domain"
)

// exportRecordLimit bounds a single export; larger histories are truncated to the newest.
const exportRecordLimit = 100000

// Snapshot is a point-in-time export of everything stored for one user.
type Snapshot struct {
	UID     string            `json:"uid"`
	TsUnix  int64             `json:"ts"` // creation time (Unix seconds)
	Records []domain.Record   `json:"records"`
	Bills   []domain.Bill     `json:"bills"`
	Budgets []domain.Budget   `json:"budgets"`
	Flows   []domain.CashFlow `json:"flows"`
}

// CreateSnapshot gathers a user's rows.
func (s *SQLStore) CreateSnapshot(ctx context.Context, uid string) (*Snapshot, error) {
	records, err := s.ListRecords(ctx, uid, exportRecordLimit, 0)
	if err != nil {
		return nil, err
	}
	bills, err := s.ListBills(ctx, uid, "")
	if err != nil {
		return nil, err
	}
	budgets, err := s.ListBudgets(ctx, uid)
	if err != nil {
		return nil, err
	}
	flows, err := s.ListFlows(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		UID:     uid,
		TsUnix:  s.now().Unix(),
		Records: records,
		Bills:   bills,
		Budgets: budgets,
		Flows:   flows,
	}, nil
}

// SnapshotManager handles saving and loading snapshots.
type SnapshotManager struct {
	dir string
}

// NewSnapshotManager creates a new snapshot manager.
// dir: directory to store snapshot files.
func NewSnapshotManager(dir string) *SnapshotManager {
	return &SnapshotManager{dir: dir}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// fileUID makes a uid safe to embed in a file name.
func fileUID(uid string) string {
	return unsafeFileChars.ReplaceAllString(uid, "-")
}

func (sm *SnapshotManager) prefix(uid string) string {
	return "export_" + fileUID(uid) + "_"
}

// Save writes a snapshot to disk and returns its path.
func (sm *SnapshotManager) Save(snap *Snapshot) (string, error) {
	if err := os.MkdirAll(sm.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	filename := fmt.Sprintf("%s%d.json", sm.prefix(snap.UID), snap.TsUnix)
	path := filepath.Join(sm.dir, filename)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	slog.Info("Snapshot saved",
		slog.String("uid", snap.UID),
		slog.Int("records", len(snap.Records)),
		slog.String("path", path))

	return path, nil
}

type snapFile struct {
	path string
	ts   int64
}

func (sm *SnapshotManager) list(uid string) ([]snapFile, error) {
	entries, err := os.ReadDir(sm.dir)
	if err != nil {
		return nil, err
	}

	prefix := sm.prefix(uid)
	var files []snapFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		var ts int64
		if _, err := fmt.Sscanf(strings.TrimPrefix(name, prefix), "%d.json", &ts); err != nil {
			continue // Not a snapshot file
		}
		files = append(files, snapFile{path: filepath.Join(sm.dir, name), ts: ts})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].ts > files[j].ts })
	return files, nil
}

// LoadLatest loads the most recent snapshot for uid.
// Returns nil if no snapshot exists.
func (sm *SnapshotManager) LoadLatest(uid string) (*Snapshot, error) {
	files, err := sm.list(uid)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}
	if len(files) == 0 {
		return nil, nil
	}

	data, err := os.ReadFile(files[0].path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	slog.Info("Snapshot loaded",
		slog.String("uid", uid),
		slog.Time("taken_at", time.Unix(snap.TsUnix, 0)),
		slog.String("path", files[0].path))

	return &snap, nil
}

// Cleanup removes old snapshots of uid, keeping only the latest N.
func (sm *SnapshotManager) Cleanup(uid string, keepCount int) error {
	files, err := sm.list(uid)
	if err != nil {
		return err
	}
	if len(files) <= keepCount {
		return nil
	}

	for _, f := range files[keepCount:] {
		if err := os.Remove(f.path); err != nil {
			slog.Warn("Failed to remove old snapshot", slog.String("path", f.path))
		} else {
			slog.Info("Removed old snapshot", slog.String("path", f.path))
		}
	}
	return nil
}
