package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joshharrison/steploom/internal/planner"
)

const (
	planFile   = "plan.json"
	historyDir = "history"
)

// ErrNoPlan is returned when a requested plan is not on disk.
var ErrNoPlan = errors.New("no saved plan")

// Store persists plans under a state directory:
//
//	<Dir>/plan.json            the current plan
//	<Dir>/history/<id>.json    archived plans
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) planPath() string { return filepath.Join(s.Dir, planFile) }

func (s *Store) historyPath() string { return filepath.Join(s.Dir, historyDir) }

func (s *Store) archivedPath(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid plan id %q", id)
	}
	return filepath.Join(s.historyPath(), id+".json"), nil
}

// SavePlan writes plan as the current plan.
func (s *Store) SavePlan(plan *planner.Plan) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return writePlan(s.planPath(), plan)
}

// LoadPlan reads the current plan.
func (s *Store) LoadPlan() (*planner.Plan, error) {
	return readPlan(s.planPath())
}

// Exists checks if a current plan exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.planPath())
	return err == nil
}

// Archive moves the current plan into history, keyed by its ID.
func (s *Store) Archive() error {
	plan, err := s.LoadPlan()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.historyPath(), 0755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	dst, err := s.freeArchivePath(plan.ID)
	if err != nil {
		return err
	}
	if err := os.Rename(s.planPath(), dst); err != nil {
		return fmt.Errorf("archive plan: %w", err)
	}
	return nil
}

// freeArchivePath returns the history path for id, adding a -NNN suffix when
// a plan saved in the same second already holds it.
func (s *Store) freeArchivePath(id string) (string, error) {
	key := id
	for n := 1; ; n++ {
		path, err := s.archivedPath(key)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("check history: %w", err)
		}
		key = fmt.Sprintf("%s-%03d", id, n)
	}
}

// ListHistory returns archived plan IDs, newest first.
func (s *Store) ListHistory() ([]string, error) {
	entries, err := os.ReadDir(s.historyPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	// IDs embed a sortable timestamp
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// HistoryExists reports whether any plan has been archived.
func (s *Store) HistoryExists() bool {
	ids, err := s.ListHistory()
	return err == nil && len(ids) > 0
}

// LoadArchived reads an archived plan by ID.
func (s *Store) LoadArchived(id string) (*planner.Plan, error) {
	path, err := s.archivedPath(id)
	if err != nil {
		return nil, err
	}
	return readPlan(path)
}

// LoadPrevious returns the newest archived plan.
func (s *Store) LoadPrevious() (*planner.Plan, error) {
	ids, err := s.ListHistory()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: history is empty", ErrNoPlan)
	}
	return s.LoadArchived(ids[0])
}

// CleanCurrent removes the current plan but keeps history.
func (s *Store) CleanCurrent() error {
	if err := os.Remove(s.planPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clean removes the state directory.
func (s *Store) Clean() error {
	return os.RemoveAll(s.Dir)
}

func writePlan(path string, plan *planner.Plan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func readPlan(path string) (*planner.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoPlan, path)
		}
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var plan planner.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &plan, nil
}
