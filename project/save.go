package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-session/debug"
)

const (
	saveExt         = ".yaml"
	timestampFormat = "2006-01-02_15-04-05"
)

// SaveInfo represents a saved project file (for listing)
type SaveInfo struct {
	Filename  string
	Label     string // parsed from filename (empty if unlabelled)
	Timestamp time.Time
}

// document is the on-disk layout of a save
type document struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name"`
	State   `yaml:",inline"`
}

const documentVersion = 1

// Library reads and writes timestamped saves under a projects directory,
// one folder per project
type Library struct {
	Dir string
	now func() time.Time
}

// DefaultDir returns ~/.config/go-session/projects
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-session", "projects"), nil
}

// NewLibrary opens a library rooted at dir
func NewLibrary(dir string) *Library {
	return &Library{Dir: dir, now: time.Now}
}

// ProjectDir returns the path to a specific project
func (l *Library) ProjectDir(name string) string {
	return filepath.Join(l.Dir, name)
}

// ListProjects returns all project folder names
func (l *Library) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (l *Library) ListSaves(project string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(l.ProjectDir(project))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fmt.Errorf("list saves of %s: %w", project, err)
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, ok := parseSaveName(entry.Name())
		if ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// parseSaveName splits 2024-01-15_14-30-00[_label].yaml
func parseSaveName(name string) (SaveInfo, bool) {
	if !strings.HasSuffix(name, saveExt) {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(name, saveExt)
	if len(base) < len(timestampFormat) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(timestampFormat, base[:len(timestampFormat)])
	if err != nil {
		return SaveInfo{}, false
	}
	label := ""
	if rest := base[len(timestampFormat):]; len(rest) > 1 && rest[0] == '_' {
		label = rest[1:]
	}
	return SaveInfo{Filename: name, Label: label, Timestamp: ts}, true
}

// Save writes the store's project as a new timestamped file and returns its
// filename
func (l *Library) Save(store *Store, project, label string) (string, error) {
	if project == "" {
		project = "untitled"
	}
	dir := l.ProjectDir(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create project %s: %w", project, err)
	}

	doc := document{Version: documentVersion, Name: project, State: store.Snapshot()}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("encode project %s: %w", project, err)
	}

	filename := l.now().Format(timestampFormat)
	if label != "" {
		filename += "_" + sanitizeFilename(label)
	}
	filename += saveExt
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}

	debug.Log("store", "saved %s/%s (%d bytes)", project, filename, len(data))
	return filename, nil
}

// Load replaces the store's project with a save (the most recent if filename
// is empty)
func (l *Library) Load(store *Store, project, filename string) error {
	if filename == "" {
		saves, err := l.ListSaves(project)
		if err != nil {
			return err
		}
		if len(saves) == 0 {
			return fmt.Errorf("no saves found in project %s", project)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(l.ProjectDir(project), filename))
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	doc := document{State: NewState()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	if doc.Version > documentVersion {
		return fmt.Errorf("%s: unsupported version %d", filename, doc.Version)
	}
	sortLanes(doc.Tracks)

	store.Replace(doc.State)
	debug.Log("store", "loaded %s/%s", project, filename)
	return nil
}

// sortLanes repairs hand-edited saves whose points are out of beat order
func sortLanes(tracks []Track) {
	for i := range tracks {
		for j := range tracks[i].Lanes {
			lane := &tracks[i].Lanes[j]
			if lane.Sorted() {
				continue
			}
			debug.Log("store", "lane %s loaded out of order, sorting", lane.ID)
			points := lane.Points
			lane.Points = nil
			for _, p := range points {
				lane.Insert(p)
			}
		}
	}
}

// CreateProject creates a new empty project folder
func (l *Library) CreateProject(name string) error {
	if err := os.MkdirAll(l.ProjectDir(name), 0755); err != nil {
		return fmt.Errorf("create project %s: %w", name, err)
	}
	return nil
}

// DeleteSave deletes a specific save file
func (l *Library) DeleteSave(project, filename string) error {
	if err := os.Remove(filepath.Join(l.ProjectDir(project), filename)); err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	return nil
}

// RenameSave changes the label part of a save, keeping its timestamp
func (l *Library) RenameSave(project, oldFilename, newLabel string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fmt.Errorf("invalid save filename %q", oldFilename)
	}

	newFilename := info.Timestamp.Format(timestampFormat)
	if newLabel != "" {
		newFilename += "_" + sanitizeFilename(newLabel)
	}
	newFilename += saveExt

	dir := l.ProjectDir(project)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", fmt.Errorf("rename %s: %w", oldFilename, err)
	}
	return newFilename, nil
}

// DeleteProject deletes an entire project folder
func (l *Library) DeleteProject(name string) error {
	if err := os.RemoveAll(l.ProjectDir(name)); err != nil {
		return fmt.Errorf("delete project %s: %w", name, err)
	}
	return nil
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}
