package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Sentinel errors for report operations.
var (
	// ErrProjectNotFound indicates the directory holds no .kicad_pro file.
	ErrProjectNotFound = errors.New("no KiCad project found")

	// ErrAmbiguousProject indicates the directory holds more than one .kicad_pro file.
	ErrAmbiguousProject = errors.New("more than one KiCad project found")

	// ErrNoRenderLayers indicates none of the wanted layers exist on the board.
	ErrNoRenderLayers = errors.New("board has none of the render layers")
)

const (
	projectExt = ".kicad_pro"
	boardExt   = ".kicad_pcb"
	stackupExt = ".stackup"
)

// Project locates the files of one KiCad project.
type Project struct {
	// Dir is the project directory.
	Dir string

	// Name is the project file name without extension.
	Name string
}

// BoardPath returns the path of the project's board file.
func (p Project) BoardPath() string {
	return filepath.Join(p.Dir, p.Name+boardExt)
}

// StackupPath returns where a physical stackup export is expected.
func (p Project) StackupPath() string {
	return filepath.Join(p.Dir, p.Name+stackupExt)
}

// FindProject returns the single KiCad project in dir.
func FindProject(dir string) (Project, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Project{}, fmt.Errorf("read project dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != projectExt {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), projectExt))
	}

	switch len(names) {
	case 0:
		return Project{}, fmt.Errorf("%w in %s", ErrProjectNotFound, dir)
	case 1:
		return Project{Dir: dir, Name: names[0]}, nil
	default:
		slices.Sort(names)
		return Project{}, fmt.Errorf("%w in %s: %s", ErrAmbiguousProject, dir, strings.Join(names, ", "))
	}
}

// SelectRenderLayers returns the wanted layers present on the board, in
// wanted order.
func SelectRenderLayers(actual, wanted []string) ([]string, error) {
	present := make(map[string]bool, len(actual))
	for _, name := range actual {
		present[name] = true
	}

	selected := make([]string, 0, len(actual))
	seen := make(map[string]bool, len(actual))
	for _, name := range wanted {
		if present[name] && !seen[name] {
			selected = append(selected, name)
			seen[name] = true
		}
	}
	if len(selected) == 0 {
		return nil, ErrNoRenderLayers
	}
	return selected, nil
}
