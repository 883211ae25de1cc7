package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/df07/go-csg-raytracer/pkg/core"
)

const (
	builtInGroup     = "Built-in Scenes"
	defaultFileGroup = "Scene Files"
	fileIDPrefix     = "file:"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

type builtInScene struct {
	info SceneInfo
	new  func() *Scene
}

var builtInScenes = []builtInScene{
	{
		info: SceneInfo{
			ID:          "five-balls",
			Description: "Union of five spheres in a row, one with a checker texture",
		},
		new: NewFiveBallsScene,
	},
	{
		info: SceneInfo{
			ID:          "csg-showcase",
			Name:        "CSG Showcase",
			Description: "One solid per set operation on a checkered ground plane",
		},
		new: NewCSGShowcaseScene,
	},
	{
		info: SceneInfo{
			ID:          "hollow-cube",
			Description: "Cube shell drilled on three axes around a mirror ball",
		},
		new: NewHollowCubeScene,
	},
}

// BuiltInScenes returns the metadata of every hard-coded scene
func BuiltInScenes() []SceneInfo {
	out := make([]SceneInfo, len(builtInScenes))
	for i, b := range builtInScenes {
		info := b.info
		if info.Name == "" {
			info.Name = titleCase(info.ID)
		}
		info.DisplayName = info.Name
		info.Group = builtInGroup
		info.Type = "builtin"
		out[i] = info
	}
	return out
}

// scenesDir finds the scenes directory from the repository root or a subdirectory
func scenesDir() string {
	for _, path := range []string{"scenes", "../scenes"} {
		if stat, err := os.Stat(path); err == nil && stat.IsDir() {
			return path
		}
	}
	return ""
}

// ListSceneFiles scans the scenes directory and returns discovered scene files
func ListSceneFiles() ([]SceneInfo, error) {
	dir := scenesDir()
	if dir == "" {
		return []SceneInfo{}, nil
	}
	return listSceneFilesIn(dir)
}

func listSceneFilesIn(dir string) ([]SceneInfo, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.scene"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		info, err := ParseSceneMetadata(filePath)
		if err != nil {
			core.Logger().Warn("skipping scene file", "file", filePath, "error", err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseSceneMetadata extracts metadata from the header comments of a scene file
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          fileIDPrefix + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       defaultFileGroup,
		Type:        "file",
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		// Unreadable files keep the fallback values
		return info, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Metadata ends at the first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}
		content, ok := strings.CutPrefix(line, "# ")
		if !ok {
			continue
		}

		if v, ok := strings.CutPrefix(content, "Scene:"); ok {
			info.Name = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Variant:"); ok {
			info.Variant = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Description:"); ok {
			info.Description = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Group:"); ok {
			info.Group = strings.TrimSpace(v)
		}
	}

	if info.Variant != "" {
		info.DisplayName = fmt.Sprintf("%s - %s", info.Name, info.Variant)
	} else {
		info.DisplayName = info.Name
	}

	return info, scanner.Err()
}

// ListAllScenes returns both built-in scenes and scene files, grouped by category
func ListAllScenes() (ScenesResponse, error) {
	var response ScenesResponse

	files, err := ListSceneFiles()
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	groupMap := make(map[string][]SceneInfo)
	for _, s := range append(BuiltInScenes(), files...) {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for name := range groupMap {
		if name != builtInGroup {
			groupNames = append(groupNames, name)
		}
	}
	sort.Strings(groupNames)

	if group, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{Name: builtInGroup, Scenes: group})
	}
	for _, name := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}

	return response, nil
}

// CreateScene builds a scene by ID. Built-in IDs are listed by BuiltInScenes;
// "file:<name>" loads scenes/<name>.scene.
func CreateScene(id string) (*Scene, error) {
	for _, b := range builtInScenes {
		if b.info.ID == id {
			return b.new(), nil
		}
	}

	if name, ok := strings.CutPrefix(id, fileIDPrefix); ok {
		dir := scenesDir()
		if dir == "" {
			return nil, fmt.Errorf("scene %q: scenes directory not found", id)
		}
		return LoadSceneFile(filepath.Join(dir, name+".scene"))
	}

	return nil, fmt.Errorf("unknown scene %q", id)
}

// titleCase converts a filename-style string to title case
// e.g., "five-balls" -> "Five Balls"
func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	// A Caser keeps state, so each call gets its own
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
