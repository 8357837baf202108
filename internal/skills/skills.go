// Package skills discovers reusable instruction packs. A skill is a
// directory containing a SKILL.md whose frontmatter carries a name and
// description; the markdown body is what gets injected into a prompt
// when the skill is selected.
//
// Skills live in two places. Global skills sit under ~/.bosun/skills
// and apply everywhere; project skills sit under <project>/.bosun/skills
// and override a global skill with the same name.
package skills

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bosunworks/bosun/internal/frontmatter"
)

// Skill is one discovered instruction pack.
type Skill struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Dir         string `yaml:"-"`
	Path        string `yaml:"-"`
	Body        string `yaml:"-"`
}

// Index holds discovered skills with alias lookup. Aliases cover the
// exact name, its lowercase form, and the underscore-normalized form,
// so "My-Skill", "my-skill", and "my_skill" all resolve.
type Index struct {
	byName  map[string]*Skill
	aliases map[string]string
}

// DefaultDirs returns the search roots in override order: global
// first, then the project, so project skills win name collisions.
func DefaultDirs(projectDir string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".bosun", "skills"))
	}
	if projectDir != "" {
		dirs = append(dirs, filepath.Join(projectDir, ".bosun", "skills"))
	}
	return dirs
}

// Discover scans each root for */SKILL.md entries. Missing roots are
// skipped; unreadable skill files are logged and skipped so one broken
// skill cannot hide the rest.
func Discover(roots ...string) *Index {
	ix := &Index{
		byName:  make(map[string]*Skill),
		aliases: make(map[string]string),
	}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(root, entry.Name(), "SKILL.md")
			skill, err := loadFile(path)
			if err != nil {
				if !os.IsNotExist(err) {
					log.Printf("warning: skipping skill %s: %v", path, err)
				}
				continue
			}
			if skill.Name == "" {
				skill.Name = entry.Name()
			}
			ix.add(skill)
		}
	}
	return ix
}

func loadFile(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var skill Skill
	body, err := frontmatter.Decode(content, &skill)
	if err != nil {
		return nil, fmt.Errorf("failed to parse skill file: %w", err)
	}
	skill.Path = path
	skill.Dir = filepath.Dir(path)
	skill.Body = body
	return &skill, nil
}

func (ix *Index) add(skill *Skill) {
	ix.byName[skill.Name] = skill
	ix.aliases[skill.Name] = skill.Name
	ix.aliases[strings.ToLower(skill.Name)] = skill.Name
	ix.aliases[Normalize(skill.Name)] = skill.Name
}

// Normalize folds a skill name for alias matching: trimmed, lowered,
// hyphens turned into underscores.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// Resolve finds a skill by name or any of its aliases.
func (ix *Index) Resolve(input string) (*Skill, bool) {
	name, ok := ix.aliases[input]
	if !ok {
		name, ok = ix.aliases[Normalize(input)]
	}
	if !ok {
		return nil, false
	}
	skill, ok := ix.byName[name]
	return skill, ok
}

// Len reports how many skills were discovered.
func (ix *Index) Len() int {
	return len(ix.byName)
}

// All returns every skill sorted by name.
func (ix *Index) All() []*Skill {
	out := make([]*Skill, 0, len(ix.byName))
	for _, skill := range ix.byName {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Describe renders the one-line-per-skill listing used in prompts and
// the CLI.
func (ix *Index) Describe() string {
	all := ix.All()
	if len(all) == 0 {
		return "(no skills available)"
	}
	lines := make([]string, 0, len(all))
	for _, skill := range all {
		desc := skill.Description
		if desc == "" {
			desc = "(no description)"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", skill.Name, desc))
	}
	return strings.Join(lines, "\n")
}
