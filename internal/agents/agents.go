// Package agents loads specialist agent definitions: a name, a
// description, optional tool and skill grants, and a system prompt in
// the markdown body. Three engineers ship builtin; files under
// .bosun/agents override them by name, project over global.
package agents

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bosunworks/bosun/internal/frontmatter"
)

// Agent is one selectable specialist.
type Agent struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Tools        []string `yaml:"tools"`
	Skills       []string `yaml:"skills"`
	SystemPrompt string   `yaml:"-"`
	Builtin      bool     `yaml:"-"`
}

// Builtin returns the default roster. Callers get fresh copies.
func Builtin() []*Agent {
	return []*Agent{
		{
			Name:         "frontend-engineer",
			Description:  "Component structure, styling, and frontend performance",
			SystemPrompt: "You are a frontend engineer. Focus on component structure, style quality, and frontend performance.",
			Builtin:      true,
		},
		{
			Name:         "backend-engineer",
			Description:  "API design, data modeling, and server-side performance",
			SystemPrompt: "You are a backend engineer. Focus on API contracts, data modeling, reliability, and performance.",
			Builtin:      true,
		},
		{
			Name:         "test-engineer",
			Description:  "Test strategy, automation, and regression protection",
			SystemPrompt: "You are a test engineer. Focus on test strategy, automation, and regression protection.",
			Builtin:      true,
		},
	}
}

// DefaultDirs returns the search roots in override order: global
// first, then the project.
func DefaultDirs(projectDir string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".bosun", "agents"))
	}
	if projectDir != "" {
		dirs = append(dirs, filepath.Join(projectDir, ".bosun", "agents"))
	}
	return dirs
}

// Index holds the merged agent roster.
type Index struct {
	byName map[string]*Agent
}

// Discover merges the builtin roster with *.md definitions from each
// root. Later roots win name collisions, and any file wins over a
// builtin with the same name.
func Discover(roots ...string) *Index {
	ix := &Index{byName: make(map[string]*Agent)}
	for _, agent := range Builtin() {
		ix.byName[agent.Name] = agent
	}
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
				continue
			}
			path := filepath.Join(root, entry.Name())
			agent, err := loadFile(path)
			if err != nil {
				log.Printf("warning: skipping agent %s: %v", path, err)
				continue
			}
			ix.byName[agent.Name] = agent
		}
	}
	return ix
}

// Load resolves a single agent by name from the merged roster.
func Load(name string, roots ...string) (*Agent, error) {
	if agent, ok := Discover(roots...).Get(name); ok {
		return agent, nil
	}
	return nil, fmt.Errorf("agent not found: %s", name)
}

func loadFile(path string) (*Agent, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var agent Agent
	body, err := frontmatter.Decode(content, &agent)
	if err != nil {
		return nil, err
	}
	if agent.Name == "" {
		agent.Name = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	agent.SystemPrompt = body
	return &agent, nil
}

// Get looks an agent up by exact name.
func (ix *Index) Get(name string) (*Agent, bool) {
	agent, ok := ix.byName[name]
	return agent, ok
}

// All returns the roster sorted by name.
func (ix *Index) All() []*Agent {
	out := make([]*Agent, 0, len(ix.byName))
	for _, agent := range ix.byName {
		out = append(out, agent)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Describe renders the one-line-per-agent listing used in prompts and
// the CLI.
func (ix *Index) Describe() string {
	all := ix.All()
	if len(all) == 0 {
		return "(no agents available)"
	}
	lines := make([]string, 0, len(all))
	for _, agent := range all {
		lines = append(lines, fmt.Sprintf("- %s: %s", agent.Name, agent.Description))
	}
	return strings.Join(lines, "\n")
}
