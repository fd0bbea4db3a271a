package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/renato0307/modshell/internal/domain"
)

// DeployFile is the name of the plan written into a profile's deploy dir
const DeployFile = "deploy.json"

// DeployPlan maps every virtual path of the enabled mods to the file that
// wins it
type DeployPlan struct {
	Files       map[string]DeployEntry `json:"files"`
	GeneratedAt time.Time              `json:"generated_at"`
	LoadOrder   []domain.Hash          `json:"load_order"`
	Profile     string                 `json:"profile"`
}

// DeployEntry is the winning source of one virtual path
type DeployEntry struct {
	Hash   domain.Hash `json:"hash"`
	Mod    string      `json:"mod"`
	Source string      `json:"source"`
}

func buildDeployPlan(profile string, mods []domain.Mod) DeployPlan {
	plan := DeployPlan{
		Files:       make(map[string]DeployEntry),
		GeneratedAt: time.Now().UTC(),
		Profile:     profile,
	}

	idx := domain.BuildConflictIndex(mods)
	for _, m := range mods {
		if m.Enabled {
			plan.LoadOrder = append(plan.LoadOrder, m.Hash)
		}
	}

	for _, p := range idx.Paths() {
		winner, ok := idx.Winner(p)
		if !ok {
			continue
		}
		plan.Files[p] = DeployEntry{
			Hash:   winner.Hash,
			Mod:    winner.DisplayName(),
			Source: sourceOf(winner, p),
		}
	}
	return plan
}

// sourceOf maps a virtual path back to the file inside the installed mod
func sourceOf(mod domain.Mod, virtual string) string {
	if rest, ok := strings.CutPrefix(virtual, domain.BaseFilesRoot); ok {
		return filepath.Join(mod.Path, "content", filepath.FromSlash(rest))
	}
	if rest, ok := strings.CutPrefix(virtual, domain.DLCFilesRoot); ok {
		return filepath.Join(mod.Path, "aoc", filepath.FromSlash(rest))
	}
	return ""
}

// writeDeployPlan replaces the plan file atomically
func writeDeployPlan(dir string, plan DeployPlan) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create deploy directory: %w", err)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deploy plan: %w", err)
	}

	tmp, err := os.CreateTemp(dir, DeployFile+".*")
	if err != nil {
		return fmt.Errorf("failed to create deploy plan: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write deploy plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write deploy plan: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, DeployFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace deploy plan: %w", err)
	}
	return nil
}

// ReadDeployPlan reads the plan last written for a profile
func ReadDeployPlan(dir string) (*DeployPlan, error) {
	data, err := os.ReadFile(filepath.Join(dir, DeployFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read deploy plan: %w", err)
	}
	var plan DeployPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("invalid deploy plan: %w", err)
	}
	return &plan, nil
}
