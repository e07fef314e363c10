package process

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTool is returned for tools.yaml entries that cannot be registered.
var ErrInvalidTool = errors.New("invalid tool definition")

// ProcessConfig is one allow-listed command in tools.yaml.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ToolsFile is the document layout of tools.yaml (or tools.json).
type ToolsFile struct {
	Tools []ProcessConfig `yaml:"tools" json:"tools"`
}

// LoadTools reads the allow-list from path. A missing file means no tools.
// Every entry needs a unique name and a command.
func LoadTools(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]ProcessConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tools config: %w", err)
	}

	var doc ToolsFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return indexTools(doc.Tools)
}

func indexTools(list []ProcessConfig) (map[string]ProcessConfig, error) {
	tools := make(map[string]ProcessConfig, len(list))
	for i, tool := range list {
		tool.Name = strings.TrimSpace(tool.Name)
		switch {
		case tool.Name == "":
			return nil, fmt.Errorf("%w: entry %d has no name", ErrInvalidTool, i)
		case strings.TrimSpace(tool.Command) == "":
			return nil, fmt.Errorf("%w: %q has no command", ErrInvalidTool, tool.Name)
		}
		if _, dup := tools[tool.Name]; dup {
			return nil, fmt.Errorf("%w: %q defined twice", ErrInvalidTool, tool.Name)
		}
		tools[tool.Name] = tool
	}
	return tools, nil
}
