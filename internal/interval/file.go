package interval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadPlanFile reads a plan from a YAML or JSON file, chosen by extension.
// Files without a recognised extension are parsed as YAML, which also
// accepts JSON.
func LoadPlanFile(path string) (Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan file: %w", err)
	}
	return ParsePlan(raw, filepath.Ext(path))
}

// ParsePlan decodes a plan from raw bytes. ext is a file extension such as ".json".
func ParsePlan(raw []byte, ext string) (Plan, error) {
	var plan Plan
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, &plan); err != nil {
			return Plan{}, fmt.Errorf("parse plan json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(raw, &plan); err != nil {
			return Plan{}, fmt.Errorf("parse plan yaml: %w", err)
		}
	}
	return plan, nil
}

// SavePlanFile writes the plan to path, as JSON when the extension is .json
// and YAML otherwise.
func SavePlanFile(path string, plan Plan) error {
	var (
		raw []byte
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		raw, err = json.MarshalIndent(plan, "", "  ")
	} else {
		raw, err = yaml.Marshal(plan)
	}
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create plan dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("write plan file: %w", err)
	}
	return nil
}
