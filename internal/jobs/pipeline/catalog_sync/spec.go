package catalog_sync

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const pipelineEnv = "CATALOG_SYNC_PIPELINE_YAML"

const (
	StageImport    = "catalog_import"
	StageHarvest   = "requisites_harvest"
	StagePropagate = "requisites_propagate"
)

//go:embed catalog_sync.yaml
var specFS embed.FS

// used when the YAML is missing or invalid
var fallbackStages = []StageSpec{
	{Name: "import", Type: StageImport},
	{Name: "harvest", Type: StageHarvest, DependsOn: []string{"import"}},
	{Name: "propagate", Type: StagePropagate, DependsOn: []string{"harvest"}},
}

type PipelineSpec struct {
	Pipeline string      `yaml:"pipeline"`
	Version  int         `yaml:"version"`
	Stages   []StageSpec `yaml:"stages"`
}

type StageSpec struct {
	Name      string         `yaml:"name"`
	Type      string         `yaml:"type"`
	DependsOn []string       `yaml:"depends_on"`
	Enabled   *bool          `yaml:"enabled"`
	Config    map[string]any `yaml:"config"`
}

// Strings reads a list-valued config entry. A scalar is split on commas.
func (s StageSpec) Strings(key string) []string {
	var raw []string
	switch v := s.Config[key].(type) {
	case []any:
		for _, x := range v {
			raw = append(raw, fmt.Sprint(x))
		}
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	}
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}

// LoadStages returns the enabled stages in run order.
func LoadStages() ([]StageSpec, error) {
	data, err := readSpec()
	if err != nil {
		return nil, err
	}
	return ParseStages(data)
}

func ParseStages(data []byte) ([]StageSpec, error) {
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := validateSpec(&spec); err != nil {
		return nil, err
	}
	out := make([]StageSpec, 0, len(spec.Stages))
	for _, st := range spec.Stages {
		if st.Enabled != nil && !*st.Enabled {
			continue
		}
		st.Name = strings.TrimSpace(st.Name)
		st.Type = strings.TrimSpace(st.Type)
		out = append(out, st)
	}
	return out, nil
}

func readSpec() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(pipelineEnv)); path != "" {
		return os.ReadFile(path)
	}
	return specFS.ReadFile("catalog_sync.yaml")
}

func validateSpec(spec *PipelineSpec) error {
	if spec == nil {
		return errors.New("missing spec")
	}
	if strings.TrimSpace(spec.Pipeline) != JobType {
		return fmt.Errorf("unexpected pipeline: %s", spec.Pipeline)
	}
	if len(spec.Stages) == 0 {
		return errors.New("no stages defined")
	}

	seen := map[string]bool{}
	done := map[string]bool{}
	for _, st := range spec.Stages {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return errors.New("stage name is required")
		}
		if seen[name] {
			return fmt.Errorf("duplicate stage name: %s", name)
		}
		seen[name] = true
		switch strings.TrimSpace(st.Type) {
		case StageImport, StageHarvest, StagePropagate:
		default:
			return fmt.Errorf("stage %s: unknown type %q", name, st.Type)
		}
		if st.Enabled != nil && !*st.Enabled {
			continue
		}
		for _, dep := range st.DependsOn {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			if !done[dep] {
				return fmt.Errorf("stage %s: dependency %s is unknown, disabled, or runs later", name, dep)
			}
		}
		done[name] = true
	}
	if len(done) == 0 {
		return errors.New("every stage is disabled")
	}
	return nil
}
