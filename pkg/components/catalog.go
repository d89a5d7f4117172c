package components

import (
	_ "embed"
	"fmt"

	"github.com/aretw0/tessera/pkg/props"
	"github.com/aretw0/tessera/pkg/registry"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Spec is one catalog seed entry.
type Spec struct {
	Type         string            `yaml:"type" json:"type"`
	Label        string            `yaml:"label" json:"label"`
	Icon         string            `yaml:"icon" json:"icon,omitempty"`
	DefaultProps map[string]any    `yaml:"defaultProps" json:"defaultProps"`
	Contract     map[string]string `yaml:"contract" json:"contract,omitempty"`
}

// Catalog returns the built-in catalog seed.
func Catalog() ([]Spec, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes catalog seed data in YAML (or JSON) form.
func ParseCatalog(data []byte) ([]Spec, error) {
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i, s := range specs {
		if s.Type == "" {
			return nil, fmt.Errorf("catalog entry %d: missing type", i)
		}
	}
	return specs, nil
}

// Register populates reg with the built-in components.
func Register(reg *registry.Registry) error {
	specs, err := Catalog()
	if err != nil {
		return err
	}
	return RegisterSpecs(reg, specs, Renderers)
}

// RegisterSpecs registers each spec with the renderer of the same type.
func RegisterSpecs(reg *registry.Registry, specs []Spec, renderers map[string]registry.RenderFunc) error {
	for _, s := range specs {
		fn, ok := renderers[s.Type]
		if !ok {
			return fmt.Errorf("catalog entry %s: no renderer", s.Type)
		}
		contract, err := props.ParseContract(s.Contract)
		if err != nil {
			return fmt.Errorf("catalog entry %s: %w", s.Type, err)
		}
		if err := reg.Define(registry.Definition{
			Type:         s.Type,
			Label:        s.Label,
			Icon:         s.Icon,
			DefaultProps: s.DefaultProps,
			Contract:     contract,
			Render:       fn,
		}); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding every built-in component.
func NewRegistry() (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
