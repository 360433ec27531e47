package audit

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"articleforge/internal/domain"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// TemplateSection is one expected section of a content template.
type TemplateSection struct {
	Key        string             `yaml:"key" json:"key"`
	Heading    string             `yaml:"heading" json:"heading"`
	FormatCode domain.FormatCode  `yaml:"format_code" json:"format_code"`
	Required   bool               `yaml:"required" json:"required"`
	Zone       domain.ContentZone `yaml:"zone" json:"zone"`
}

// TemplateSpec describes the structure an article type should follow.
type TemplateSpec struct {
	Name     string            `yaml:"name" json:"name"`
	Sections []TemplateSection `yaml:"sections" json:"sections"`
}

// ParseTemplate decodes a YAML template specification.
func ParseTemplate(data []byte) (*TemplateSpec, error) {
	var spec TemplateSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if len(spec.Sections) == 0 {
		return nil, fmt.Errorf("template %q has no sections", spec.Name)
	}
	for i := range spec.Sections {
		s := &spec.Sections[i]
		s.Key = strings.TrimSpace(s.Key)
		s.FormatCode = domain.FormatCode(strings.ToUpper(strings.TrimSpace(string(s.FormatCode))))
		if s.FormatCode == "" {
			s.FormatCode = domain.FormatProse
		}
		s.Zone = domain.ContentZone(strings.ToUpper(strings.TrimSpace(string(s.Zone))))
		if s.Zone == "" {
			s.Zone = domain.ZoneMain
		}
	}
	return &spec, nil
}

// LoadTemplate reads a template from disk.
func LoadTemplate(path string) (*TemplateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return ParseTemplate(data)
}

// BuiltinTemplate returns a template shipped with the binary.
func BuiltinTemplate(name string) (*TemplateSpec, error) {
	data, err := templateFS.ReadFile("templates/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: template %q", domain.ErrNotFound, name)
	}
	return ParseTemplate(data)
}
