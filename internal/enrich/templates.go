package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Templates holds the up-to-three prompt templates of a batch. An empty
// template marks its stage as misconfigured.
type Templates struct {
	Prompt1 string `yaml:"prompt1" json:"prompt1"`
	Prompt2 string `yaml:"prompt2" json:"prompt2"`
	Prompt3 string `yaml:"prompt3" json:"prompt3"`
}

// LoadTemplates reads templates from a YAML file.
func LoadTemplates(path string) (Templates, error) {
	var t Templates
	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrap(err, "templates: read file")
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, eris.Wrap(err, "templates: parse yaml")
	}
	return t, nil
}

// Merge returns t with every non-empty template of override applied.
func (t Templates) Merge(override Templates) Templates {
	if override.Prompt1 != "" {
		t.Prompt1 = override.Prompt1
	}
	if override.Prompt2 != "" {
		t.Prompt2 = override.Prompt2
	}
	if override.Prompt3 != "" {
		t.Prompt3 = override.Prompt3
	}
	return t
}
