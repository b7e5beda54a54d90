package summary

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"reel-digest/internal/app/model"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Contract is the prompt/schema pair for one category.
type Contract struct {
	Category model.Category `yaml:"-"`
	Prompt   string         `yaml:"prompt"`
}

// Prompts is the full set of prompt contracts.
type Prompts struct {
	Classification string              `yaml:"classification"`
	Reformulation  string              `yaml:"reformulation"`
	Contracts      map[string]Contract `yaml:"contracts"`
}

// DefaultPrompts returns the embedded contracts.
func DefaultPrompts() (*Prompts, error) {
	return ParsePrompts(defaultPrompts)
}

// LoadPrompts reads contracts from path, or the embedded defaults when path
// is empty.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts decodes and validates a YAML contract document.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that the classification prompt and all four category
// contracts are present.
func (p *Prompts) Validate() error {
	if strings.TrimSpace(p.Classification) == "" {
		return fmt.Errorf("prompts: classification prompt is required")
	}
	for _, c := range model.Categories {
		contract, ok := p.Contracts[string(c)]
		if !ok || strings.TrimSpace(contract.Prompt) == "" {
			return fmt.Errorf("prompts: contract for category %q is required", c)
		}
	}
	return nil
}

// Contract returns the contract for c.
func (p *Prompts) Contract(c model.Category) (Contract, error) {
	contract, ok := p.Contracts[string(c)]
	if !ok {
		return Contract{}, fmt.Errorf("prompts: no contract for category %q", c)
	}
	contract.Category = c
	return contract, nil
}

// Reformulate appends the reformulation instructions for violation to prompt.
func (p *Prompts) Reformulate(prompt string, violation error) string {
	note := p.Reformulation
	if strings.TrimSpace(note) == "" {
		note = "Your previous reply violated the schema: {{violation}}. Return only valid JSON."
	}
	return strings.TrimRight(prompt, "\n") + "\n\n" + strings.ReplaceAll(note, "{{violation}}", violation.Error())
}
