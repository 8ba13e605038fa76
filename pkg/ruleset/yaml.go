package ruleset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the intermediate structure decoded from a rule-set file.
type yamlDocument struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Players     []yamlPlayer   `yaml:"players"`
	Scenarios   []yamlScenario `yaml:"scenarios"`

	node *yaml.Node
}

type yamlPlayer struct {
	Name       string          `yaml:"name"`
	Conditions []yamlCondition `yaml:"conditions"`

	node *yaml.Node
}

// UnmarshalYAML keeps the node for locations.
func (p *yamlPlayer) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlPlayer
	if err := value.Decode((*plain)(p)); err != nil {
		return err
	}
	p.node = value
	return nil
}

// yamlCondition accepts scalars of any YAML type for string attributes, so
// `invert: true` and `type: 2` decode the same as their quoted forms.
type yamlCondition struct {
	Name          string    `yaml:"name"`
	Type          string    `yaml:"type"`
	ConditionType string    `yaml:"condition_type"`
	Invert        string    `yaml:"invert"`
	Chance        string    `yaml:"chance"`
	Conditions    yaml.Node `yaml:"conditions"`

	node *yaml.Node
	keys []string
}

// knownConditionFields lists the keys a condition mapping may contain.
var knownConditionFields = []string{"name", "type", "condition_type", "invert", "chance", "conditions"}

// UnmarshalYAML keeps the node and the raw keys for unknown-field checks.
func (c *yamlCondition) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlCondition
	if err := value.Decode((*plain)(c)); err != nil {
		return err
	}
	c.node = value
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			c.keys = append(c.keys, value.Content[i].Value)
		}
	}
	return nil
}

// refs returns the child references as written: a single scalar or a sequence of scalars.
func (c *yamlCondition) refs() ([]string, error) {
	switch c.Conditions.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if c.Conditions.Value == "" {
			return nil, nil
		}
		return []string{c.Conditions.Value}, nil
	case yaml.SequenceNode:
		refs := make([]string, 0, len(c.Conditions.Content))
		for _, item := range c.Conditions.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: condition references must be names", item.Line)
			}
			refs = append(refs, item.Value)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("line %d: conditions must be a name, a colon-separated list or a sequence", c.Conditions.Line)
	}
}

type yamlScenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Facts       map[string]bool `yaml:"facts"`
	Expect      map[string]bool `yaml:"expect"`

	node *yaml.Node
}

// UnmarshalYAML keeps the node for locations.
func (s *yamlScenario) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlScenario
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	s.node = value
	return nil
}

// parseYAMLBytes decodes a rule-set file into the intermediate structure.
func parseYAMLBytes(data []byte) (*yamlDocument, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	var doc yamlDocument
	if err := node.Decode(&doc); err != nil {
		return nil, err
	}

	doc.node = &node
	return &doc, nil
}

// nodeLocation returns the location of a YAML node in file.
func nodeLocation(file string, node *yaml.Node) Location {
	if node == nil {
		return Location{File: file}
	}
	return Location{File: file, Line: node.Line, Column: node.Column}
}
