package compose

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition is a compose document reduced to what devdock reasons about:
// the services mapping. Every other top-level key (networks, volumes,
// x-extensions, name, ...) is kept in Extra and written back with the same
// values. Scalars are re-rendered in canonical form (0755 becomes 493) and
// merge keys are expanded.
type Definition struct {
	// Services maps service names to their specs. A service declared with
	// an empty body ("db:") is normalized to a non-nil Service by Parse.
	Services map[string]*Service `yaml:"services,omitempty"`

	// Extra holds all top-level keys other than "services".
	Extra map[string]interface{} `yaml:",inline"`
}

// Service is a single compose service. Only volumes and depends_on are
// modelled; all other keys live in Extra.
type Service struct {
	// Volumes is the ordered list of volume entries.
	Volumes []VolumeEntry `yaml:"volumes,omitempty"`

	// DependsOn keeps the declared dependencies in whichever form
	// (list or map) the file used. Anchors and aliases are resolved on load.
	DependsOn DependsOn `yaml:"depends_on,omitempty"`

	// Extra holds every other service key (image, ports, environment, ...).
	Extra map[string]interface{} `yaml:",inline"`
}

// ServiceNames returns the names of all declared services.
func (d *Definition) ServiceNames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Services))
	for name := range d.Services {
		names = append(names, name)
	}
	return sortedCopy(names)
}

// HasService reports whether name is declared in the definition.
func (d *Definition) HasService(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Services[name]
	return ok
}

// DependsOn is a service's depends_on value. Compose accepts both the short
// list form and the long map form (service -> {condition: ...}); the parsed
// node is kept as-is so either form round-trips.
type DependsOn struct {
	node *yaml.Node
}

// NewDependsOn builds a list-form DependsOn.
func NewDependsOn(names ...string) DependsOn {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, n := range names {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n})
	}
	return DependsOn{node: seq}
}

// Names returns the dependency names in declaration order.
func (d DependsOn) Names() []string {
	if d.node == nil {
		return nil
	}
	var names []string
	switch d.node.Kind {
	case yaml.SequenceNode:
		for _, item := range d.node.Content {
			if item.Kind == yaml.ScalarNode {
				names = append(names, item.Value)
			}
		}
	case yaml.MappingNode:
		// Content alternates key, value.
		for i := 0; i+1 < len(d.node.Content); i += 2 {
			names = append(names, d.node.Content[i].Value)
		}
	case yaml.ScalarNode:
		if d.node.Value != "" {
			names = append(names, d.node.Value)
		}
	}
	return names
}

// IsZero lets yaml.v3 honour omitempty for an absent depends_on.
func (d DependsOn) IsZero() bool {
	return d.node == nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *DependsOn) UnmarshalYAML(value *yaml.Node) error {
	node := resolveNode(value)
	switch node.Kind {
	case yaml.SequenceNode, yaml.MappingNode, yaml.ScalarNode:
		d.node = node
		return nil
	default:
		return fmt.Errorf("depends_on: unsupported YAML node at line %d", value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (d DependsOn) MarshalYAML() (interface{}, error) {
	if d.node == nil {
		return nil, nil
	}
	return d.node, nil
}

func (d DependsOn) clone() DependsOn {
	return DependsOn{node: cloneNode(d.node)}
}

// VolumeEntry is one item of a service's volumes list: either the short
// "source:target[:mode]" string or the long mapping form.
type VolumeEntry struct {
	// Short is the short-syntax string. Empty when Long is set.
	Short string

	// Long is the long-syntax mapping (type, source, target, read_only, ...).
	Long map[string]interface{}
}

// ShortVolume builds a short-syntax entry from its parts.
// An empty mode is omitted.
func ShortVolume(source, target, mode string) VolumeEntry {
	parts := []string{source, target}
	if mode != "" {
		parts = append(parts, mode)
	}
	return VolumeEntry{Short: strings.Join(parts, ":")}
}

// Source returns the host path or named volume of the entry.
// Anonymous volumes ("/data") and unparseable short entries have no source.
func (v VolumeEntry) Source() string {
	if v.Long != nil {
		s, _ := v.Long["source"].(string)
		return s
	}
	source, _, _, _ := splitShort(v.Short)
	return source
}

// Target returns the container path of the entry.
func (v VolumeEntry) Target() string {
	if v.Long != nil {
		s, _ := v.Long["target"].(string)
		return s
	}
	_, target, _, _ := splitShort(v.Short)
	return target
}

// Mode returns the access mode suffix of a short entry ("ro", "rw", ...).
// Long entries express mode through their own keys and return "".
func (v VolumeEntry) Mode() string {
	if v.Long != nil {
		return ""
	}
	_, _, mode, _ := splitShort(v.Short)
	return mode
}

// String renders the entry for messages.
func (v VolumeEntry) String() string {
	if v.Long != nil {
		return fmt.Sprintf("%s:%s", v.Source(), v.Target())
	}
	return v.Short
}

// withSource returns a copy of v with the source replaced.
func (v VolumeEntry) withSource(source string) VolumeEntry {
	if v.Long != nil {
		long := copyMap(v.Long)
		long["source"] = source
		return VolumeEntry{Long: long}
	}
	_, target, mode, _ := splitShort(v.Short)
	return ShortVolume(source, target, mode)
}

// withTarget returns a copy of v with the target replaced and the mode kept.
func (v VolumeEntry) withTarget(target string) VolumeEntry {
	if v.Long != nil {
		long := copyMap(v.Long)
		long["target"] = target
		return VolumeEntry{Long: long}
	}
	source, _, mode, _ := splitShort(v.Short)
	return ShortVolume(source, target, mode)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *VolumeEntry) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		v.Short = value.Value
		v.Long = nil
		return nil
	case yaml.MappingNode:
		var long map[string]interface{}
		if err := value.Decode(&long); err != nil {
			return err
		}
		v.Short = ""
		v.Long = long
		return nil
	default:
		return fmt.Errorf("volumes: entry at line %d must be a string or a mapping", value.Line)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (v VolumeEntry) MarshalYAML() (interface{}, error) {
	if v.Long != nil {
		return v.Long, nil
	}
	return v.Short, nil
}

// splitShort splits "source:target[:mode]". A single field is an anonymous
// volume (target only). More than three fields cannot be interpreted and
// ok is false.
func splitShort(s string) (source, target, mode string, ok bool) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return "", parts[0], "", true
	case 2:
		return parts[0], parts[1], "", true
	case 3:
		return parts[0], parts[1], parts[2], true
	default:
		return "", "", "", false
	}
}
