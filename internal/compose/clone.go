package compose

import (
	"sort"

	"gopkg.in/yaml.v3"
)

// Clone returns a deep copy of the definition. Transformations in this
// package work on a clone so the caller's value is never mutated.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := &Definition{Extra: copyMap(d.Extra)}
	if d.Services != nil {
		out.Services = make(map[string]*Service, len(d.Services))
		for name, svc := range d.Services {
			out.Services[name] = svc.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the service.
func (s *Service) Clone() *Service {
	if s == nil {
		return &Service{}
	}
	out := &Service{
		DependsOn: s.DependsOn.clone(),
		Extra:     copyMap(s.Extra),
	}
	if s.Volumes != nil {
		out.Volumes = make([]VolumeEntry, len(s.Volumes))
		for i, v := range s.Volumes {
			out.Volumes[i] = VolumeEntry{Short: v.Short, Long: copyMap(v.Long)}
		}
	}
	return out
}

// copyMap deep-copies a decoded YAML mapping. nil stays nil.
func copyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies any value produced by yaml.v3 decoding into
// interface{}: nested mappings, sequences and scalars.
func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return copyMap(t)
	case map[interface{}]interface{}:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	case *yaml.Node:
		return cloneNode(t)
	default:
		return t
	}
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Content != nil {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneNode(c)
		}
	}
	return &out
}

// resolveNode deep-copies n with aliases replaced by copies of their
// anchored nodes, anchors dropped and merge keys expanded. The result can
// be encoded on its own without referring to the rest of the document.
func resolveNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	if n.Kind == yaml.AliasNode {
		return resolveNode(n.Alias)
	}
	out := *n
	out.Anchor = ""
	out.Alias = nil
	if n.Kind == yaml.MappingNode {
		out.Content = resolveMapping(n.Content)
		return &out
	}
	if n.Content != nil {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = resolveNode(c)
		}
	}
	return &out
}

// resolveMapping resolves the key/value pairs of a mapping and folds "<<"
// merges into it. Keys written in the mapping win over merged ones, and
// earlier merge sources win over later ones.
func resolveMapping(content []*yaml.Node) []*yaml.Node {
	var out, merged []*yaml.Node
	for i := 0; i+1 < len(content); i += 2 {
		key, val := content[i], content[i+1]
		if key.Kind == yaml.ScalarNode && key.ShortTag() == "!!merge" {
			merged = append(merged, mergeSources(resolveNode(val))...)
			continue
		}
		out = append(out, resolveNode(key), resolveNode(val))
	}
	for _, src := range merged {
		for i := 0; i+1 < len(src.Content); i += 2 {
			if !hasKey(out, src.Content[i].Value) {
				out = append(out, src.Content[i], src.Content[i+1])
			}
		}
	}
	return out
}

// mergeSources returns the mappings a merge value refers to: the value
// itself, or each mapping of a sequence.
func mergeSources(val *yaml.Node) []*yaml.Node {
	switch val.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{val}
	case yaml.SequenceNode:
		var out []*yaml.Node
		for _, item := range val.Content {
			if item.Kind == yaml.MappingNode {
				out = append(out, item)
			}
		}
		return out
	default:
		return nil
	}
}

func hasKey(content []*yaml.Node, key string) bool {
	for i := 0; i+1 < len(content); i += 2 {
		if content[i].Value == key {
			return true
		}
	}
	return false
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
