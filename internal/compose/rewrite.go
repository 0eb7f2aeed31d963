package compose

import (
	"errors"
	"strings"

	"github.com/shinji-kodama/devdock/internal/model"
)

// ErrNilDefinition is returned by Rewrite when there is no definition.
var ErrNilDefinition = errors.New("compose definition is nil")

// Mapping is one volume substitution applied by Rewrite.
//
// With Service set, the mapping is scoped to that service: the first entry
// whose source equals Source is re-pointed at Target (its mode is kept), and
// if there is no such entry "Source:Target" is appended.
//
// With Service empty, the mapping is a global substitution: in every
// service, entries whose source equals Source get Target as their new
// source, keeping their own target and mode. Nothing is appended.
//
// Either way, an entry left mounting the same source at the same target as
// an earlier one is dropped.
type Mapping struct {
	Service string
	Source  string
	Target  string
}

// IsGlobal reports whether the mapping applies to every service.
func (m Mapping) IsGlobal() bool {
	return m.Service == ""
}

// String renders the mapping in the form ParseMapping accepts.
func (m Mapping) String() string {
	if m.IsGlobal() {
		return m.Source + ":" + m.Target
	}
	return m.Service + ":" + m.Source + ":" + m.Target
}

// ParseMapping parses a mapping string.
//
//	service:source:target   service-scoped mapping
//	source:replacement      global source substitution
//
// Any other field count, or an empty field, is a *model.InvalidMappingError.
func ParseMapping(s string) (Mapping, error) {
	parts := strings.Split(s, ":")
	var m Mapping
	switch len(parts) {
	case 2:
		m = Mapping{Source: parts[0], Target: parts[1]}
	case 3:
		m = Mapping{Service: parts[0], Source: parts[1], Target: parts[2]}
		if m.Service == "" {
			return Mapping{}, &model.InvalidMappingError{Mapping: s, Reason: "service name is empty"}
		}
	default:
		return Mapping{}, &model.InvalidMappingError{
			Mapping: s,
			Reason:  "expected service:source:target or source:replacement",
		}
	}
	if m.Source == "" || m.Target == "" {
		return Mapping{}, &model.InvalidMappingError{Mapping: s, Reason: "source and target must not be empty"}
	}
	return m, nil
}

// ParseMappings parses every string with ParseMapping, stopping at the
// first malformed one.
func ParseMappings(specs []string) ([]Mapping, error) {
	mappings := make([]Mapping, 0, len(specs))
	for _, s := range specs {
		m, err := ParseMapping(s)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// Rewrite applies mappings, in order, to a copy of def and returns the copy.
//
// All mappings are validated before anything is changed: a mapping with an
// empty source or target fails with *model.InvalidMappingError and a
// service-scoped mapping naming an undeclared service fails with
// *model.UnknownServiceError. def itself is never modified.
//
// Entries that no mapping matches are kept as they are and in place, and
// applying the same mappings twice gives the same result as applying them
// once.
func Rewrite(def *Definition, mappings []Mapping) (*Definition, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	for _, m := range mappings {
		if m.Source == "" || m.Target == "" {
			return nil, &model.InvalidMappingError{Mapping: m.String(), Reason: "source and target must not be empty"}
		}
		if !m.IsGlobal() && !def.HasService(m.Service) {
			return nil, &model.UnknownServiceError{Service: m.Service}
		}
	}

	out := def.Clone()
	for _, m := range mappings {
		if m.IsGlobal() {
			for _, svc := range out.Services {
				substituteSource(svc, m.Source, m.Target)
			}
			continue
		}
		retarget(out.Services[m.Service], m.Source, m.Target)
	}
	return out, nil
}

// substituteSource replaces the source of every entry matching from.
func substituteSource(svc *Service, from, to string) {
	for i, v := range svc.Volumes {
		if v.Source() == from {
			svc.Volumes[i] = v.withSource(to)
		}
	}
	svc.Volumes = dropRepeatedMounts(svc.Volumes, to)
}

// retarget points the first entry with the given source at target, or
// appends "source:target" when the service has no such entry.
func retarget(svc *Service, source, target string) {
	for i, v := range svc.Volumes {
		if v.Source() != source {
			continue
		}
		if v.Target() != target {
			svc.Volumes[i] = v.withTarget(target)
		}
		svc.Volumes = dropRepeatedMounts(svc.Volumes, source)
		return
	}
	svc.Volumes = append(svc.Volumes, ShortVolume(source, target, ""))
}

// dropRepeatedMounts removes entries with the given source that mount it
// at a target an earlier entry already uses. Order is kept.
func dropRepeatedMounts(vols []VolumeEntry, source string) []VolumeEntry {
	seen := make(map[string]struct{})
	out := vols[:0]
	for _, v := range vols {
		if v.Source() == source {
			if _, dup := seen[v.Target()]; dup {
				continue
			}
			seen[v.Target()] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}
