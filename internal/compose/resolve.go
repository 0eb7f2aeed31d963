package compose

import (
	"errors"
	"sort"

	"github.com/shinji-kodama/devdock/internal/model"
)

// ErrNoServicesRequested is returned by Resolve for an empty request.
var ErrNoServicesRequested = errors.New("no services requested")

// Resolve computes the dependency closure of the requested services: the
// requested names plus everything reachable from them through depends_on.
//
// The walk is an iterative depth-first traversal with a visited set, so
// cycles (a -> b -> a) and diamonds terminate and every service is expanded
// at most once. Any requested or referenced name that is not declared
// aborts the resolution with a *model.UnknownServiceError; no partial
// closure is returned.
//
// The result is a set; it is returned sorted so callers get a stable order.
func Resolve(def *Definition, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return nil, ErrNoServicesRequested
	}
	for _, name := range requested {
		if !def.HasService(name) {
			return nil, &model.UnknownServiceError{Service: name}
		}
	}

	visited := make(map[string]struct{}, len(def.Services))
	for _, root := range requested {
		stack := []string{root}
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, seen := visited[name]; seen {
				continue
			}
			visited[name] = struct{}{}

			for _, dep := range def.Services[name].DependsOn.Names() {
				if !def.HasService(dep) {
					return nil, &model.UnknownServiceError{Service: dep, RequiredBy: name}
				}
				if _, seen := visited[dep]; !seen {
					stack = append(stack, dep)
				}
			}
		}
	}

	closure := make([]string, 0, len(visited))
	for name := range visited {
		closure = append(closure, name)
	}
	sort.Strings(closure)
	return closure, nil
}

// StartOrder orders a set of services so that every service comes after the
// services it depends on, using Kahn's algorithm restricted to the given
// set. Edges leaving the set are ignored. Services caught in a cycle cannot
// be ordered and are appended at the end in name order.
//
// docker compose does its own ordering; this is used for reporting.
func StartOrder(def *Definition, services []string) []string {
	inSet := make(map[string]bool, len(services))
	for _, s := range services {
		inSet[s] = true
	}

	inDegree := make(map[string]int, len(services))
	dependents := make(map[string][]string)
	for _, name := range services {
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		svc, ok := def.Services[name]
		if !ok {
			continue
		}
		seen := make(map[string]bool)
		for _, dep := range svc.DependsOn.Names() {
			if !inSet[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(inDegree))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		var ready []string
		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) < len(inDegree) {
		placed := make(map[string]bool, len(order))
		for _, name := range order {
			placed[name] = true
		}
		var rest []string
		for name := range inDegree {
			if !placed[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		order = append(order, rest...)
	}
	return order
}
