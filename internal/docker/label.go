package docker

import (
	"time"

	"github.com/docker/docker/api/types/filters"
)

// Label keys devdock puts on the containers it creates. They make
// devdock's containers discoverable among everything else on the host;
// the environment record on disk stays the source of truth.
const (
	// LabelPrefix is the common prefix for all devdock labels.
	LabelPrefix = "devdock."

	// LabelManagedBy marks a container as created by devdock.
	// Key: "devdock.managed-by", Value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelEnv stores the name of the environment the container belongs to.
	LabelEnv = LabelPrefix + "env"

	// LabelCreatedAt stores the RFC3339 creation time.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of the LabelManagedBy label.
const ManagedByValue = "devdock"

// nowFunc is replaced in tests.
var nowFunc = time.Now

// BuildLabels returns the management labels for a container of the given
// environment, with extra merged on top. Management keys in extra do not
// override devdock's own values.
func BuildLabels(envName string, extra map[string]string) map[string]string {
	labels := make(map[string]string, len(extra)+3)
	for k, v := range extra {
		labels[k] = v
	}
	labels[LabelManagedBy] = ManagedByValue
	labels[LabelCreatedAt] = nowFunc().UTC().Format(time.RFC3339)
	if envName != "" {
		labels[LabelEnv] = envName
	}
	return labels
}

// IsManaged reports whether labels carry devdock's management label.
func IsManaged(labels map[string]string) bool {
	return labels[LabelManagedBy] == ManagedByValue
}

// EnvName returns the environment name recorded in labels, or "".
func EnvName(labels map[string]string) string {
	return labels[LabelEnv]
}

// FilterLabels returns the label filter that selects every devdock-managed
// container.
func FilterLabels() map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
	}
}

// managedFilter turns FilterLabels into Docker API filter arguments.
func managedFilter() filters.Args {
	args := filters.NewArgs()
	for k, v := range FilterLabels() {
		args.Add("label", k+"="+v)
	}
	return args
}
