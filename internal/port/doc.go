// Package port checks host port availability before devdock publishes
// container ports.
//
// Docker reports a taken host port only after the container has been
// created, as "port is already allocated". Scanner.CheckPublished probes
// the host ports of a set of publish specs up front so the failure names
// the port and nothing is created.
package port
