package port

import (
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/docker/go-connections/nat"
)

// Scanner checks whether ports are free on the host by binding them.
//
// Binding asks the OS directly, so it needs no elevated permissions and no
// external tools such as lsof or ss.
type Scanner struct{}

// NewScanner creates a new Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable reports whether port can be bound on hostIP for protocol
// ("tcp", "udp" or "sctp"). An empty hostIP means all interfaces, which is
// where Docker publishes by default. SCTP is not probed and is reported
// as available.
func (s *Scanner) IsPortAvailable(hostIP string, port int, protocol string) bool {
	addr := net.JoinHostPort(hostIP, strconv.Itoa(port))

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = listener.Close() }()
		return true

	case "udp":
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		return true

	case "sctp":
		return true

	default:
		return false
	}
}

// InUseError reports a host port that is already bound.
type InUseError struct {
	HostIP   string
	Port     int
	Protocol string
}

func (e *InUseError) Error() string {
	if e.HostIP != "" {
		return fmt.Sprintf("host port %s:%d/%s is already in use", e.HostIP, e.Port, e.Protocol)
	}
	return fmt.Sprintf("host port %d/%s is already in use", e.Port, e.Protocol)
}

// CheckPublished parses publish specs ("[ip:][host:]container[/proto]",
// ranges allowed) and checks every explicit host port. Specs without a
// host port get an ephemeral one from Docker and are skipped.
//
// The first taken port is returned as an *InUseError; ports are checked in
// ascending order so the result is stable.
func (s *Scanner) CheckPublished(specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	_, bindings, err := nat.ParsePortSpecs(specs)
	if err != nil {
		return fmt.Errorf("invalid port spec: %w", err)
	}

	type probe struct {
		ip    string
		port  int
		proto string
	}
	var probes []probe
	for containerPort, list := range bindings {
		for _, b := range list {
			if b.HostPort == "" {
				continue
			}
			start, end, err := nat.ParsePortRangeToInt(b.HostPort)
			if err != nil {
				return fmt.Errorf("invalid host port %q: %w", b.HostPort, err)
			}
			for p := start; p <= end; p++ {
				probes = append(probes, probe{ip: b.HostIP, port: p, proto: containerPort.Proto()})
			}
		}
	}
	sort.Slice(probes, func(i, j int) bool {
		if probes[i].port != probes[j].port {
			return probes[i].port < probes[j].port
		}
		return probes[i].proto < probes[j].proto
	})

	for _, p := range probes {
		if !s.IsPortAvailable(p.ip, p.port, p.proto) {
			return &InUseError{HostIP: p.ip, Port: p.port, Protocol: p.proto}
		}
	}
	return nil
}
