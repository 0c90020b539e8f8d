package server

import (
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/mdns"

	"github.com/lexread/lexread/internal/version"
)

// startMDNSAdvertiser announces the server on the local network so the
// reader GUI can find it without manual configuration. The returned func
// stops the advertisement.
func startMDNSAdvertiser(serverAddr string) func() {
	portNum, err := strconv.Atoi(listenPortFromAddr(serverAddr))
	if err != nil {
		return func() {}
	}

	host, _ := os.Hostname()
	if strings.TrimSpace(host) == "" {
		host = "lexread"
	}
	instance := strings.TrimSpace(envOrDefault("LEXREAD_MDNS_INSTANCE", "lexread-"+host))
	if instance == "" {
		instance = "lexread"
	}

	meta := []string{
		"server=lexread",
		"api=1",
		"version=" + version.Current(),
	}
	ips := discoverAdvertiseIPs()
	service, err := mdns.NewMDNSService(instance, "_lexread._tcp", "", "", portNum, ips, meta)
	if err != nil {
		slog.Error("mdns advertise service setup failed", "error", err)
		return func() {}
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		slog.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	slog.Info("mdns advertising enabled", "service", "_lexread._tcp", "instance", instance, "port", portNum)

	return func() {
		server.Shutdown()
	}
}

func discoverAdvertiseIPs() []net.IP {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	return filterAdvertiseIPs(ifAddrs)
}

// filterAdvertiseIPs keeps the routable interface addresses, deduplicated,
// IPv4 before IPv6 so discovery clients that only dial v4 get a usable
// address first.
func filterAdvertiseIPs(addrs []net.Addr) []net.IP {
	var v4, v6 []net.IP
	seen := make(map[string]bool)
	for _, addr := range addrs {
		ipNet, _ := addr.(*net.IPNet)
		if ipNet == nil || !advertisable(ipNet.IP) {
			continue
		}
		ip := ipNet.IP.To16()
		if ip == nil || seen[ip.String()] {
			continue
		}
		seen[ip.String()] = true
		if ip.To4() != nil {
			v4 = append(v4, ip)
		} else {
			v6 = append(v6, ip)
		}
	}
	byString := func(ips []net.IP) func(i, j int) bool {
		return func(i, j int) bool { return ips[i].String() < ips[j].String() }
	}
	sort.Slice(v4, byString(v4))
	sort.Slice(v6, byString(v6))
	out := append(v4, v6...)
	if len(out) == 0 {
		return nil
	}
	return out
}

func advertisable(ip net.IP) bool {
	return ip != nil && !ip.IsLoopback() && !ip.IsUnspecified() &&
		!ip.IsLinkLocalUnicast() && !ip.IsLinkLocalMulticast()
}

func listenPortFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	switch {
	case addr == "":
		return "8000"
	case !strings.Contains(addr, ":"):
		return addr
	}
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return ""
}
