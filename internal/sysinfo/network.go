package sysinfo

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"runtime"

	psnet "github.com/shirou/gopsutil/v4/net"
)

type NetworkStats struct {
	GlobalStats NetIOStats               `json:"global_stats"`
	Interfaces  map[string]InterfaceInfo `json:"interfaces"`
	// ConnectionsCount is nil when sockets cannot be enumerated.
	ConnectionsCount *int `json:"connections_count"`
}

type NetIOStats struct {
	BytesSent   uint64 `json:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv"`
	Errin       uint64 `json:"errin"`
	Errout      uint64 `json:"errout"`
	Dropin      uint64 `json:"dropin"`
	Dropout     uint64 `json:"dropout"`
}

type InterfaceInfo struct {
	IsUp      bool               `json:"is_up"`
	MTU       int                `json:"mtu"`
	Addresses []InterfaceAddress `json:"addresses"`
}

type InterfaceAddress struct {
	Family  string  `json:"family"`
	Address string  `json:"address"`
	Netmask *string `json:"netmask"`
}

func (m *Monitor) NetworkStats(ctx context.Context) (*NetworkStats, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read network counters: %w", err)
	}
	interfaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	stats := &NetworkStats{
		Interfaces:       make(map[string]InterfaceInfo, len(interfaces)),
		ConnectionsCount: m.connectionsCount(ctx),
	}
	if len(counters) > 0 {
		c := counters[0]
		stats.GlobalStats = NetIOStats{
			BytesSent:   c.BytesSent,
			BytesRecv:   c.BytesRecv,
			PacketsSent: c.PacketsSent,
			PacketsRecv: c.PacketsRecv,
			Errin:       c.Errin,
			Errout:      c.Errout,
			Dropin:      c.Dropin,
			Dropout:     c.Dropout,
		}
	}

	for _, iface := range interfaces {
		stats.Interfaces[iface.Name] = describeInterface(iface)
	}
	return stats, nil
}

func (m *Monitor) connectionsCount(ctx context.Context) *int {
	conns, err := psnet.ConnectionsWithContext(ctx, "all")
	if err != nil {
		m.logger.Debug().Err(err).Msg("Network connections not available")
		return nil
	}
	n := len(conns)
	return &n
}

func describeInterface(iface psnet.InterfaceStat) InterfaceInfo {
	info := InterfaceInfo{
		MTU:       iface.MTU,
		Addresses: make([]InterfaceAddress, 0, len(iface.Addrs)+1),
	}
	for _, flag := range iface.Flags {
		if flag == "up" {
			info.IsUp = true
			break
		}
	}
	for _, addr := range iface.Addrs {
		info.Addresses = append(info.Addresses, describeAddress(addr.Addr))
	}
	if iface.HardwareAddr != "" {
		info.Addresses = append(info.Addresses, InterfaceAddress{
			Family:  linkFamily(),
			Address: iface.HardwareAddr,
		})
	}
	return info
}

// describeAddress splits an address in CIDR notation into address, family and
// netmask. Unparseable input is returned as is with an unknown family.
func describeAddress(cidr string) InterfaceAddress {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		addr, err := netip.ParseAddr(cidr)
		if err != nil {
			return InterfaceAddress{Family: "UNKNOWN", Address: cidr}
		}
		return InterfaceAddress{Family: addressFamily(addr), Address: addr.String()}
	}

	addr := prefix.Addr()
	mask := net.IP(net.CIDRMask(prefix.Bits(), addr.BitLen())).String()
	return InterfaceAddress{
		Family:  addressFamily(addr),
		Address: addr.String(),
		Netmask: &mask,
	}
}

func addressFamily(addr netip.Addr) string {
	if addr.Is4() || addr.Is4In6() {
		return "AF_INET"
	}
	return "AF_INET6"
}

func linkFamily() string {
	if runtime.GOOS == "linux" {
		return "AF_PACKET"
	}
	return "AF_LINK"
}
