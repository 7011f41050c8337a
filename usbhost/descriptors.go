package usbhost

import (
	"fmt"
	"sort"

	"github.com/google/gousb"
	"github.com/moffa90/go-fastboot/transport"
)

func isFastbootSetting(s gousb.InterfaceSetting) bool {
	return uint8(s.Class) == transport.FastbootClass &&
		uint8(s.SubClass) == transport.FastbootSubClass &&
		uint8(s.Protocol) == transport.FastbootProtocol
}

// hasFastboot reports whether any configuration of desc exposes a fastboot interface.
func hasFastboot(desc *gousb.DeviceDesc) bool {
	if desc == nil {
		return false
	}
	for _, cfg := range desc.Configs {
		for _, intf := range cfg.Interfaces {
			for _, alt := range intf.AltSettings {
				if isFastbootSetting(alt) {
					return true
				}
			}
		}
	}
	return false
}

// configDescs maps gousb descriptors to transport descriptors. Configurations
// and interfaces are ordered by number, endpoints by address. Only the default
// alternate setting of each interface is described.
func configDescs(desc *gousb.DeviceDesc) []transport.ConfigDesc {
	if desc == nil {
		return nil
	}

	numbers := make([]int, 0, len(desc.Configs))
	for n := range desc.Configs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	configs := make([]transport.ConfigDesc, 0, len(numbers))
	for _, n := range numbers {
		cfg := desc.Configs[n]
		out := transport.ConfigDesc{Number: cfg.Number}

		for _, intf := range cfg.Interfaces {
			if len(intf.AltSettings) == 0 {
				continue
			}
			out.Interfaces = append(out.Interfaces, interfaceDesc(intf.AltSettings[0]))
		}
		sort.Slice(out.Interfaces, func(i, j int) bool {
			return out.Interfaces[i].Number < out.Interfaces[j].Number
		})

		configs = append(configs, out)
	}
	return configs
}

func interfaceDesc(s gousb.InterfaceSetting) transport.InterfaceDesc {
	out := transport.InterfaceDesc{
		Number:   s.Number,
		Class:    uint8(s.Class),
		SubClass: uint8(s.SubClass),
		Protocol: uint8(s.Protocol),
	}
	for addr, ep := range s.Endpoints {
		out.Endpoints = append(out.Endpoints, transport.EndpointDesc{
			Address:       uint8(addr),
			MaxPacketSize: ep.MaxPacketSize,
		})
	}
	sort.Slice(out.Endpoints, func(i, j int) bool {
		return out.Endpoints[i].Address < out.Endpoints[j].Address
	})
	return out
}

// busAddress identifies a device position on the bus for polling.
func busAddress(desc *gousb.DeviceDesc) string {
	return fmt.Sprintf("%03d/%03d", desc.Bus, desc.Address)
}
