package drill

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const probeSourcePort = 51515

// BuildProbe serializes the IPv4/TCP SYN frame the drill pretends to receive.
// Nothing is sent; the frame only describes the simulated attack vector.
func BuildProbe(srcIP, dstIP string, dstPort uint16) (gopacket.Packet, error) {
	src := net.ParseIP(srcIP).To4()
	if src == nil {
		return nil, fmt.Errorf("invalid probe source %q", srcIP)
	}
	dst := net.ParseIP(dstIP).To4()
	if dst == nil {
		return nil, fmt.Errorf("invalid probe target %q", dstIP)
	}

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src,
		DstIP:    dst,
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(probeSourcePort),
		DstPort: layers.TCPPort(dstPort),
		SYN:     true,
		Seq:     1,
		Window:  1024,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("failed to bind checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, tcp); err != nil {
		return nil, fmt.Errorf("failed to serialize probe: %w", err)
	}

	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeIPv4, gopacket.Default), nil
}

// DescribeProbe summarises a probe as "TCP src:port -> dst:port [SYN] N bytes"
func DescribeProbe(packet gopacket.Packet) string {
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	tcpLayer := packet.Layer(layers.LayerTypeTCP)
	if ipLayer == nil || tcpLayer == nil {
		return ""
	}

	ip, _ := ipLayer.(*layers.IPv4)
	tcp, _ := tcpLayer.(*layers.TCP)

	flags := "none"
	if tcp.SYN {
		flags = "SYN"
	}

	return fmt.Sprintf("TCP %s:%d -> %s:%d [%s] %d bytes",
		ip.SrcIP, uint16(tcp.SrcPort), ip.DstIP, uint16(tcp.DstPort), flags, len(packet.Data()))
}
