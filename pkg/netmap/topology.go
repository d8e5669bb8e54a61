package netmap

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ExclusiveAccount/shastra-shield/pkg/models"
)

// NodeType represents the role of a node in the topology
type NodeType string

const (
	NodeTypeRouter NodeType = "router"
	NodeTypeDevice NodeType = "device"
)

// Node represents a device in the topology
type Node struct {
	ID          string            `json:"id"`
	Type        NodeType          `json:"type"`
	IP          string            `json:"ip"`
	Name        string            `json:"name"`
	DeviceType  models.DeviceType `json:"device_type"`
	Criticality int               `json:"criticality"`
	X           float64           `json:"x,omitempty"` // For visual layout
	Y           float64           `json:"y,omitempty"` // For visual layout
}

// Link represents a connection from a router to a device
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// NetworkMap represents the display topology
type NetworkMap struct {
	Nodes    []Node         `json:"nodes"`
	Links    []Link         `json:"links"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Layout geometry
const (
	layoutRadius  = 300.0
	layoutCenterX = 500.0
	layoutCenterY = 500.0
)

// Build creates the topology for a device registry: every Router-type device
// is a root, and every root links to every non-Router device. The map is for
// display only.
func Build(devices []models.Device) *NetworkMap {
	m := &NetworkMap{
		Nodes:    []Node{},
		Links:    []Link{},
		Metadata: map[string]any{},
	}

	var roots []string
	for _, device := range devices {
		nodeType := NodeTypeDevice
		if device.IsRouter() {
			nodeType = NodeTypeRouter
			roots = append(roots, device.ID)
		}

		m.Nodes = append(m.Nodes, Node{
			ID:          device.ID,
			Type:        nodeType,
			IP:          device.IP,
			Name:        device.Name,
			DeviceType:  device.Type,
			Criticality: device.Criticality,
		})
	}

	for _, root := range roots {
		for _, device := range devices {
			if device.IsRouter() {
				continue
			}
			m.Links = append(m.Links, Link{
				Source: root,
				Target: device.ID,
				Type:   "mesh",
			})
		}
	}

	m.Metadata["device_count"] = len(m.Nodes)
	m.Metadata["router_count"] = len(roots)

	m.applyLayout()
	return m
}

// Roots returns the router nodes
func (m *NetworkMap) Roots() []Node {
	var roots []Node
	for _, n := range m.Nodes {
		if n.Type == NodeTypeRouter {
			roots = append(roots, n)
		}
	}
	return roots
}

// ExportJSON exports the network map as JSON
func (m *NetworkMap) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// DOT renders the map in Graphviz DOT syntax with the dashboard palette
func (m *NetworkMap) DOT() string {
	var b strings.Builder

	b.WriteString("digraph {\n")
	b.WriteString("\tbgcolor=\"transparent\" fontcolor=\"white\"\n")
	for _, n := range m.Nodes {
		if n.Type == NodeTypeRouter {
			fmt.Fprintf(&b, "\t%q [label=%q color=\"#f97316\" fontcolor=\"#f97316\" style=\"bold\"]\n", n.ID, n.Name)
			continue
		}
		fmt.Fprintf(&b, "\t%q [label=%q color=\"#64748b\" fontcolor=\"white\"]\n", n.ID, n.Name)
	}
	for _, l := range m.Links {
		fmt.Fprintf(&b, "\t%q -> %q [color=\"#f9731633\"]\n", l.Source, l.Target)
	}
	b.WriteString("}\n")

	return b.String()
}

// applyLayout places routers at the centre and other nodes on a circle around them
func (m *NetworkMap) applyLayout() {
	var ring []int
	for i := range m.Nodes {
		if m.Nodes[i].Type == NodeTypeRouter {
			m.Nodes[i].X = layoutCenterX
			m.Nodes[i].Y = layoutCenterY
			continue
		}
		ring = append(ring, i)
	}

	if len(ring) == 0 {
		return
	}

	step := 2 * math.Pi / float64(len(ring))
	for k, i := range ring {
		angle := float64(k) * step
		m.Nodes[i].X = layoutCenterX + layoutRadius*math.Cos(angle)
		m.Nodes[i].Y = layoutCenterY + layoutRadius*math.Sin(angle)
	}
}
