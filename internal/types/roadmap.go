package types

// Roadmap phases in display order
const (
	PhaseBasics       = "Basics"
	PhaseIntermediate = "Intermediate"
	PhaseAdvanced     = "Advanced"
)

// Phases lists the roadmap phases in the order they are shown
var Phases = []string{PhaseBasics, PhaseIntermediate, PhaseAdvanced}

// RoadmapNode is one learning step in a roadmap
type RoadmapNode struct {
	ID          FlexString `json:"id"`
	Label       string     `json:"label"`
	Status      string     `json:"status"`
	Week        FlexString `json:"week"`
	Phase       string     `json:"phase,omitempty"`
	Description string     `json:"description,omitempty"`
}

// PhaseOrDefault returns the node's phase, treating a missing phase as Basics
func (n RoadmapNode) PhaseOrDefault() string {
	if n.Phase == "" {
		return PhaseBasics
	}
	return n.Phase
}

// RoadmapEdge links two nodes by id
type RoadmapEdge struct {
	Source FlexString `json:"source"`
	Target FlexString `json:"target"`
}

// Roadmap is the directed learning graph generated for one profile and job
type Roadmap struct {
	Nodes []RoadmapNode `json:"nodes"`
	Edges []RoadmapEdge `json:"edges"`
}

// NodesInPhase returns the nodes belonging to phase, preserving their order
func (r Roadmap) NodesInPhase(phase string) []RoadmapNode {
	var nodes []RoadmapNode
	for _, node := range r.Nodes {
		if node.PhaseOrDefault() == phase {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
