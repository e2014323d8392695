package model

type NodeDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type EdgeDTO struct {
	ID       string   `json:"id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Relation string   `json:"relation"`
	Sources  []string `json:"sources"`
}

// Snapshot is the point-in-time graph shape served to the UI.
type Snapshot struct {
	Nodes []NodeDTO `json:"nodes"`
	Edges []EdgeDTO `json:"edges"`
}

// Answer is the QA response shape.
type Answer struct {
	Answer     string   `json:"answer"`
	CitedNodes []string `json:"cited_nodes"`
	CitedEdges []string `json:"cited_edges"`
}

// Community is a cluster of densely connected nodes.
type Community struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Nodes       []string `json:"nodes"`
}
