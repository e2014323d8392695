package model

// DefaultNodeType is the coarse classification given to nodes created by upserts.
const DefaultNodeType = "entity"

// Node is a canonical entity. Aliases hold every surface string that resolved
// to it in first-seen order; Label is the first of them and never changes.
type Node struct {
	ID      string   `json:"id"`
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Type    string   `json:"type"`
	Aliases []string `json:"aliases"`
}

// DTO projects the node onto the snapshot shape.
func (n Node) DTO() NodeDTO {
	return NodeDTO{ID: n.ID, Label: n.Label, Type: n.Type}
}
