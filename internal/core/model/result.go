package model

type TripleStatus string

const (
	StatusCreated TripleStatus = "created"
	StatusMerged  TripleStatus = "merged"
	StatusSkipped TripleStatus = "skipped"
)

// TripleResult records what happened to one triple of a batch.
type TripleResult struct {
	Triple Triple       `json:"triple"`
	Status TripleStatus `json:"status"`
	EdgeID string       `json:"edge_id,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// BatchResult aggregates per-triple outcomes in application order.
type BatchResult struct {
	Created int            `json:"created"`
	Merged  int            `json:"merged"`
	Skipped int            `json:"skipped"`
	Items   []TripleResult `json:"items"`
}

func (b *BatchResult) Add(r TripleResult) {
	switch r.Status {
	case StatusCreated:
		b.Created++
	case StatusMerged:
		b.Merged++
	case StatusSkipped:
		b.Skipped++
	}
	b.Items = append(b.Items, r)
}

// Merge appends the items of other in order.
func (b *BatchResult) Merge(other BatchResult) {
	for _, item := range other.Items {
		b.Add(item)
	}
}

// Applied is the number of triples that reached the store.
func (b BatchResult) Applied() int {
	return b.Created + b.Merged
}

// EdgeIDs returns the distinct edges touched by the batch in first-touch order.
func (b BatchResult) EdgeIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, item := range b.Items {
		if item.EdgeID == "" || seen[item.EdgeID] {
			continue
		}
		seen[item.EdgeID] = true
		ids = append(ids, item.EdgeID)
	}
	return ids
}
