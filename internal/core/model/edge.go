package model

// Edge is a deduplicated (source, relation, target) assertion. Sources is the
// ordered provenance list; each source id appears once.
type Edge struct {
	ID         string   `json:"id"`
	SourceID   string   `json:"source"`
	TargetID   string   `json:"target"`
	Relation   string   `json:"relation"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
}

func (e Edge) DTO() EdgeDTO {
	sources := make([]string, len(e.Sources))
	copy(sources, e.Sources)
	return EdgeDTO{
		ID:       e.ID,
		Source:   e.SourceID,
		Target:   e.TargetID,
		Relation: e.Relation,
		Sources:  sources,
	}
}
