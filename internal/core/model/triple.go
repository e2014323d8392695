package model

// Triple is the single record shape that flows from extractors into the store.
type Triple struct {
	Subject    string  `json:"subject"`
	Relation   string  `json:"relation"`
	Object     string  `json:"object"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// ExtractedTriples is the JSON envelope the extraction prompt asks the LLM for.
type ExtractedTriples struct {
	Triples []Triple `json:"triples"`
}

// Chunk is a unit of text handed to an extractor together with its provenance id.
type Chunk struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
}
