package artifacts

// Transcript is the persisted output of the transcript stage.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	// Unavailable marks a permanent "no captions exist" answer from the
	// platform so the item is not retried forever.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Summary is the persisted output of the summary stage.
type Summary struct {
	Summary string `json:"summary"`
}

// Topic is one ordered entry of the topic extraction stage.
type Topic struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// TopicList is the persisted output of the topics stage.
type TopicList struct {
	Topics []Topic `json:"topics"`
}

// ContentBlock is one ordered narration block of the segment-content stage.
type ContentBlock struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// ContentList is the persisted output of the segment-content stage.
type ContentList struct {
	Blocks []ContentBlock `json:"blocks"`
}

// Segment is a timed narration slice needing an illustrative asset.
// Asset, once set, is only cleared by explicit reset tooling.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	Phrase   string  `json:"phrase,omitempty"`
	Asset    string  `json:"asset,omitempty"`
}

// SegmentList is the segmented narration with visual-search phrases and
// resolved asset references.
type SegmentList struct {
	Segments []Segment `json:"segments"`
}

// MissingReport lists phrases the soft matching pass could not satisfy; it is
// consumed by the external asset-acquisition workflow.
type MissingReport struct {
	Phrases []string `json:"phrases"`
	Count   int      `json:"count"`
}

// FailureReport lists phrases the mandatory pass could not satisfy because
// every nearby asset was reuse-capped.
type FailureReport struct {
	Phrases []string `json:"phrases"`
}
