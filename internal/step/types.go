package step

// Description is one instruction inside a step group.
type Description struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
}

// Group is a titled run of cooking instructions. Within a group description
// start times are non-decreasing; across a merged sequence group start times
// are strictly increasing.
type Group struct {
	Subtitle     string        `json:"subtitle"`
	Start        float64       `json:"start"`
	Descriptions []Description `json:"descriptions"`
}
