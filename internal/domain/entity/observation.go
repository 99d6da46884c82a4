package entity

// Observation is one snapshot of the environment. Handles in Text are only
// valid for the observation that produced them.
type Observation struct {
	Text  string `json:"text"`
	URL   string `json:"url,omitempty"`
	Image []byte `json:"image,omitempty"`
}

func (o Observation) WithoutImage() Observation {
	o.Image = nil
	return o
}

// StepResult mirrors the gym-style step tuple of the environment.
type StepResult struct {
	Observation *Observation
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        map[string]any
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
