package model

// Population describes the region a trace was fitted for.
type Population struct {
	Name string  `yaml:"name" json:"name"`
	Size float64 `yaml:"size,omitempty" json:"size,omitempty"`
	// Folder overrides the output folder derived from Name.
	Folder string `yaml:"folder,omitempty" json:"folder,omitempty"`
}
