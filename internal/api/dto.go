package api

// ManifestResp summarises a decoded manifest.
type ManifestResp struct {
	Path    string      `json:"path"`
	RefDir  string      `json:"ref_dir"`
	ReadID  string      `json:"read_id"`
	Entries []EntryResp `json:"entries"`
	Errors  []string    `json:"errors,omitempty"`
}

// EntryResp is one manifest line.
type EntryResp struct {
	Tag        string `json:"tag"`
	Unit       int    `json:"unit"`
	Fname      string `json:"fname"`
	Mode       string `json:"mode,omitempty"`
	IsData     bool   `json:"is_data"`
	Recognized bool   `json:"recognized"`
	Line       int    `json:"line"`
}

// PackageResp describes one decoded package.
type PackageResp struct {
	Tag     string         `json:"tag"`
	Comment []string       `json:"comment,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Arrays  []string       `json:"arrays"`
}

// ArrayResp is one decoded array with its values.
type ArrayResp struct {
	Tag    string    `json:"tag"`
	Name   string    `json:"name"`
	Elem   string    `json:"elem"`
	Shape  []int     `json:"shape"`
	Floats []float64 `json:"floats,omitempty"`
	Ints   []int32   `json:"ints,omitempty"`
}

// ResponseError is the error body wrapper.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
