package model

import "strings"

// Factory builds a fresh Package for one manifest entry.
type Factory func() Package

// Registry maps manifest tags to package factories. Tags are matched
// case-insensitively, as the legacy format allows any case in the
// manifest.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds tag to f, replacing any earlier binding.
func (r *Registry) Register(tag string, f Factory) {
	r.factories[strings.ToUpper(tag)] = f
}

// New builds a package for tag, reporting whether the tag is known.
func (r *Registry) New(tag string) (Package, bool) {
	f, ok := r.factories[strings.ToUpper(tag)]
	if !ok {
		return nil, false
	}
	return f(), true
}

// Tags returns the registered tags in no particular order.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	return tags
}

// stubTags are file types the manifest recognises but carries no decode
// routine for yet. They register as stubs so manifest decoding can skip
// them deliberately instead of flagging them as unknown.
var stubTags = []string{
	// solvers
	"DE4", "GMG", "LMG", "PCG", "SIP", "SOR", "NWT", "SMS",
	// flow
	"MULT", "ZONE", "PVAL", "BCF6", "LPF", "HUF2", "KDEP", "LVDA",
	"UPW", "HFB6", "SWI2",
	// boundary conditions
	"WEL", "DRN", "DRT", "RIV", "GHB", "CHD", "FHB", "EVT", "ETS",
	"LAK", "MNW1", "MNW2", "RES", "SFR", "STR", "UZF", "BFH", "DAF",
	"DAFG",
	// output control
	"OC", "GAGE", "HYD", "LMT6", "MNWI", "LIST",
	// observations
	"OBS", "HOB", "CHOB", "DROB", "DTOB", "GBOB", "RVOB", "STOB",
	// everything else
	"SWR", "IBS", "SUB", "SWT", "CFP", "CRCH", "COC", "CLN", "GNC",
	"GLOBAL", "ADV2", "SEN", "PES", "ASP",
}

// DefaultRegistry returns a registry with every known file type: the full
// decoders plus stubs for the recognised-but-undecoded types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("DIS", func() Package { return &DIS{} })
	r.Register("DISU", func() Package { return &DISU{} })
	r.Register("BAS6", func() Package { return &BAS6{} })
	r.Register("RCH", func() Package { return &RCH{} })
	for _, tag := range stubTags {
		tag := tag
		r.Register(tag, func() Package { return &Stub{tag: tag} })
	}
	return r
}
