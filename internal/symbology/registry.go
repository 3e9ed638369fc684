package symbology

// Rule describes how a symbology consumes text.
type Rule struct {
	Symbology Symbology `json:"symbology" yaml:"symbology"`
	Label     string    `json:"label" yaml:"label"`
	Charset   Charset   `json:"charset" yaml:"charset"`
	// MaxBytes is the payload capacity; 0 means no ceiling.
	MaxBytes int `json:"max_bytes" yaml:"max_bytes"`
	// Lengths restricts the payload to one of the listed rune counts (EAN).
	Lengths    []int `json:"lengths,omitempty" yaml:"lengths,omitempty"`
	Dimensions int   `json:"dimensions" yaml:"dimensions"`
	// Local is false for symbologies only available through the remote service.
	Local       bool   `json:"local" yaml:"local"`
	Implemented bool   `json:"implemented" yaml:"implemented"`
	RemoteTag   string `json:"remote_tag,omitempty" yaml:"remote_tag,omitempty"`
}

// Selectable reports whether the symbology may be offered to end users of the
// local renderer.
func (r Rule) Selectable() bool {
	return r.Implemented && r.Local
}

// Registry holds one Rule per symbology. A Registry is immutable once built;
// the With* methods return modified copies, so a Registry can be shared
// between goroutines.
type Registry struct {
	rules map[Symbology]Rule
}

var defaultRegistry = NewRegistry()

// DefaultPDF417SecurityLevel is the PDF417 error correction level the
// default capacity is computed for.
const DefaultPDF417SecurityLevel = 2

// PDF417 symbols hold at most 30 rows of 30 data columns; one codeword is
// the length descriptor.
const pdf417MaxCodewords = 30*30 - 1

// PDF417Capacity returns the byte ceiling for PDF417 at securityLevel (0-8).
// Printable ASCII text compaction never needs more than one codeword per
// byte plus one, so every payload within the ceiling fits the symbol.
// Levels outside 0-8 report 0.
func PDF417Capacity(securityLevel int) int {
	if securityLevel < 0 || securityLevel > 8 {
		return 0
	}
	return pdf417MaxCodewords - (1 << (securityLevel + 1)) - 1
}

// NewRegistry returns a registry populated with the default rules.
func NewRegistry() *Registry {
	return &Registry{rules: map[Symbology]Rule{
		Code128: {
			Symbology: Code128, Label: "Code128", Charset: PrintableASCII, MaxBytes: 80,
			Dimensions: 1, Local: true, Implemented: true,
		},
		QR: {
			Symbology: QR, Label: "QR Code", Charset: PrintableASCII, MaxBytes: 2331,
			Dimensions: 2, Local: true, Implemented: true,
		},
		Aztec: {
			Symbology: Aztec, Label: "Aztec", Charset: PrintableASCII, MaxBytes: 1914,
			Dimensions: 2, Local: true, Implemented: true,
		},
		PDF417: {
			Symbology: PDF417, Label: "PDF417", Charset: PrintableASCII, MaxBytes: PDF417Capacity(DefaultPDF417SecurityLevel),
			Dimensions: 2, Local: true, Implemented: true,
		},
		// Reserved for capacity-parameterized generation (rows, columns, ECC).
		DataMatrix: {
			Symbology: DataMatrix, Label: "Data Matrix", Charset: PrintableASCII, MaxBytes: 1556,
			Dimensions: 2, Local: true, Implemented: false,
		},
		EAN8: {
			Symbology: EAN8, Label: "EAN-8", Charset: Digits, MaxBytes: 8, Lengths: []int{7, 8},
			Dimensions: 1, Local: false, Implemented: true, RemoteTag: "ean8",
		},
		EAN13: {
			Symbology: EAN13, Label: "EAN-13", Charset: Digits, MaxBytes: 13, Lengths: []int{12, 13},
			Dimensions: 1, Local: false, Implemented: true, RemoteTag: "ean13",
		},
	}}
}

// Lookup returns the default rule for s.
func Lookup(s Symbology) Rule {
	return defaultRegistry.Rule(s)
}

// Rule returns the rule for s. Values outside the enumeration resolve to an
// unimplemented rule rather than an error.
func (r *Registry) Rule(s Symbology) Rule {
	if rule, ok := r.rules[s]; ok {
		return rule
	}
	return Rule{Symbology: Unknown, Label: "Unknown", Implemented: false}
}

// Rules returns every rule in declaration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, s := range All() {
		out = append(out, r.Rule(s))
	}
	return out
}

// Selectable returns the rules end users may pick for local rendering.
func (r *Registry) Selectable() []Rule {
	var out []Rule
	for _, rule := range r.Rules() {
		if rule.Selectable() {
			out = append(out, rule)
		}
	}
	return out
}

// RemoteTags returns the symbologies reachable through the remote service,
// keyed by their query tag.
func (r *Registry) RemoteTags() map[string]Symbology {
	out := make(map[string]Symbology)
	for _, rule := range r.Rules() {
		if rule.RemoteTag != "" {
			out[rule.RemoteTag] = rule.Symbology
		}
	}
	return out
}

// WithCharset returns a copy of the registry using c for s.
func (r *Registry) WithCharset(s Symbology, c Charset) *Registry {
	return r.with(s, func(rule *Rule) { rule.Charset = c })
}

// WithCapacity returns a copy of the registry with a new byte ceiling for s.
func (r *Registry) WithCapacity(s Symbology, maxBytes int) *Registry {
	return r.with(s, func(rule *Rule) { rule.MaxBytes = maxBytes })
}

func (r *Registry) with(s Symbology, mutate func(*Rule)) *Registry {
	out := &Registry{rules: make(map[Symbology]Rule, len(r.rules))}
	for k, v := range r.rules {
		out.rules[k] = v
	}
	if rule, ok := out.rules[s]; ok {
		mutate(&rule)
		out.rules[s] = rule
	}
	return out
}
