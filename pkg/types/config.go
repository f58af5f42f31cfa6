package types

// PatternConfig holds the tunable heuristics used to segment page text.
// Both fields are character sets, not regular expressions; the segmenter
// compiles them into its matching patterns.
type PatternConfig struct {
	// OptionLabels is the recognized option-label alphabet (default "ABCD").
	// Labels are matched as single uppercase letters at line start.
	OptionLabels string `json:"option_labels" yaml:"option_labels"`

	// Delimiters is the set of characters accepted between a question
	// number or option label and its text (default ".)").
	Delimiters string `json:"delimiters" yaml:"delimiters"`
}

// Defaults used when PatternConfig fields are empty.
const (
	DefaultOptionLabels = "ABCD"
	DefaultDelimiters   = ".)"
)

// WithDefaults returns a copy with empty fields filled in.
func (c PatternConfig) WithDefaults() PatternConfig {
	if c.OptionLabels == "" {
		c.OptionLabels = DefaultOptionLabels
	}
	if c.Delimiters == "" {
		c.Delimiters = DefaultDelimiters
	}
	return c
}

// TextBackend identifies the page-text extraction backend.
type TextBackend string

const (
	// BackendNative extracts text in-process via the pure Go PDF reader.
	BackendNative TextBackend = "native"

	// BackendPdftotext pipes the PDF through a poppler container.
	BackendPdftotext TextBackend = "pdftotext"
)

// ExtractionConfig holds settings for the extraction pipeline.
type ExtractionConfig struct {
	// Patterns are the segmentation heuristics.
	Patterns PatternConfig `json:"patterns" yaml:"patterns"`

	// OutputDir is the base directory for extraction output
	// (default "output"). Image paths in the JSON are relative to it.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ImagesDir is the directory for saved images
	// (default OutputDir/images, created if absent).
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// JSONPath is the structured output file
	// (default OutputDir/questions_structured.json).
	JSONPath string `json:"json_path" yaml:"json_path"`

	// Backend selects the text extraction backend: native or pdftotext.
	Backend TextBackend `json:"backend" yaml:"backend"`

	// Force re-extracts even when the JSON output is newer than the PDF.
	Force bool `json:"force" yaml:"force"`
}

// BankConfig holds settings for the question bank index.
type BankConfig struct {
	// BankDir is the directory holding the SQLite database and exports
	// (default "bank").
	BankDir string `json:"bank_dir" yaml:"bank_dir"`

	// ResultsDir is the directory scanned for questions_structured.json
	// files during ingestion (default "output").
	ResultsDir string `json:"results_dir" yaml:"results_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Bank       BankConfig       `json:"bank" yaml:"bank"`
}
