// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Page holds the extracted content of one physical PDF page. Pages are
// produced in document order and discarded once their questions have been
// folded into records.
type Page struct {
	// Index is the zero-based page ordinal.
	Index int

	// Text is the flattened page text as the PDF backend yields it.
	// No layout reconstruction is attempted.
	Text string

	// Images lists the embedded raster images of the page in the order
	// the backend enumerates them. That order typically follows object
	// numbering, not visual top-to-bottom position.
	Images []PageImage
}

// PageImage is one embedded image extracted from a page.
type PageImage struct {
	// Ordinal is the zero-based position of the image within its page.
	Ordinal int

	// Data is the raw image payload.
	Data []byte

	// Ext is the file extension reported by the PDF backend ("png",
	// "jpg", ...). Empty when the backend could not determine it.
	Ext string
}

// Option is one labeled answer choice within a question block.
type Option struct {
	// Label is the option letter, e.g. "A".
	Label string `json:"label" yaml:"label"`

	// Text is the cleaned option text.
	Text string `json:"text" yaml:"text"`
}

// QuestionBlock is the segmented text span for one parsed question
// number: the stem plus zero or more labeled options. Numbers are not
// guaranteed contiguous or unique across pages.
type QuestionBlock struct {
	// Number is the question number parsed from the numbering pattern.
	Number int

	// Stem is the cleaned question prompt with numbering and option
	// markers stripped.
	Stem string

	// Options holds the recognized options in parse order.
	Options []Option

	// PageIndex is the zero-based index of the page the block came from.
	PageIndex int
}

// QuestionRecord is the per-question output unit serialized to the
// structured JSON document. Image path lists are always present, never
// null, and use forward-slash relative paths.
type QuestionRecord struct {
	QuestionNumber int      `json:"question_number" yaml:"question_number"`
	Question       string   `json:"question" yaml:"question"`
	QuestionImages []string `json:"question_images" yaml:"question_images"`
	OptionImages   []string `json:"option_images" yaml:"option_images"`
}

// WarningKind names a non-fatal condition encountered during a run.
type WarningKind string

const (
	// WarnSegmentation marks a page that yielded no question matches or
	// a span with malformed structure.
	WarnSegmentation WarningKind = "segmentation"

	// WarnClassification marks an image count that does not line up with
	// the option count on a page, or an image that could not be
	// associated with any question.
	WarnClassification WarningKind = "classification"
)

// Warning is a non-fatal diagnostic surfaced in the end-of-run summary.
// Fatal conditions (unreadable document, write failures) abort the run
// as errors instead.
type Warning struct {
	Kind WarningKind `json:"kind" yaml:"kind"`

	// Page is the zero-based index of the page the warning refers to.
	Page int `json:"page" yaml:"page"`

	Message string `json:"message" yaml:"message"`
}
