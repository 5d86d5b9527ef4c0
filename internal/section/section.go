package section

// HeaderType distinguishes plain key/value headers from headers whose value is
// a list of nested sections.
type HeaderType int

const (
	HeaderKV HeaderType = iota
	HeaderSection
)

// Section is a single `-- ...:` block of a document.
type Section struct {
	Name        string
	Kind        string // empty when the section line carries no kind annotation
	Caption     *string
	Headers     []*Header
	Body        *Body
	Line        int
	SubSections []*Section

	closed bool
}

// Header is one `[kind] key[ if { cond }]: value` line, or a `-- parent.key:`
// sub-section lifted into a header.
type Header struct {
	Type      HeaderType
	Key       string
	Kind      string
	Condition string // raw condition text without braces, empty when absent
	Value     *string
	Sections  []*Section
	Line      int
}

// Body is the free-form text that follows the headers.
type Body struct {
	Line  int
	Value string
}

// CaptionValue returns the caption or an empty string.
func (s *Section) CaptionValue() string {
	if s.Caption == nil {
		return ""
	}
	return *s.Caption
}

// BodyValue returns the body text or an empty string.
func (s *Section) BodyValue() string {
	if s.Body == nil {
		return ""
	}
	return s.Body.Value
}

// Header returns the first header with the given key.
func (s *Section) Header(key string) (*Header, bool) {
	for _, h := range s.Headers {
		if h.Key == key {
			return h, true
		}
	}
	return nil, false
}

// ValueString returns the header value or an empty string.
func (h *Header) ValueString() string {
	if h.Value == nil {
		return ""
	}
	return *h.Value
}
