package plist

// Session is a transient edit of a single document field. It holds the
// original value for cancel and a mutable text buffer; the document is only
// touched on a successful Commit.
type Session struct {
	field    Field
	original string
	buffer   []rune
}

// Begin opens an edit session for f, seeding the buffer with the field's
// current value.
func Begin(doc *Document, f Field) *Session {
	orig := doc.FieldValue(f)
	return &Session{
		field:    f,
		original: orig,
		buffer:   []rune(orig),
	}
}

// Field returns the field being edited.
func (s *Session) Field() Field { return s.field }

// Original returns the value the field had when the session began.
func (s *Session) Original() string { return s.original }

// Buffer returns the current buffer contents.
func (s *Session) Buffer() string { return string(s.buffer) }

// TypeRune appends a character to the buffer.
func (s *Session) TypeRune(r rune) {
	s.buffer = append(s.buffer, r)
}

// TypeNewline appends a line break, used by multi-line list fields.
func (s *Session) TypeNewline() {
	s.buffer = append(s.buffer, '\n')
}

// Backspace removes the last character from the buffer.
func (s *Session) Backspace() {
	if len(s.buffer) > 0 {
		s.buffer = s.buffer[:len(s.buffer)-1]
	}
}

// Commit coerces the buffer into the field and writes it to doc. On a
// coercion failure the document is unchanged and the session remains valid,
// so the caller can surface the error and keep editing.
func (s *Session) Commit(doc *Document) error {
	return doc.SetField(s.field, string(s.buffer))
}
