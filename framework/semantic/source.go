// Package semantic binds symbols to their document text and recovers the
// structure the analyzer only approximates: true boundaries, declaration and
// body sub-ranges, attached comments, specifier predicates, scope strings and
// access regions. Every scan runs over masked text, so tokens inside
// comments, literals and nested brackets never count.
package semantic

import (
	"sort"
	"sync"

	"github.com/lexcodex/cppsynth/framework/document"
	"github.com/lexcodex/cppsynth/framework/mask"
)

// Source holds the masked views of one document. It is shared by every
// refined symbol built over the same document and is safe for concurrent use.
type Source struct {
	doc *document.Document

	once       sync.Once
	nonSource  string
	structural string
	comments   []mask.Region
}

// NewSource wraps doc. Masking happens on first use.
func NewSource(doc *document.Document) *Source {
	return &Source{doc: doc}
}

// Document returns the wrapped document.
func (s *Source) Document() *document.Document { return s.doc }

func (s *Source) load() {
	s.once.Do(func() {
		text := s.doc.Text()
		s.nonSource = mask.Mask(text, mask.NonSource)
		s.structural = mask.Mask(text, mask.NonSource|mask.AngleBrackets|mask.Parentheses)
		s.comments = mask.Regions(text, mask.Comments)
		sort.Slice(s.comments, func(i, j int) bool { return s.comments[i].Start < s.comments[j].Start })
	})
}

// NonSource returns the text with comments, literals and attributes blanked.
func (s *Source) NonSource() string {
	s.load()
	return s.nonSource
}

// Structural additionally blanks template argument lists and parenthesized
// contents.
func (s *Source) Structural() string {
	s.load()
	return s.structural
}

// commentBefore returns the last comment ending at or before offset.
func (s *Source) commentBefore(offset int) (mask.Region, bool) {
	s.load()
	i := sort.Search(len(s.comments), func(i int) bool { return s.comments[i].End > offset })
	if i == 0 {
		return mask.Region{}, false
	}
	return s.comments[i-1], true
}

// commentAt returns the comment starting exactly at offset.
func (s *Source) commentAt(offset int) (mask.Region, bool) {
	s.load()
	i := sort.Search(len(s.comments), func(i int) bool { return s.comments[i].Start >= offset })
	if i < len(s.comments) && s.comments[i].Start == offset {
		return s.comments[i], true
	}
	return mask.Region{}, false
}

func clampSpan(text string, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if end < start {
		end = start
	}
	return start, end
}

func slice(text string, start, end int) string {
	start, end = clampSpan(text, start, end)
	return text[start:end]
}
