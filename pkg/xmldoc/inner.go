package xmldoc

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"html"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const (
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

// InnerXML serializes the children of el, without el itself.
func InnerXML(el *etree.Element) string {
	if el == nil || len(el.Child) == 0 {
		return ""
	}
	doc := etree.NewDocument()
	wrap := doc.CreateElement("w")
	for _, tok := range el.Child {
		if c := copyToken(tok); c != nil {
			wrap.AddChild(c)
		}
	}
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	out = strings.TrimPrefix(out, "<w>")
	out = strings.TrimSuffix(out, "</w>")
	if out == "<w/>" {
		return ""
	}
	return out
}

// OuterXML serializes el with its own tag.
func OuterXML(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}

func copyToken(tok etree.Token) etree.Token {
	switch t := tok.(type) {
	case *etree.Element:
		return t.Copy()
	case *etree.CharData:
		if t.IsCData() {
			return etree.NewCData(t.Data)
		}
		return etree.NewText(t.Data)
	case *etree.Comment:
		return etree.NewComment(t.Data)
	}
	return nil
}

// Content returns the value carried by el the way the extractor stores it:
// markup that parses as a single XML element is kept as is, a CDATA section
// is unwrapped, anything else has its entities decoded. The result is
// trimmed.
func Content(el *etree.Element) string {
	return ContentOf(InnerXML(el))
}

// ContentOf applies the Content rules to serialized inner markup.
func ContentOf(inner string) string {
	s := strings.TrimSpace(inner)
	switch {
	case s == "":
		return ""
	case IsFragment(s):
		return s
	case strings.HasPrefix(s, cdataOpen) && strings.HasSuffix(s, cdataClose):
		return strings.TrimSpace(s[len(cdataOpen) : len(s)-len(cdataClose)])
	case json.Valid([]byte(s)):
		// Quotes stay escaped so the JSON text keeps its structure.
		s = strings.ReplaceAll(s, "&quot;", "\x00q")
		s = strings.ReplaceAll(s, "&#34;", "\x00q")
		s = html.UnescapeString(s)
		return strings.TrimSpace(strings.ReplaceAll(s, "\x00q", "&quot;"))
	default:
		return strings.TrimSpace(html.UnescapeString(s))
	}
}

// IsFragment reports whether s is exactly one well-formed element, with
// only whitespace around it.
func IsFragment(s string) bool {
	if !strings.HasPrefix(strings.TrimSpace(s), "<") {
		return false
	}
	dec := xml.NewDecoder(strings.NewReader(s))
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return roots == 1 && depth == 0
		}
		if err != nil {
			return false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return false
			}
		}
	}
}
