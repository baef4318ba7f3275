package xmldoc

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Select evaluates a simple absolute or relative path such as
// "/ead/eadheader/eadid/@publicid" or "did/unittitle" against ctx and returns
// the trimmed text of the element or attribute. Steps match local names and
// may carry a 1-based position, as in "c[2]".
func Select(ctx *etree.Element, path string) (string, bool) {
	el, attr, ok := resolve(ctx, path)
	if !ok {
		return "", false
	}
	if attr != "" {
		a := el.SelectAttr(attr)
		if a == nil {
			return "", false
		}
		return strings.TrimSpace(a.Value), true
	}
	return strings.TrimSpace(el.Text()), true
}

// FindAll returns every element matching a relative path from ctx, in
// document order.
func FindAll(ctx *etree.Element, path string) []*etree.Element {
	steps := splitPath(path)
	current := []*etree.Element{ctx}
	for _, step := range steps {
		var next []*etree.Element
		for _, el := range current {
			next = append(next, matchStep(el, step)...)
		}
		current = next
	}
	return current
}

// FindOne returns the first element matching a relative path from ctx.
func FindOne(ctx *etree.Element, path string) *etree.Element {
	all := FindAll(ctx, path)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

func resolve(ctx *etree.Element, path string) (*etree.Element, string, bool) {
	if ctx == nil || path == "" {
		return nil, "", false
	}
	var attr string
	if i := strings.LastIndex(path, "/@"); i >= 0 {
		attr = path[i+2:]
		path = path[:i]
	} else if strings.HasPrefix(path, "@") {
		return ctx, path[1:], true
	}

	all := Query(ctx, path)
	if len(all) == 0 {
		return nil, "", false
	}
	return all[0], attr, true
}

func splitPath(path string) []string {
	var steps []string
	for _, s := range strings.Split(path, "/") {
		if s != "" && s != "." {
			steps = append(steps, s)
		}
	}
	return steps
}

func parseStep(step string) (string, int) {
	if i := strings.IndexByte(step, '['); i > 0 && strings.HasSuffix(step, "]") {
		n, err := strconv.Atoi(step[i+1 : len(step)-1])
		if err == nil && n > 0 {
			return localName(step[:i]), n
		}
	}
	return localName(step), 0
}

func localName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i >= 0 {
		return tag[i+1:]
	}
	return tag
}

func matchStep(el *etree.Element, step string) []*etree.Element {
	tag, pos := parseStep(step)
	var out []*etree.Element
	n := 0
	for _, c := range el.ChildElements() {
		if tag != "*" && c.Tag != tag {
			continue
		}
		n++
		if pos == 0 || pos == n {
			out = append(out, c)
		}
	}
	return out
}

// Query returns the elements matching path from ctx. An absolute path is
// evaluated from the document root.
func Query(ctx *etree.Element, path string) []*etree.Element {
	if ctx == nil {
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		return FindAll(ctx, path)
	}
	steps := splitPath(path)
	if len(steps) == 0 {
		return nil
	}
	root := ctx
	for root.Parent() != nil && root.Parent().Tag != "" {
		root = root.Parent()
	}
	if first, _ := parseStep(steps[0]); root.Tag != first {
		return nil
	}
	return FindAll(root, strings.Join(steps[1:], "/"))
}

// TextContent returns the text of el and its descendants with whitespace
// collapsed.
func TextContent(el *etree.Element) string {
	var b strings.Builder
	stack := []etree.Token{el}
	for len(stack) > 0 {
		tok := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch t := tok.(type) {
		case *etree.Element:
			for i := len(t.Child) - 1; i >= 0; i-- {
				stack = append(stack, t.Child[i])
			}
		case *etree.CharData:
			b.WriteString(t.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
