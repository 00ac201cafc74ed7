package build

import (
	"fmt"
	"strings"

	mdast "github.com/gomarkdown/markdown/ast"
	mdparser "github.com/gomarkdown/markdown/parser"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	_ Excerpter = GoMarkdownExcerpter{}
	_ Excerpter = GoldmarkExcerpter{}
)

type (
	// Excerpter flattens a markdown fragment to the concatenation of its text and inline code,
	// in document order and without separators.
	Excerpter interface {
		Excerpt(md []byte) string
	}

	GoMarkdownExcerpter struct {
	}

	GoldmarkExcerpter struct {
		md goldmark.Markdown
	}
)

func NewExcerpter(engine string) (Excerpter, error) {
	switch engine {
	case "", ExcerptEngineGoMarkdown:
		return GoMarkdownExcerpter{}, nil
	case ExcerptEngineGoldmark:
		return NewGoldmarkExcerpter(), nil
	default:
		return nil, fmt.Errorf("unknown excerpt engine %q: %w", engine, ErrInvalidConfig)
	}
}

func (e GoMarkdownExcerpter) Excerpt(md []byte) string {
	if len(md) == 0 {
		return ""
	}
	// CommonMark only: extension syntax such as ~~x~~ or {#id} stays literal text
	extensions := mdparser.FencedCode | mdparser.NoIntraEmphasis | mdparser.SpaceHeadings | mdparser.NoEmptyLineBeforeBlock
	// parsers are single use
	p := mdparser.NewWithExtensions(extensions)
	doc := p.Parse(append([]byte(nil), md...))

	var sb strings.Builder
	mdast.WalkFunc(doc, func(node mdast.Node, entering bool) mdast.WalkStatus {
		if !entering {
			return mdast.GoToNext
		}
		switch n := node.(type) {
		case *mdast.Image:
			// alt is an attribute, not text
			return mdast.SkipChildren
		case *mdast.Text:
			sb.Write(n.Literal)
		case *mdast.Code:
			sb.Write(n.Literal)
		}
		return mdast.GoToNext
	})
	return sb.String()
}

func NewGoldmarkExcerpter() GoldmarkExcerpter {
	return GoldmarkExcerpter{md: goldmark.New()}
}

func (e GoldmarkExcerpter) Excerpt(md []byte) string {
	if len(md) == 0 {
		return ""
	}
	engine := e.md
	if engine == nil {
		engine = goldmark.New()
	}
	doc := engine.Parser().Parse(text.NewReader(md))

	var sb strings.Builder
	_ = gmast.Walk(doc, func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *gmast.Image:
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			v := n.Segment.Value(md)
			// code span content is made of Text children too and stays raw
			if p := n.Parent(); p == nil || p.Kind() != gmast.KindCodeSpan {
				v = util.ResolveNumericReferences(util.ResolveEntityNames(util.UnescapePunctuations(v)))
			}
			sb.Write(v)
			if n.SoftLineBreak() {
				sb.WriteByte('\n')
			}
		case *gmast.String:
			sb.Write(n.Value)
		case *gmast.AutoLink:
			sb.Write(n.Label(md))
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
