package style

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

var yamlLexer = newYAMLLexer()

func newYAMLLexer() chroma.Lexer {
	l := lexers.Get("yaml")
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// HighlightYAML colours YAML source with the palette's YAML styles. The plain
// palette returns src unchanged, as does a source the lexer rejects.
func (p *Palette) HighlightYAML(src string) string {
	if p == nil || p.Name == "plain" {
		return src
	}
	iter, err := yamlLexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		st, ok := p.yamlStyle(tok.Type)
		if !ok || strings.TrimSpace(tok.Value) == "" {
			b.WriteString(tok.Value)
			continue
		}
		// Newlines are written bare so the line structure survives.
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(st.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func (p *Palette) yamlStyle(tt chroma.TokenType) (lipgloss.Style, bool) {
	switch {
	case tt == chroma.KeywordConstant:
		return p.YAMLConstant, true
	case tt == chroma.NameTag:
		return p.YAMLKey, true
	case tt == chroma.Literal, tt == chroma.LiteralDate, tt.InSubCategory(chroma.LiteralString):
		return p.YAMLString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return p.YAMLNumber, true
	case tt.InCategory(chroma.Comment):
		return p.YAMLComment, true
	}
	return lipgloss.Style{}, false
}
