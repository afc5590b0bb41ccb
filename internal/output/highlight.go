package output

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
)

const highlightStyle = "monokai"

func lexerForPath(path string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func diffLexer() chroma.Lexer {
	lexer := lexers.Get("diff")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlight writes src to w with terminal colors chosen by lexer. When color
// output is disabled, or tokenizing fails, src is written unchanged.
func highlight(w io.Writer, lexer chroma.Lexer, src string) error {
	if color.NoColor {
		_, err := io.WriteString(w, src)
		return err
	}
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		_, err := io.WriteString(w, src)
		return err
	}
	return formatter.Format(w, style, it)
}
