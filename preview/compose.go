// Package preview turns extracted HTML/CSS into a single self-contained
// document and hands it to a render surface.
package preview

import (
	"strings"

	"sketch2web/generator"
)

// Defaults is the first-load placeholder shown before any generation.
type Defaults struct {
	HTML string
	CSS  string
}

// DefaultDefaults is the built-in "Hello, World!" page.
var DefaultDefaults = Defaults{
	HTML: "<h1>Hello, World!</h1>",
	CSS: `h1 {
    color: black;
    text-align: center;
    font-family: Arial, sans-serif;
}`,
}

// Document returns the placeholder page.
func (d Defaults) Document() string {
	return Compose(d.HTML, d.CSS)
}

// Compose embeds css in a <style> block and html in the body. Inputs are
// inserted verbatim; the output is a pure function of them.
func Compose(html, css string) string {
	var sb strings.Builder
	sb.Grow(len(html) + len(css) + 72)
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<style>")
	sb.WriteString(css)
	sb.WriteString("</style>\n</head>\n<body>")
	sb.WriteString(html)
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

// Render 根据 session 状态选择文档：从未生成时返回默认页；
// 一旦生成过，即使提取为空也使用空字符串套模板，而不是回退到默认页。
func Render(state generator.State, code generator.ExtractedCode, defaults Defaults) string {
	if state == generator.StateEmpty {
		return defaults.Document()
	}
	return Compose(code.HTML, code.CSS)
}

// RenderSession is Render for a session's current state.
func RenderSession(sess *generator.Session, defaults Defaults) string {
	if sess == nil {
		return defaults.Document()
	}
	return Render(sess.State(), sess.Code, defaults)
}
