package generator

import (
	"regexp"
	"strings"
)

var (
	// 非贪婪匹配到第一个闭合 fence，(?s) 让 . 跨行。
	htmlFenceRe = regexp.MustCompile("(?s)```html\\s*(.*?)```")
	cssFenceRe  = regexp.MustCompile("(?s)```css\\s*(.*?)```")
	anyFenceRe  = regexp.MustCompile("(?s)```.*?```")

	htmlLabelRe = regexp.MustCompile(`(?i)\[HTML\]\s*:`)
	cssLabelRe  = regexp.MustCompile(`(?i)\[CSS\]\s*:`)
	anyLabelRe  = regexp.MustCompile(`(?i)\[(?:HTML|CSS)\]\s*:`)
)

// Extract 把模型回复拆成 HTML 和 CSS。
//
// 每个字段先找 ```html / ```css 代码块，找不到再退回 [HTML]: / [CSS]: 分段格式，
// 两者都没有则为空字符串。HTML 与 CSS 互相独立，只做切分不做校验。
func Extract(raw string) ExtractedCode {
	labeledHTML, labeledCSS := labeledSections(raw)

	html := firstGroup(htmlFenceRe, raw)
	if html == "" {
		html = labeledHTML
	}
	css := firstGroup(cssFenceRe, raw)
	if css == "" {
		css = labeledCSS
	}
	return ExtractedCode{
		HTML: strings.TrimSpace(html),
		CSS:  strings.TrimSpace(css),
	}
}

// Notes returns the prose around the code: fenced blocks are dropped and a
// labeled response is cut at its first tag.
func Notes(raw string) string {
	prose := anyFenceRe.ReplaceAllString(raw, "")
	if loc := anyLabelRe.FindStringIndex(prose); loc != nil {
		prose = prose[:loc[0]]
	}
	return strings.TrimSpace(prose)
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// labeledSections 处理 "[HTML]: ... [CSS]: ..." 格式。
// HTML 取标签之后到 CSS 标签（或结尾）之间的全部内容；CSS 同理。
func labeledSections(raw string) (html, css string) {
	h := htmlLabelRe.FindStringIndex(raw)
	c := cssLabelRe.FindStringIndex(raw)
	if h != nil {
		end := len(raw)
		if c != nil && c[0] >= h[1] {
			end = c[0]
		}
		html = raw[h[1]:end]
	}
	if c != nil {
		end := len(raw)
		if h != nil && h[0] >= c[1] {
			end = h[0]
		}
		css = raw[c[1]:end]
	}
	return html, css
}
