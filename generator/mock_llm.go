package generator

import (
	"context"
	"html"
	"strings"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	// 把用户指令回显成一个最小页面。
	title := mockTitle(prompt.User)
	var sb strings.Builder
	sb.WriteString("Here is a starting point for your sketch.\n\n")
	sb.WriteString("```html\n")
	sb.WriteString("<main class=\"page\">\n  <h1>")
	sb.WriteString(html.EscapeString(title))
	sb.WriteString("</h1>\n  <button class=\"cta\">Get started</button>\n</main>\n")
	sb.WriteString("```\n\n")
	sb.WriteString("```css\n")
	sb.WriteString(".page { font-family: Arial, sans-serif; text-align: center; padding: 2rem; }\n")
	sb.WriteString(".cta { background: #2563eb; color: #fff; border: 0; padding: .6rem 1.2rem; border-radius: 6px; }\n")
	sb.WriteString("```\n")
	return sb.String(), nil
}

// 内联图片风格的 User 以 data URI 开头，只取最后一行，并限制长度。
func mockTitle(user string) string {
	lines := strings.Split(strings.TrimSpace(user), "\n")
	title := strings.TrimSpace(lines[len(lines)-1])
	if r := []rune(title); len(r) > 80 {
		title = string(r[:80])
	}
	if title == "" {
		return "Sketch"
	}
	return title
}
