package generator

import (
	"fmt"
	"strings"
)

// PromptStyle 决定图片如何放进消息。
type PromptStyle int

const (
	// PromptStyleImagePart sends the sketch as a separate image_url content part.
	PromptStyleImagePart PromptStyle = iota
	// PromptStyleInline 把图片写成 Markdown 图片（data URI）并要求 [HTML]/[CSS] 分段输出。
	PromptStyleInline
)

const systemPrompt = "You turn UI sketches into a single static web page. " +
	"Reply with one ```html code block containing only the body markup and one ```css code block with the stylesheet. " +
	"Do not reference external stylesheets or scripts."

// Prompt 表示发送给 LLM 的消息。
type Prompt struct {
	System string
	User   string
	// ImageURL 是 data URI，仅 PromptStyleImagePart 使用。
	ImageURL  string
	MaxTokens int
}

// BuildPrompt 根据请求和已编码的图片生成提示词。imageURI 为空表示没有图片。
func BuildPrompt(req GenerationRequest, imageURI string, style PromptStyle) Prompt {
	instructions := strings.TrimSpace(req.Instructions)

	if style == PromptStyleInline {
		var sb strings.Builder
		if imageURI != "" {
			sb.WriteString(fmt.Sprintf("![%s](%s)\n\n", imageAlt(req.Source), imageURI))
		}
		sb.WriteString("Generate HTML and CSS based on this sketch and user request: ")
		sb.WriteString(instructions)
		sb.WriteString(". Give output in the format of [HTML]: <html code> [CSS]: <css code>")
		return Prompt{User: sb.String()}
	}

	user := instructions
	if user == "" {
		user = "Generate HTML and CSS for this sketch."
	}
	return Prompt{
		System:   systemPrompt,
		User:     user,
		ImageURL: imageURI,
	}
}

func imageAlt(src ImageSource) string {
	if src == SourceCanvas {
		return "Canvas Sketch"
	}
	return "Uploaded Sketch"
}
