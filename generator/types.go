package generator

import "time"

// ImageSource 标记图片来自画布还是上传文件。
type ImageSource string

const (
	SourceCanvas ImageSource = "canvas"
	SourceUpload ImageSource = "upload"
)

// GenerationRequest is one user action: an optional sketch plus instructions.
type GenerationRequest struct {
	Image        []byte
	Source       ImageSource
	Instructions string
	// Provider 为空时使用 Registry 的默认 provider。
	Provider string
}

// HasImage reports whether the request carries a sketch.
func (r GenerationRequest) HasImage() bool {
	return len(r.Image) > 0
}

// ExtractedCode 是从模型回复中拆出的 HTML/CSS 片段。
// 两个字段要么是去掉首尾空白的非空片段，要么是空字符串。
type ExtractedCode struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
}

// Empty reports whether nothing was extracted.
func (c ExtractedCode) Empty() bool {
	return c.HTML == "" && c.CSS == ""
}

// State 是 session 的三态：未生成、生成且有内容、生成但未提取到代码。
type State int

const (
	StateEmpty State = iota
	StateGenerated
	StateExtractionMiss
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateGenerated:
		return "generated"
	case StateExtractionMiss:
		return "extraction_miss"
	default:
		return "unknown"
	}
}

// MarshalText lets State appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "generated":
		*s = StateGenerated
	case "extraction_miss":
		*s = StateExtractionMiss
	default:
		*s = StateEmpty
	}
	return nil
}

// Turn 记录一次完成的生成。
type Turn struct {
	Instructions string        `json:"instructions"`
	Provider     string        `json:"provider"`
	Source       ImageSource   `json:"source,omitempty"`
	Code         ExtractedCode `json:"code"`
	CreatedAt    time.Time     `json:"created_at"`
}
