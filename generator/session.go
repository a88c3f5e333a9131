package generator

import "time"

// Session 持有一次交互会话的生成结果。
// 会话开始时创建，只在一次生成成功完成后更新，渲染时读取。
type Session struct {
	ID        string        `json:"id"`
	Code      ExtractedCode `json:"code"`
	Generated bool          `json:"generated"`
	Notes     string        `json:"notes,omitempty"`
	History   []Turn        `json:"history,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewSession 创建 session，尚未生成代码。
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// State derives the three-valued session state.
func (s *Session) State() State {
	switch {
	case !s.Generated:
		return StateEmpty
	case s.Code.Empty():
		return StateExtractionMiss
	default:
		return StateGenerated
	}
}

// Apply 用一次完成的生成覆盖（不合并）当前代码，并记录 turn。
func (s *Session) Apply(turn Turn, notes string) {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	s.Code = turn.Code
	s.Notes = notes
	s.Generated = true
	s.UpdatedAt = turn.CreatedAt
	s.History = append(s.History, turn)
}
