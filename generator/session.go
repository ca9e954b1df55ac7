package generator

import (
	"context"
	"time"
)

// Session 保存一次交互的表单输入和最近一次结果，对应界面上的 "clear all"。
type Session struct {
	ID          string
	Request     Request
	Result      Result
	GeneratedAt time.Time
	agent       *Agent
}

// NewSession 创建 session，尚未生成内容。
func NewSession(id string, agent *Agent) *Session {
	return &Session{ID: id, agent: agent}
}

// Generate stores req and, on success, its result. A failed call leaves the previous result cleared.
func (s *Session) Generate(ctx context.Context, req Request) (Result, error) {
	req = req.Normalized()
	s.Request = req
	s.Result = Result{}
	res, err := s.agent.Generate(ctx, req)
	if err != nil {
		return Result{}, err
	}
	s.Result = res
	s.GeneratedAt = time.Now()
	return res, nil
}

// Reset clears every input and output back to empty.
func (s *Session) Reset() {
	s.Request = Request{}
	s.Result = Result{}
	s.GeneratedAt = time.Time{}
}

// HasResult reports whether the last Generate succeeded and nothing reset it since.
func (s *Session) HasResult() bool {
	return !s.GeneratedAt.IsZero()
}
