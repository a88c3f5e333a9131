package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sketch2web/imaging"
)

// ErrInvalidImage wraps decode and size failures of the submitted sketch.
var ErrInvalidImage = errors.New("invalid image")

// Agent 负责一次完整的生成流程：选择模型、编码图片、调用模型、拆分代码、更新 session。
type Agent struct {
	registry  *Registry
	imageOpts imaging.Options
	logger    *zap.Logger
}

func NewAgent(registry *Registry, imageOpts imaging.Options, logger *zap.Logger) (*Agent, error) {
	if registry == nil {
		return nil, errors.New("llm registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{registry: registry, imageOpts: imageOpts, logger: logger}, nil
}

// Registry exposes the provider registry for listings.
func (a *Agent) Registry() *Registry {
	return a.registry
}

// Generate 执行一次生成。任何错误都会在修改 session 之前返回，
// 因此失败时 session 保持原样；提取不到代码不算错误。
func (a *Agent) Generate(ctx context.Context, sess *Session, req GenerationRequest) (Turn, error) {
	if sess == nil {
		return Turn{}, errors.New("session is required")
	}
	log := a.logger.With(zap.String("session_id", sess.ID))

	client, style, name, err := a.registry.Resolve(req.Provider)
	if err != nil {
		log.Warn("provider unavailable", zap.String("provider", name), zap.Error(err))
		return Turn{}, err
	}

	var imageURI string
	if req.HasImage() {
		jpegData, err := imaging.Optimize(req.Image, a.imageOpts)
		if err != nil {
			return Turn{}, fmt.Errorf("%w: %w", ErrInvalidImage, err)
		}
		imageURI = imaging.DataURI(jpegData)
		log.Debug("image prepared", zap.Int("input_bytes", len(req.Image)), zap.Int("jpeg_bytes", len(jpegData)))
	}

	prompt := BuildPrompt(req, imageURI, style)

	start := time.Now()
	raw, err := client.Complete(ctx, prompt)
	if err != nil {
		log.Error("code generation failed", zap.String("provider", name), zap.Error(err))
		return Turn{}, fmt.Errorf("%w: %s: %w", ErrUpstream, name, err)
	}

	turn := Turn{
		Instructions: req.Instructions,
		Provider:     name,
		Code:         Extract(raw),
		CreatedAt:    time.Now(),
	}
	if req.HasImage() {
		turn.Source = req.Source
	}
	sess.Apply(turn, Notes(raw))

	log.Info("code generated",
		zap.String("provider", name),
		zap.Duration("latency", time.Since(start)),
		zap.Int("raw_chars", len(raw)),
		zap.Int("html_chars", len(turn.Code.HTML)),
		zap.Int("css_chars", len(turn.Code.CSS)),
		zap.Stringer("state", sess.State()),
	)
	return turn, nil
}
