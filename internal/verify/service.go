package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/SWMChefTory/ai-recipe-summary/internal/apperr"
	"github.com/SWMChefTory/ai-recipe-summary/internal/llm"
	"github.com/SWMChefTory/ai-recipe-summary/internal/prompt"
)

const (
	pollInterval = 2 * time.Second
	maxPolls     = 150

	stateActive = "ACTIVE"
	stateFailed = "FAILED"
)

const verifyPromptTemplate = `Watch the attached video and decide whether it demonstrates cooking a dish that a viewer could follow as a recipe.
Answer in language "{{ lang_code }}" and call emit_verdict.`

var verifyFunction = llm.FunctionSchema{
	Name:        "emit_verdict",
	Description: "Report whether the video is a cooking recipe.",
	Parameters: json.RawMessage(`{
		"type": "object",
		"properties": {
			"is_recipe": {"type": "boolean"},
			"confidence": {"type": "number"},
			"reason": {"type": "string"}
		},
		"required": ["is_recipe", "confidence", "reason"]
	}`),
}

// Verdict is the model's judgement on an uploaded video.
type Verdict struct {
	IsRecipe   bool
	Confidence float64
	Reason     string
}

// Service uploads a video to the model file store, waits for it to become
// readable, and asks the model whether it is a recipe. On success the file
// reference stays alive so later calls can reuse it.
type Service struct {
	relay  UploadRelay
	llm    llm.Client
	logger *slog.Logger
	sleep  func(time.Duration)
}

func NewService(relay UploadRelay, client llm.Client, logger *slog.Logger) *Service {
	return &Service{relay: relay, llm: client, logger: logger, sleep: time.Sleep}
}

// Verify runs the full workflow and returns the uploaded file's reference
// together with the model's verdict.
func (s *Service) Verify(ctx context.Context, videoURL, langCode string) (FileRef, Verdict, error) {
	ref, err := s.relay.Upload(ctx, videoURL)
	if err != nil {
		return FileRef{}, Verdict{}, apperr.ErrVerifyUpload.WithCause(err)
	}
	s.logger.Info("video uploaded", "file_name", ref.FileName)

	if err := s.awaitActive(ctx, ref.FileName); err != nil {
		return FileRef{}, Verdict{}, err
	}

	verdict, err := s.judge(ctx, ref, langCode)
	if err != nil {
		return FileRef{}, Verdict{}, err
	}
	if !verdict.IsRecipe {
		if err := s.relay.DeleteFile(ctx, ref.FileName); err != nil {
			s.logger.Warn("deleting rejected video failed", "file_name", ref.FileName, "error", err)
		}
		return FileRef{}, verdict, apperr.ErrVerifyNotRecipe
	}
	return ref, verdict, nil
}

// awaitActive polls the file store until the upload finishes processing.
func (s *Service) awaitActive(ctx context.Context, fileName string) error {
	for attempt := 0; attempt < maxPolls; attempt++ {
		if attempt > 0 {
			s.sleep(pollInterval)
		}
		if err := ctx.Err(); err != nil {
			return apperr.ErrVerifyTimeout.WithCause(err)
		}

		state, err := s.relay.FileStatus(ctx, fileName)
		if err != nil {
			return apperr.ErrVerifyFailed.WithCause(err)
		}
		switch state {
		case stateActive:
			return nil
		case stateFailed:
			return apperr.ErrVerifyFailed
		}
	}
	return apperr.ErrVerifyTimeout
}

func (s *Service) judge(ctx context.Context, ref FileRef, langCode string) (Verdict, error) {
	args, err := s.llm.Invoke(ctx, llm.Request{
		System:    "You must call the provided tool only.",
		Prompt:    prompt.Render(verifyPromptTemplate, map[string]string{"lang_code": langCode}),
		FileURI:   ref.FileURI,
		MIMEType:  ref.MIMEType,
		Function:  verifyFunction,
		MaxTokens: 1000,
	})
	if err != nil {
		return Verdict{}, apperr.ErrVerifyFailed.WithCause(err)
	}

	isRecipe, ok := args["is_recipe"].(bool)
	if !ok {
		return Verdict{}, apperr.ErrVerifyNoCall
	}
	verdict := Verdict{IsRecipe: isRecipe}
	if confidence, ok := args["confidence"].(float64); ok {
		verdict.Confidence = confidence
	}
	if reason, ok := args["reason"].(string); ok {
		verdict.Reason = reason
	}
	return verdict, nil
}
