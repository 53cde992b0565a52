package apperr

import "net/http"

// Stable error codes, one block per feature area. Codes are part of the API
// contract; messages may change, codes may not.
var (
	// Caption acquisition and validation.
	ErrCaptionNotFound       = New("CAPTION_001", "no caption track exists for this video", http.StatusNotFound)
	ErrCaptionDownloadFailed = New("CAPTION_002", "caption download failed", http.StatusBadGateway)
	ErrCaptionExtractFailed  = New("CAPTION_003", "caption extraction failed", http.StatusBadGateway)
	ErrCaptionNotRecipe      = New("CAPTION_004", "captions do not describe a recipe", http.StatusBadRequest)
	ErrCaptionValidateFailed = New("CAPTION_005", "caption recipe validation failed", http.StatusBadGateway)

	// Step generation.
	ErrStepChunkNotFound    = New("STEP_001", "no caption chunks to summarize", http.StatusBadRequest)
	ErrStepGenerateFailed   = New("STEP_002", "cooking step generation failed", http.StatusBadGateway)
	ErrStepInvalidTimestamp = New("STEP_003", "model returned an invalid timestamp", http.StatusBadGateway)

	// Comment briefing.
	ErrBriefingFetchFailed    = New("BRIEFING_001", "comment fetch failed", http.StatusBadGateway)
	ErrBriefingFilterFailed   = New("BRIEFING_002", "comment filtering failed", http.StatusBadGateway)
	ErrBriefingGenerateFailed = New("BRIEFING_003", "briefing generation failed", http.StatusBadGateway)

	// Recipe verification.
	ErrVerifyFailed    = New("VERIFY_001", "recipe verification failed", http.StatusBadGateway)
	ErrVerifyUpload    = New("VERIFY_002", "video upload failed", http.StatusBadGateway)
	ErrVerifyNotRecipe = New("VERIFY_003", "video is not a recipe", http.StatusBadRequest)
	ErrVerifyNoCall    = New("VERIFY_004", "model returned no verification result", http.StatusBadGateway)
	ErrVerifyTimeout   = New("VERIFY_005", "video processing timed out", http.StatusGatewayTimeout)

	// Ingredient extraction.
	ErrIngredientExtractFailed = New("INGREDIENT_001", "ingredient extraction failed", http.StatusBadGateway)

	// Shared infrastructure.
	ErrLLMInvokeFailed  = New("LLM_001", "model invocation failed", http.StatusBadGateway)
	ErrLLMRateLimited   = New("LLM_002", "model invocation rate limited", http.StatusBadGateway)
	ErrLLMMalformed     = New("LLM_003", "model returned a malformed response", http.StatusBadGateway)
	ErrUpstreamFailed   = New("UPLOAD_001", "upstream call failed after retries", http.StatusBadGateway)
	ErrUpstreamBadReply = New("UPLOAD_002", "upstream returned a malformed response", http.StatusBadGateway)
	ErrUpstreamRejected = New("UPLOAD_003", "upstream rejected the request", http.StatusBadRequest)
	ErrBadRequest       = New("REQUEST_001", "invalid request", http.StatusBadRequest)
)
