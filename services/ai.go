package services

import (
	"bytes"
	stdctx "context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/tandemdaily/api/dto"
	"github.com/tandemdaily/api/shared"
)

// AIService backs the admin puzzle-building assists with the Anthropic
// Messages API. The service degrades to a clean 503 when no API key is
// configured; nothing else in the system depends on it.
type AIService struct {
	context.DefaultService

	apiKey string
	model  string
	client *http.Client
}

const AI_SVC = "ai_svc"

const (
	anthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultAIModel   = "claude-sonnet-4-20250514"
)

func (svc AIService) Id() string {
	return AI_SVC
}

func (svc *AIService) Configure(ctx *context.Context) error {
	svc.apiKey = os.Getenv("ANTHROPIC_API_KEY")
	svc.model = envOr("AI_MODEL", defaultAIModel)
	svc.client = &http.Client{Timeout: 60 * time.Second}

	if svc.apiKey == "" {
		log.Warn("ANTHROPIC_API_KEY not set, AI assist endpoints will return 503")
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *AIService) Start() error {
	return nil
}

func (svc *AIService) Available() bool {
	return svc.apiKey != ""
}

// ==================== ASSISTS ====================

func (svc *AIService) SuggestThemes(ctx stdctx.Context, req dto.SuggestThemesRequest) (*dto.SuggestThemesResponse, error) {
	count := req.Count
	if count == 0 {
		count = 10
	}

	prompt := fmt.Sprintf(`Suggest %d fresh themes for an emoji word-association puzzle.
Each theme groups 4 answers that players guess from emoji pairs.
Avoid these recently used themes: %s

Respond with a JSON object only: {"themes": ["...", "..."]}`,
		count, strings.Join(req.RecentThemes, ", "))

	var out dto.SuggestThemesResponse
	if err := svc.completeJSON(ctx, "suggest_themes", prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (svc *AIService) SuggestConnections(ctx stdctx.Context, req dto.SuggestConnectionsRequest) (*dto.SuggestConnectionsResponse, error) {
	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = 2
	}

	prompt := fmt.Sprintf(`Suggest 5 movie-connection groups for a film trivia puzzle at difficulty %d of 4.
Each group names a connection and exactly 4 movies sharing it.
Do not reuse these connections: %s
These connections are already in the puzzle, so pick distinct ones: %s

Respond with a JSON object only: {"connections": [{"connection": "...", "movies": ["...", "...", "...", "..."]}]}`,
		difficulty,
		strings.Join(req.RecentConnections, ", "),
		strings.Join(req.ExistingConnections, ", "))

	var out dto.SuggestConnectionsResponse
	if err := svc.completeJSON(ctx, "suggest_connections", prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (svc *AIService) SuggestCrosswordWords(ctx stdctx.Context, req dto.SuggestCrosswordWordsRequest) (*dto.SuggestCrosswordWordsResponse, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest up to 10 common English words matching the crossword pattern %q (letters fixed, ? for open cells).\n", req.Pattern)
	if len(req.Constraints) > 0 {
		fmt.Fprintf(&sb, "Crossing constraints: %s\n", strings.Join(req.Constraints, "; "))
	}
	if len(req.Grid) > 0 {
		grid, _ := sonic.MarshalString(req.Grid)
		fmt.Fprintf(&sb, "Current 5x5 grid (direction %s): %s\n", req.Direction, grid)
	}
	sb.WriteString(`Respond with a JSON object only: {"words": ["...", "..."]}`)

	var out dto.SuggestCrosswordWordsResponse
	if err := svc.completeJSON(ctx, "suggest_crossword_words", sb.String(), &out); err != nil {
		return nil, err
	}
	for i, w := range out.Words {
		out.Words[i] = strings.ToUpper(w)
	}
	return &out, nil
}

func (svc *AIService) GenerateHints(ctx stdctx.Context, req dto.GenerateHintsRequest) (*dto.GenerateHintsResponse, error) {
	answers, _ := sonic.MarshalString(req.Puzzles)

	prompt := fmt.Sprintf(`Write one short hint per answer for an emoji word-association puzzle themed %q.
Hints nudge without giving the answer away. Answers in order: %s

Respond with a JSON object only: {"hints": ["...", "..."]}`, req.Theme, answers)

	var out dto.GenerateHintsResponse
	if err := svc.completeJSON(ctx, "generate_hints", prompt, &out); err != nil {
		return nil, err
	}
	if len(out.Hints) != len(req.Puzzles) {
		return nil, shared.ErrUpstreamUnavailable("AI returned an unexpected number of hints")
	}
	return &out, nil
}

func (svc *AIService) RegenerateEmojiPair(ctx stdctx.Context, req dto.RegenerateEmojiPairRequest) (*dto.RegenerateEmojiPairResponse, error) {
	prompt := fmt.Sprintf(`Propose a pair of emoji (as a single string) that evokes the answer %q for a puzzle themed %q.
Additional context: %s

Respond with a JSON object only: {"emoji": "..", "hint": "..."}`, req.Answer, req.Theme, req.Context)

	var out dto.RegenerateEmojiPairResponse
	if err := svc.completeJSON(ctx, "regenerate_emoji_pair", prompt, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (svc *AIService) AssessCrypticDifficulty(ctx stdctx.Context, req dto.AssessCrypticDifficultyRequest) (*dto.AssessCrypticDifficultyResponse, error) {
	hints, _ := sonic.MarshalString(req.Hints)

	prompt := fmt.Sprintf(`Rate the difficulty of this cryptic crossword clue from 1 (easy) to 5 (expert).
Clue: %s
Answer: %s
Progressive hints: %s

Respond with a JSON object only: {"difficulty": N, "rationale": "..."}`,
		req.Clue, req.Answer, hints)

	var out dto.AssessCrypticDifficultyResponse
	if err := svc.completeJSON(ctx, "assess_cryptic_difficulty", prompt, &out); err != nil {
		return nil, err
	}
	if out.Difficulty < 1 || out.Difficulty > 5 {
		return nil, shared.ErrUpstreamUnavailable("AI returned an out-of-range difficulty")
	}
	return &out, nil
}

// ==================== TRANSPORT ====================

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// completeJSON sends a single-turn prompt and decodes the model's JSON reply
// into out. Transient upstream failures get exactly one retry.
func (svc *AIService) completeJSON(ctx stdctx.Context, operation, prompt string, out interface{}) error {
	if !svc.Available() {
		RecordAIRequest(operation, "unconfigured")
		return shared.ErrUpstreamUnavailable("AI assist is not configured")
	}

	text, err := svc.complete(ctx, prompt)
	if err != nil {
		RecordAIRequest(operation, "error")
		return err
	}

	if err := sonic.UnmarshalString(extractJSON(text), out); err != nil {
		log.WithError(err).Warn("Failed to parse AI response")
		RecordAIRequest(operation, "unparseable")
		return shared.ErrUpstreamUnavailable("AI returned an unparseable response")
	}

	RecordAIRequest(operation, "ok")
	return nil
}

func (svc *AIService) complete(ctx stdctx.Context, prompt string) (string, error) {
	body, err := sonic.Marshal(anthropicRequest{
		Model:     svc.model,
		MaxTokens: 1024,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, retryable, err := svc.doRequest(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

func (svc *AIService) doRequest(ctx stdctx.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicURL, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", svc.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := svc.client.Do(req)
	if err != nil {
		return "", true, shared.ErrUpstreamUnavailable("")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", true, shared.ErrUpstreamUnavailable("")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		log.WithField("status", resp.StatusCode).Warn("AI upstream overloaded")
		return "", true, shared.ErrUpstreamUnavailable("")
	default:
		log.WithField("status", resp.StatusCode).Error("AI upstream rejected request")
		return "", false, shared.ErrUpstreamUnavailable("AI assist request failed")
	}

	var parsed anthropicResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return "", false, shared.ErrUpstreamUnavailable("AI returned an unparseable response")
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", false, shared.ErrUpstreamUnavailable("AI returned an empty response")
	}
	return sb.String(), false, nil
}

// extractJSON trims any prose the model wraps around the JSON object.
func extractJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s
	}
	return s[start : end+1]
}
