package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finvella/finvella/internal/finance"
)

// systemPrompt is prepended to every transcript before submission.
const systemPrompt = `You are Finvella AI, the built-in personal finance assistant for the Finvella app.
Stay in character as Finvella AI and never name the underlying model or vendor.
Your job: teach budgeting, savings, expense planning and financial basics, and chat normally.
Do not give stock or crypto predictions, or instructions to buy or sell assets.
Keep responses minimal, clear and friendly but professional.`

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// Config holds the completion service settings.
type Config struct {
	APIURL      string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client submits a chat transcript to the completion service and delivers
// the response incrementally. It keeps no state across calls and never
// retries.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			// Covers connection setup; streaming reads are bounded by ctx.
			Timeout: 0,
		},
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Send streams a completion for history. Text fragments are delivered to
// onChunk as they arrive; a transport failure invokes onError once with a
// human-readable message and stops delivery. onChunk is never called after
// onError. Send returns when the stream ends, errors out, or ctx is done.
//
// The caller accumulates fragments into the final assistant message and
// persists it; the client does neither.
func (c *Client) Send(ctx context.Context, history []finance.ChatMessage, onChunk func(string), onError func(string)) {
	if c.cfg.APIKey == "" {
		onError("missing completion service API key")
		return
	}

	messages := make([]wireMessage, 0, len(history)+1)
	messages = append(messages, wireMessage{Role: "system", Content: systemPrompt})

	for _, msg := range history {
		messages = append(messages, wireMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		onError(fmt.Sprintf("encoding request: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		onError(fmt.Sprintf("building request: %v", err))
		return
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		onError(fmt.Sprintf("connecting to completion service: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		onError(fmt.Sprintf("completion service error: status %d", resp.StatusCode))
		return
	}

	c.readStream(resp.Body, onChunk, onError)
}

// readStream decodes the event stream frame by frame until the termination
// sentinel, the stream's natural end, or a read error.
func (c *Client) readStream(body io.Reader, onChunk func(string), onError func(string)) {
	var scanner frameScanner

	buf := make([]byte, 4096)

	for {
		n, err := body.Read(buf)

		if n > 0 {
			for _, frame := range scanner.Feed(buf[:n]) {
				if done := handleFrame(frame, onChunk); done {
					return
				}
			}
		}

		if err == io.EOF {
			if rest := scanner.Rest(); rest != "" {
				handleFrame(rest, onChunk)
			}

			return
		}

		if err != nil {
			onError(fmt.Sprintf("reading completion stream: %v", err))
			return
		}
	}
}

// handleFrame processes one frame and reports whether the stream is done.
// Frames without the data prefix and frames that fail to parse are skipped;
// a malformed frame never aborts the stream.
func handleFrame(frame string, onChunk func(string)) bool {
	payload, ok := strings.CutPrefix(frame, dataPrefix)
	if !ok {
		return false
	}

	if payload == doneSentinel {
		return true
	}

	var chunk completionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return false
	}

	if len(chunk.Choices) == 0 {
		return false
	}

	if content := chunk.Choices[0].Delta.Content; content != "" {
		onChunk(content)
	}

	return false
}

// FallbackErrorMessage is what the view layer renders when the assistant
// stream fails.
const FallbackErrorMessage = "Sorry, I couldn't reach Finvella AI. Please try again."

// NewAssistantMessage builds a persisted chat message from accumulated
// fragments.
func NewAssistantMessage(id, content string) finance.ChatMessage {
	return finance.ChatMessage{
		ID:        id,
		Role:      finance.RoleAssistant,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	}
}
