package engines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultBaseURL = "https://api.openai.com/v1"

type GPT struct {
	APIToken       string
	Model          string
	BaseURL        string
	Temperature    float64
	MaxTokens      int
	DefaultHeaders map[string]string

	tools []ToolSpecs
}

type ChatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []*ChatMessage `json:"messages"`
	Temperature float64        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Tools       []RequestTool  `json:"tools,omitempty"`
}

type RequestTool struct {
	Type     string    `json:"type"`
	Function ToolSpecs `json:"function"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message *ChatMessage `json:"message"`
	} `json:"choices"`
}

func (gpt *GPT) Chat(prompt *ChatPrompt) (*ChatMessage, error) {
	return gpt.complete(prompt, nil)
}

func (gpt *GPT) SetTools(specs ...ToolSpecs) {
	gpt.tools = specs
}

func (gpt *GPT) ChatWithTools(prompt *ChatPrompt) (*ChatMessage, error) {
	return gpt.complete(prompt, gpt.tools)
}

func (gpt *GPT) complete(prompt *ChatPrompt, tools []ToolSpecs) (*ChatMessage, error) {
	request := ChatCompletionRequest{
		Model:       gpt.Model,
		Messages:    prompt.History,
		Temperature: gpt.Temperature,
		MaxTokens:   gpt.MaxTokens,
	}
	for _, spec := range tools {
		request.Tools = append(request.Tools, RequestTool{
			Type:     "function",
			Function: spec,
		})
	}
	bodyJSON, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(
		"POST",
		gpt.baseURL()+"/chat/completions",
		bytes.NewBuffer(bodyJSON),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+gpt.APIToken)
	req.Header.Add("Content-Type", "application/json")
	for name, value := range gpt.DefaultHeaders {
		req.Header.Add(name, value)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return gpt.parseResponseBody(res.Body)
}

func (gpt *GPT) baseURL() string {
	if gpt.BaseURL == "" {
		return defaultBaseURL
	}
	return gpt.BaseURL
}

func (gpt *GPT) parseResponseBody(body io.Reader) (*ChatMessage, error) {
	var buf bytes.Buffer
	tee := io.TeeReader(body, &buf)
	var response ChatCompletionResponse
	err := json.NewDecoder(tee).Decode(&response)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %s", buf.String())
	}
	return response.Choices[0].Message, nil
}

func NewGPTEngine(apiToken string, model string) *GPT {
	return &GPT{
		APIToken:    apiToken,
		Model:       model,
		Temperature: 0.7,
	}
}
