package tools

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/saggiatore/saggiatore-go/engines"
)

var ErrMaxRetriesExceeded = fmt.Errorf("max retries exceeded")

var wrappedJSONRegex = regexp.MustCompile("```(?:json)?\\s(?P<json>[\\s\\S]+)\\s```")

// ArgFixer repairs malformed tool-call argument JSON emitted by the
// agent under test, using the simulator engine. Valid JSON passes
// through untouched.
type ArgFixer struct {
	engine     engines.LLM
	maxRetries int
}

func NewArgFixer(engine engines.LLM, maxRetries int) *ArgFixer {
	return &ArgFixer{
		engine:     engine,
		maxRetries: maxRetries,
	}
}

func (t *ArgFixer) prompt(args json.RawMessage) *engines.ChatPrompt {
	prompt := engines.ChatPrompt{
		History: []*engines.ChatMessage{
			{
				Role: engines.ConvRoleSystem,
				Text: "You are an automated JSON fixer. " +
					"You will receive a JSON payload that might contain " +
					"errors, and you must fix them and return a valid JSON payload.",
			},
			{
				Role: engines.ConvRoleUser,
				Text: `{"visa_type": "H-1B "specialty", "country": "India"}`,
			},
			{
				Role: engines.ConvRoleAssistant,
				Text: `{"visa_type": "H-1B \"specialty", "country": "India"}`,
			},
		},
	}
	prompt.History = append(prompt.History, &engines.ChatMessage{
		Role: engines.ConvRoleUser,
		Text: string(args),
	})
	return &prompt
}

func (t *ArgFixer) validateJSON(raw string) error {
	var obj any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (t *ArgFixer) extractJSONFromResponse(response string) string {
	if wrappedJSONRegex.MatchString(response) {
		return wrappedJSONRegex.FindStringSubmatch(response)[1]
	}
	return response
}

func (t *ArgFixer) Process(args json.RawMessage) (json.RawMessage, error) {
	if err := t.validateJSON(string(args)); err == nil {
		return args, nil
	}
	log.Debugf("running tool-call arg fixer")
	prompt := t.prompt(args)
	var cumErr *multierror.Error
	for i := 0; i < t.maxRetries; i++ {
		resp, err := t.engine.Chat(prompt)
		if err != nil {
			return nil, fmt.Errorf("error running arg fixer: %w", err)
		}
		respJSON := t.extractJSONFromResponse(resp.Text)
		if err := t.validateJSON(respJSON); err != nil {
			cumErr = multierror.Append(cumErr, fmt.Errorf("invalid JSON returned by arg fixer: %w", err))
			continue
		}
		log.Debugf("arg fixer succeeded after %d attempts", i+1)
		return json.RawMessage(respJSON), nil
	}
	return nil, multierror.Append(cumErr, ErrMaxRetriesExceeded)
}
