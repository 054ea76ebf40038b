package memory

import "github.com/saggiatore/saggiatore-go/engines"

type Memory interface {
	Add(msg *engines.ChatMessage) error
	AddPrompt(prompt *engines.ChatPrompt) error
	PromptWithContext(nextMessages ...*engines.ChatMessage) (*engines.ChatPrompt, error)
}

// BufferMemory keeps the agent's chat history across conversation turns.
// When MaxHistory is exceeded the oldest non-system message is dropped,
// so the agent never loses its system prompt mid-session.
type BufferMemory struct {
	MaxHistory int
	Buffer     []*engines.ChatMessage
}

func (memory *BufferMemory) reduceBuffer() {
	for memory.MaxHistory > 0 && len(memory.Buffer) > memory.MaxHistory {
		dropIdx := 0
		if memory.Buffer[0].Role == engines.ConvRoleSystem {
			dropIdx = 1
		}
		memory.Buffer = append(memory.Buffer[:dropIdx], memory.Buffer[dropIdx+1:]...)
	}
}

func (memory *BufferMemory) Add(msg *engines.ChatMessage) error {
	memory.Buffer = append(memory.Buffer, msg)
	memory.reduceBuffer()
	return nil
}

func (memory *BufferMemory) AddPrompt(prompt *engines.ChatPrompt) error {
	memory.Buffer = append(memory.Buffer, prompt.History...)
	memory.reduceBuffer()
	return nil
}

func (memory *BufferMemory) PromptWithContext(nextMessages ...*engines.ChatMessage) (*engines.ChatPrompt, error) {
	memory.Buffer = append(memory.Buffer, nextMessages...)
	memory.reduceBuffer()
	return &engines.ChatPrompt{
		History: memory.Buffer,
	}, nil
}

func NewBufferedMemory(maxHistory int) *BufferMemory {
	return &BufferMemory{
		MaxHistory: maxHistory,
	}
}
