package tools

import (
	"context"
	"fmt"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
)

const (
	NoteName        = "note_tool"
	NoteDescription = "Saves a note to a local file"
)

type note struct {
	store notes.Store
}

// NewNote returns the write-only note_tool backed by store.
func NewNote(store notes.Store) agent.Tool {
	return note{store: store}
}

func (note) Definition() agent.Definition {
	return agent.Definition{
		Name:        NoteName,
		Description: NoteDescription,
		Parameters: []agent.Parameter{{
			Name:        "note",
			Type:        "string",
			Description: "text to save",
			Required:    true,
		}},
	}
}

func (n note) Invoke(ctx context.Context, args map[string]any) (string, error) {
	text, err := agent.StringArg(args, "note")
	if err != nil {
		return "", err
	}
	saved, err := n.store.Add(ctx, text)
	if err != nil {
		return "", fmt.Errorf("save note: %w", err)
	}
	return fmt.Sprintf("Note saved (#%d).", saved.ID), nil
}
