package orchestrator

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/tutor_prompt.txt
var tutorSystemPrompt string

//go:embed template/business_prompt.txt
var businessSystemPrompt string

// SystemPrompt renders the system message for d through the Eino prompt
// component, so prompt callbacks attached to ctx observe it.
func SystemPrompt(ctx context.Context, d Directive, learnerName string) (string, error) {
	text, err := Render(d)
	if err != nil {
		return "", err
	}

	var tplText string
	vars := map[string]any{"LearnerName": learnerName}
	switch d.(type) {
	case NormalPhase:
		tplText = tutorSystemPrompt
		vars["PhaseInstructions"] = text
	case BusinessScenario:
		tplText = businessSystemPrompt
		vars["Scenario"] = text
	}

	tpl := prompt.FromMessages(schema.GoTemplate, schema.SystemMessage(tplText))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
