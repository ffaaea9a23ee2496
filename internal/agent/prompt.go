package agent

import "strings"

const systemTemplate = `You are a helpful AI assistant with access to tools. Use the tools available to answer user questions about GitHub repositories, issues, and code analysis.

Available tools:
{tools}

When you need to use a tool, follow this format:
1. Think about what information you need
2. Use the appropriate tool with the correct parameters
3. Analyze the results
4. Provide a comprehensive answer

Always be thorough in your analysis and provide actionable insights.`

// SystemPrompt renders the fixed system prompt for the given tools.
func SystemPrompt(defs []Definition) string {
	return strings.Replace(systemTemplate, "{tools}", RenderTools(defs), 1)
}

// RenderTools lists tools one per line as "name: description".
func RenderTools(defs []Definition) string {
	lines := make([]string, len(defs))
	for i, d := range defs {
		lines[i] = d.Name + ": " + d.Description
	}
	return strings.Join(lines, "\n")
}
