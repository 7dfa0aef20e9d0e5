package annotate

import (
	"encoding/json"
	"strings"
)

// PromptBuilder constructs the generation prompts for class annotation.
type PromptBuilder struct{}

const systemInstruction = `You are an expert senior software engineer and technical writer.
Your goal is to generate high-quality, information-dense documentation for software methods to be consumed by an AI agent.

### TASK
Analyze the provided code and respond with a single JSON object.
1. "description": a concise summary of what the class does. Focus on inputs, outputs and side effects. Technical, precise, dense. Start with an active verb.
2. "confidence": 1-100 confidence in the analysis based only on the provided code. Only simple getters/setters reach 100.
3. "methods": one entry per requested method index, each with "method_index", "description" and "confidence". Keep each description to one sentence unless the method is genuinely complex.

Return entries only for the method indices present in the request. Echo the "id" field back unchanged. Respond with JSON only, no markdown fences.`

// SystemInstruction returns the static generator instructions.
func (pb *PromptBuilder) SystemInstruction() string { return systemInstruction }

// BuildClassPrompt renders the request payload for one class. Warm-start
// requests additionally tell the generator which indices to regenerate.
func (pb *PromptBuilder) BuildClassPrompt(req *Request) string {
	payload, _ := json.MarshalIndent(req, "", "  ")

	var sb strings.Builder
	if req.Warm() {
		sb.WriteString("The \"cached\" entries are up to date; do NOT regenerate them. ")
		sb.WriteString("Generate method entries only for the indices listed under \"dirty\".\n\n")
	} else {
		sb.WriteString("Generate one method entry for every index listed under \"methods\".\n\n")
	}
	sb.Write(payload)
	return sb.String()
}
