package prompt

import "fmt"

// GetSystemPrompt returns the system prompt for the recommendation advisor
func GetSystemPrompt() string {
	return `You are a SaaS license and access-review advisor writing for an IT
administrator. You receive a JSON digest of one cost-optimization
recommendation: platform, category, priority, monthly savings and the number
of affected users. Respond with two or three plain sentences of prose that
explain the situation and the next step. Do not restate raw numbers as a
list, do not use markdown, and never invent figures that are not in the
digest.`
}

// GetUserPrompt wraps the recommendation digest
func GetUserPrompt(digest string) string {
	return fmt.Sprintf("Recommendation digest:\n%s", digest)
}
