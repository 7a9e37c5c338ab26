package agent

import "strings"

// ParseResponse extracts thought, action and an optional scratchpad from
// raw model output, grounded on conversational_agent.py's parse_response:
// it tries the lowercase tag set first, then falls back to the uppercase
// one the prompt templates actually ask the model to emit. ok is false
// when neither tag set yields both a thought and a command (spec §4.3:
// "absence of either of the first two ⇒ return the hallucination
// sentinel").
func ParseResponse(response string) (thought, action, scratchpad string, ok bool) {
	if strings.Contains(response, "<thought>") {
		return extractTags(response, "<thought>", "</thought>", "<command>", "</command>", "<scratchpad>", "</scratchpad>")
	}
	return extractTags(response, "<THOUGHT>", "</THOUGHT>", "<COMMAND>", "</COMMAND>", "<SCRATCHPAD>", "</SCRATCHPAD>")
}

func extractTags(response, openT, closeT, openC, closeC, openS, closeS string) (thought, action, scratchpad string, ok bool) {
	thought, ok1 := between(response, openT, closeT)
	action, ok2 := between(response, openC, closeC)
	if !ok1 || !ok2 {
		return "", "", "", false
	}
	if strings.Contains(response, openS) {
		scratchpad, _ = between(response, openS, closeS)
	}
	return thought, action, scratchpad, true
}

// between returns the text strictly inside the first open/close pair.
func between(s, open, close string) (string, bool) {
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	rest := s[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}
