package generator

import (
	"fmt"
	"regexp"
	"strings"
)

// extractJSONPayload strips code fences and surrounding prose from model output.
func extractJSONPayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "{}"
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return trimmed[start : end+1]
	}
	return trimmed
}

// extractJSONField pulls a string field out of output that is not valid JSON,
// such as a response cut off by the token limit.
func extractJSONField(content string, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	pattern := fmt.Sprintf(`(?s)"%s"\s*:\s*"((?:[^"\\]|\\.)*)"?`, regexp.QuoteMeta(key))
	m := regexp.MustCompile(pattern).FindStringSubmatch(content)
	if len(m) != 2 {
		return ""
	}
	return strings.TrimSpace(unescapeJSONString(m[1]))
}

func unescapeJSONString(s string) string {
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)
	return r.Replace(s)
}
