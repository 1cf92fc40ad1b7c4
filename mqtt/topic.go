package mqtt

import "strings"

const TopicSeparator = "/"

// topicSanitizer replaces characters that are either wildcards or separators in MQTT topics. Vendor device ids look
// like MAC addresses ("AA:BB:CC:DD:EE:FF:00:11") and are used as topic segments.
var topicSanitizer = strings.NewReplacer(
	TopicSeparator, "_",
	"+", "_",
	"#", "_",
	":", "",
	" ", "_",
)

// TrimTopic trims TopicSeparator from the start and end of the specified topic.
func TrimTopic(topic string) string {
	return strings.Trim(topic, TopicSeparator)
}

// JoinTopic joins non-empty component parts with TopicSeparator, trimming each part as it is appended.
func JoinTopic(parts ...string) string {
	var result strings.Builder

	for _, part := range parts {
		part = TrimTopic(part)
		if part == "" {
			continue
		}

		if result.Len() > 0 {
			result.WriteString(TopicSeparator)
		}
		result.WriteString(part)
	}

	return result.String()
}

// SanitizeSegment converts an arbitrary identifier into a single lower-case topic segment.
func SanitizeSegment(s string) string {
	return strings.ToLower(topicSanitizer.Replace(strings.TrimSpace(s)))
}
