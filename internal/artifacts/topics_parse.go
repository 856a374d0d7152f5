package artifacts

import (
	"regexp"
	"strconv"
	"strings"

	"videoforge/internal/services"
)

// The topics stage asks the model for a rigid plain-text layout:
//
//	Topic 01: "TITLE"
//	SUMMARY: "description"
//
// Localized channels may come back with "Topico"/"Tópico" and "RESUMO";
// the parser accepts both.
var (
	topicLinePattern   = regexp.MustCompile(`(?i)^t[oó]pic[o]?\s*0*(\d+)\s*:\s*"?(.*?)"?\s*$`)
	summaryLinePattern = regexp.MustCompile(`(?i)^(summary|resumo)\s*:\s*"?(.*?)"?\s*$`)
)

// ParseTopics converts the model's plain-text topic layout into an ordered
// TopicList. Numbering gaps and missing titles are validation failures so the
// stage regenerates instead of persisting a broken list.
func ParseTopics(raw string) (*TopicList, error) {
	var list TopicList
	var current *Topic

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := topicLinePattern.FindStringSubmatch(line); m != nil {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			list.Topics = append(list.Topics, Topic{Number: number, Title: strings.TrimSpace(m[2])})
			current = &list.Topics[len(list.Topics)-1]
			continue
		}
		if m := summaryLinePattern.FindStringSubmatch(line); m != nil && current != nil {
			current.Summary = strings.TrimSpace(m[2])
			continue
		}
		// Continuation lines extend the running summary.
		if current != nil && current.Summary != "" {
			current.Summary += " " + line
		}
	}

	if len(list.Topics) == 0 {
		return nil, services.Wrap(services.ErrValidation, "", "parse topics", "no topic lines found in model output", nil)
	}
	for i := range list.Topics {
		if list.Topics[i].Number != i+1 {
			return nil, services.Wrap(services.ErrValidation, "", "parse topics",
				"topic numbering is not sequential from 1", nil)
		}
		if list.Topics[i].Title == "" {
			return nil, services.Wrap(services.ErrValidation, "", "parse topics",
				"topic "+strconv.Itoa(list.Topics[i].Number)+" has no title", nil)
		}
	}
	return &list, nil
}
