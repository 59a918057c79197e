package game

import (
	"encoding/json"
	"sort"

	"github.com/aadityarajkumawat/telebot/internal/models"
)

// Rule decides which respondents drop out after a round. Participants who
// never answered are eliminated by the orchestrator before the rule runs;
// the rule only judges recorded answers.
type Rule interface {
	Eliminate(q models.Question, counts map[string]int, answers map[int64]string) []int64
}

// MinorityRule keeps the participants who picked the least-chosen answer.
// Ties between equally rare answers break to the lexicographically smallest
// value, so the outcome is deterministic for a fixed set of responses.
type MinorityRule struct{}

func (MinorityRule) Eliminate(_ models.Question, counts map[string]int, answers map[int64]string) []int64 {
	if len(counts) == 0 {
		return nil
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)

	minority := values[0]
	for _, v := range values[1:] {
		if counts[v] < counts[minority] {
			minority = v
		}
	}

	var out []int64
	for id, answer := range answers {
		if answer != minority {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CorrectAnswerRule keeps the participants who picked one of the question's
// designated correct answers. Questions without a correct list eliminate
// nobody.
type CorrectAnswerRule struct{}

func (CorrectAnswerRule) Eliminate(q models.Question, _ map[string]int, answers map[int64]string) []int64 {
	var correct []string
	if len(q.CorrectList) > 0 {
		if err := json.Unmarshal(q.CorrectList, &correct); err != nil {
			return nil
		}
	}
	if len(correct) == 0 {
		return nil
	}

	ok := make(map[string]bool, len(correct))
	for _, c := range correct {
		ok[c] = true
	}

	var out []int64
	for id, answer := range answers {
		if !ok[answer] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RuleByName maps the configured elimination mode to its rule,
// defaulting to minority voting.
func RuleByName(name string) Rule {
	if name == "correct" {
		return CorrectAnswerRule{}
	}
	return MinorityRule{}
}
