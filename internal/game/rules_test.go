package game

import (
	"testing"

	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestMinorityRule_KeepsLeastChosenAnswer(t *testing.T) {
	counts := map[string]int{"Red": 3, "Blue": 1}
	answers := map[int64]string{
		1: "Red",
		2: "Red",
		3: "Red",
		4: "Blue",
	}

	out := MinorityRule{}.Eliminate(models.Question{}, counts, answers)
	assert.Equal(t, []int64{1, 2, 3}, out)
}

func TestMinorityRule_TieBreaksToSmallestValue(t *testing.T) {
	counts := map[string]int{"Blue": 2, "Red": 2}
	answers := map[int64]string{
		1: "Blue",
		2: "Blue",
		3: "Red",
		4: "Red",
	}

	// "Blue" < "Red", so the Blue voters survive on a tie
	out := MinorityRule{}.Eliminate(models.Question{}, counts, answers)
	assert.Equal(t, []int64{3, 4}, out)
}

func TestMinorityRule_EmptyRound(t *testing.T) {
	out := MinorityRule{}.Eliminate(models.Question{}, map[string]int{}, map[int64]string{})
	assert.Empty(t, out)
}

func TestMinorityRule_SingleAnswerEliminatesNobody(t *testing.T) {
	counts := map[string]int{"Red": 4}
	answers := map[int64]string{1: "Red", 2: "Red", 3: "Red", 4: "Red"}

	out := MinorityRule{}.Eliminate(models.Question{}, counts, answers)
	assert.Empty(t, out)
}

func TestCorrectAnswerRule_EliminatesWrongAnswers(t *testing.T) {
	q := models.Question{CorrectList: datatypes.JSON(`["Paris"]`)}
	answers := map[int64]string{
		1: "Paris",
		2: "London",
		3: "Berlin",
	}

	out := CorrectAnswerRule{}.Eliminate(q, nil, answers)
	assert.Equal(t, []int64{2, 3}, out)
}

func TestCorrectAnswerRule_MultipleCorrectAnswers(t *testing.T) {
	q := models.Question{CorrectList: datatypes.JSON(`["Paris","Lyon"]`)}
	answers := map[int64]string{
		1: "Paris",
		2: "Lyon",
		3: "Berlin",
	}

	out := CorrectAnswerRule{}.Eliminate(q, nil, answers)
	assert.Equal(t, []int64{3}, out)
}

func TestCorrectAnswerRule_NoCorrectListEliminatesNobody(t *testing.T) {
	answers := map[int64]string{1: "Paris", 2: "London"}

	out := CorrectAnswerRule{}.Eliminate(models.Question{}, nil, answers)
	assert.Empty(t, out)
}

func TestRuleByName(t *testing.T) {
	assert.IsType(t, CorrectAnswerRule{}, RuleByName("correct"))
	assert.IsType(t, MinorityRule{}, RuleByName("minority"))
	assert.IsType(t, MinorityRule{}, RuleByName(""))
}
