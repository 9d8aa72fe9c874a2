package quiz

import "pdf-quiz/internal/models"

// Score grades answers against questions position by position. An
// empty or missing answer is wrong; labels must match exactly.
func Score(questions []models.Question, answers []string) models.QuizResult {
	result := models.QuizResult{
		Total:   len(questions),
		Results: make([]models.Result, 0, len(questions)),
	}
	for i, q := range questions {
		var answer string
		if i < len(answers) {
			answer = answers[i]
		}
		correct := answer != "" && answer == q.Correct
		if correct {
			result.Score++
		}
		result.Results = append(result.Results, models.Result{
			Index:         i + 1,
			Question:      q.Question,
			UserAnswer:    answer,
			CorrectAnswer: q.Correct,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}
	return result
}
