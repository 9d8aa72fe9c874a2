package models

// Question is one parsed multiple choice question.
type Question struct {
	Question    string            `json:"question"`
	Options     map[string]string `json:"options"`
	Correct     string            `json:"correct"`
	Explanation string            `json:"explanation"`
}

// Result is the outcome for a single question. Index is 1-based.
type Result struct {
	Index         int    `json:"index"`
	Question      string `json:"question"`
	UserAnswer    string `json:"user_ans"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation"`
}

type QuizResult struct {
	Score   int      `json:"score"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}
