package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"trivia-room-service/internal/domain"
)

// LoadQuestionFile reads a JSON bank shaped as {"category": [question, ...]}.
func LoadQuestionFile(path string) (map[string][]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question file: %w", err)
	}
	bank := make(map[string][]domain.Question)
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("decode question file: %w", err)
	}
	return bank, nil
}
