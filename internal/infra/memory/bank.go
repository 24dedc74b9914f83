package memory

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"vocab-quiz-service/internal/domain"
)

// Bank is the YAML layout of a question bank file.
type Bank struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadBankFile reads a YAML question bank from path.
func LoadBankFile(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseBank(data)
}

// ParseBank decodes and validates a YAML question bank.
func ParseBank(data []byte) ([]domain.Question, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	seen := make(map[string]bool, len(bank.Questions))
	for i, q := range bank.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("question %d: missing id", i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("question %q: duplicate id", q.ID)
		}
		seen[q.ID] = true
		if strings.TrimSpace(q.Target) == "" {
			return nil, fmt.Errorf("question %q: empty target", q.ID)
		}
		if q.ThemeLevel <= 0 {
			bank.Questions[i].ThemeLevel = 1
		}
	}
	return bank.Questions, nil
}
