package hints

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aulaprep/backend/internal/models"
)

const hintSystemPrompt = `Eres un tutor paciente de una plataforma educativa.
El estudiante está atascado en una pregunta de opción múltiple. Escribe una
pista breve (una o dos frases, en español) que lo oriente hacia el
razonamiento correcto SIN revelar la respuesta ni descartar opciones
explícitamente. No menciones letras de opciones.`

// Service produces guiding hints for questions. Hints never reveal which
// option is correct; using one costs the learner part of the question's XP.
type Service struct {
	llm   LLMClient
	model string
}

func NewService() *Service {
	if os.Getenv("MOCK_HINTS") == "true" || os.Getenv("ANTHROPIC_API_KEY") == "" {
		log.Println("Hints using mock data")
		return &Service{llm: NewMockClient(), model: "mock"}
	}

	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-opus-4-5-20251101"
	}
	log.Println("Hints using Anthropic API:", model)
	return &Service{llm: NewAPIClient(model), model: model}
}

func (s *Service) HintFor(ctx context.Context, q *models.Question) (string, error) {
	hint, err := s.llm.Complete(ctx, hintSystemPrompt, buildHintPrompt(q))
	if err != nil {
		return "", fmt.Errorf("hint for question %d: %w", q.ID, err)
	}
	return strings.TrimSpace(hint), nil
}

// buildHintPrompt includes the option texts but not the correctness flags,
// so the model cannot leak the answer key.
func buildHintPrompt(q *models.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Área: %s\n", q.Area)
	if q.Subtopic != nil {
		fmt.Fprintf(&b, "Tema: %s\n", *q.Subtopic)
	}
	fmt.Fprintf(&b, "Pregunta: %s\n\nOpciones:\n", q.Content)
	for _, o := range q.Options {
		fmt.Fprintf(&b, "%s) %s\n", o.Label, o.Text)
	}
	b.WriteString("\nEscribe la pista.")
	return b.String()
}
