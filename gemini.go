package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bodul/wordfall/game"
)

const validatePrompt = `Você é um validador de frases para um jogo educativo de gramática portuguesa.

CONTEXTO:
No jogo, as palavras são coloridas por categoria:
- Azul: Sujeito
- Rosa: Verbo
- Verde: Objeto
- Âmbar: Adjetivo
- Roxo: Advérbio
- Laranja: Conjunção
- Ciano: Preposição

FRASE PARA ANALISAR: "%s"
CLASSIFICAÇÃO DO JOGADOR (Palavra -> Categoria):
%s

META ESTRUTURAL DO NÍVEL: "%s"

DIRETRIZES DE VALIDAÇÃO:
1. SINTAXE E CLASSIFICAÇÃO (Rigor Máximo):
   - A frase deve ter concordância verbal e nominal perfeita.
   - Cada palavra deve REALMENTE pertencer à categoria gramatical que o jogador atribuiu no contexto da frase.
   - Se houver erro de concordância ou erro de classificação de classe gramatical, 'syntaxValid' deve ser false.
2. SEMÂNTICA (Flexibilidade Generosa):
   - Aceite frases surreais ou engraçadas desde que a gramática esteja impecável. 'semanticsValid' deve ser true nesses casos.
3. PEDAGOGIA: Forneça um feedback curto (máximo 15 palavras) explicando o erro gramatical específico ou elogiando a estrutura.
4. %s

Responda EXCLUSIVAMENTE em JSON:
{"syntaxValid": boolean, "semanticsValid": boolean, "feedback": "Sua explicação pedagógica aqui"}`

const (
	strictInstruction = "Seja um professor de gramática extremamente rigoroso. O jogador é um aprendiz e não deve ser confundido."
	dangerInstruction = "O JOGADOR ESTÁ QUASE PERDENDO. Se a estrutura gramatical básica estiver correta, ignore problemas de sentido absurdo."
)

const suggestPrompt = `Complete a oração em português: "%s". O termo na [LACUNA] deve ser estritamente da categoria "%s" para respeitar a estrutura "%s". Forneça apenas UM termo criativo.`

const namePrompt = `Analise o nome de jogador: "%s".
Este é um jogo escolar educativo. Você deve detectar e bloquear:
1. Palavrões explícitos.
2. Trocadilhos de duplo sentido (Ex: nomes que lidos rápido soam como obscenidades - cacofonia).
3. Linguagem vulgar, grosseira ou ofensiva disfarçada.

Exemplos de nomes PROIBIDOS por cacofonia/duplo sentido em português: 'Cuca Beludo', 'Paula Tejano', 'Jacinto Leite', etc.

Responda em JSON.`

var errEmptyResponse = errors.New("empty gemini response")

var (
	verdictSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"syntaxValid":    {Type: genai.TypeBoolean},
			"semanticsValid": {Type: genai.TypeBoolean},
			"feedback":       {Type: genai.TypeString},
		},
		Required: []string{"syntaxValid", "semanticsValid", "feedback"},
	}
	suggestionSchema = &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{"suggestedWord": {Type: genai.TypeString}},
		Required:   []string{"suggestedWord"},
	}
	nameSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isAppropriate": {Type: genai.TypeBoolean},
			"reason":        {Type: genai.TypeString},
		},
		Required: []string{"isAppropriate"},
	}
)

// Validate asks Gemini whether words form a valid sentence in structure. Answers are memoized
// per sentence, classification, structure and danger flag.
func (g *GeminiClient) Validate(ctx context.Context, words []game.Block, structure game.Structure, dangerZone bool) (game.Verdict, error) {
	texts := make([]string, len(words))
	cats := make([]string, len(words))
	lines := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
		cats[i] = string(w.Category)
		lines[i] = fmt.Sprintf("- %q foi marcada como %q", w.Text, w.Category)
	}
	sentence := strings.Join(texts, " ")
	key := validationKey(sentence, strings.Join(cats, " -> "), structure, dangerZone)

	g.mu.Lock()
	v, ok := g.cache[key]
	g.mu.Unlock()
	if ok {
		return v, nil
	}

	instruction := strictInstruction
	if dangerZone {
		instruction = dangerInstruction
	}
	prompt := fmt.Sprintf(validatePrompt, sentence, strings.Join(lines, "\n"), structure, instruction)

	text, err := g.generate(ctx, prompt, verdictSchema, true)
	if err != nil {
		return game.Verdict{}, err
	}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return game.Verdict{}, fmt.Errorf("parse verdict JSON: %w\nraw response: %s", err, text)
	}

	g.mu.Lock()
	g.cache[key] = v
	g.mu.Unlock()
	return v, nil
}

func validationKey(sentence, categories string, structure game.Structure, dangerZone bool) string {
	return fmt.Sprintf("%s|%s|%s|%t", strings.ToLower(sentence), categories, strings.ToLower(string(structure)), dangerZone)
}

// Suggest asks Gemini for a word of category target filling the gap in existing.
func (g *GeminiClient) Suggest(ctx context.Context, existing []string, target game.Category, structure game.Structure) (string, error) {
	parts := make([]string, len(existing))
	for i, w := range existing {
		if w == "" {
			w = "[LACUNA]"
		}
		parts[i] = w
	}
	prompt := fmt.Sprintf(suggestPrompt, strings.Join(parts, " "), target, structure)

	text, err := g.generate(ctx, prompt, suggestionSchema, false)
	if err != nil {
		return "", err
	}
	var resp struct {
		SuggestedWord string `json:"suggestedWord"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return "", fmt.Errorf("parse suggestion JSON: %w", err)
	}
	return resp.SuggestedWord, nil
}

// NameVerdict is the answer of the name check.
type NameVerdict struct {
	IsAppropriate bool   `json:"isAppropriate"`
	Reason        string `json:"reason,omitempty"`
}

// CheckName asks Gemini whether a player name is acceptable in a school game.
func (g *GeminiClient) CheckName(ctx context.Context, name string) (NameVerdict, error) {
	text, err := g.generate(ctx, fmt.Sprintf(namePrompt, name), nameSchema, false)
	if err != nil {
		return NameVerdict{}, err
	}
	var v NameVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return NameVerdict{}, fmt.Errorf("parse name JSON: %w", err)
	}
	return v, nil
}

func (g *GeminiClient) generateContent(ctx context.Context, prompt string, schema *genai.Schema, fast bool) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.4)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if fast {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(int32(0))}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
