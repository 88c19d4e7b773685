package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/bodul/wordfall/game"
)

func stubGemini(gen generateFunc) *GeminiClient {
	return &GeminiClient{
		modelName: "stub",
		generate:  gen,
		cache:     make(map[string]game.Verdict),
	}
}

var sampleRow = []game.Block{
	{Text: "O gato", Category: game.Subject},
	{Text: "bebe", Category: game.Verb},
	{Text: "o leite", Category: game.Object},
	{Text: "gelado", Category: game.Adjective},
}

func TestValidateParsesAndCaches(t *testing.T) {
	calls := 0
	var gotPrompt string
	g := stubGemini(func(_ context.Context, prompt string, schema *genai.Schema, fast bool) (string, error) {
		calls++
		gotPrompt = prompt
		if !fast {
			t.Error("validation should disable thinking")
		}
		if schema != verdictSchema {
			t.Error("unexpected schema")
		}
		return `{"syntaxValid":true,"semanticsValid":false,"feedback":"Boa concordância."}`, nil
	})

	ctx := context.Background()
	v, err := g.Validate(ctx, sampleRow, game.Structures[0], false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !v.SyntaxValid || v.SemanticsValid || v.Feedback != "Boa concordância." {
		t.Fatalf("unexpected verdict %+v", v)
	}
	if !strings.Contains(gotPrompt, `"O gato bebe o leite gelado"`) {
		t.Errorf("prompt missing sentence:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, strictInstruction) {
		t.Error("prompt should use the strict instruction outside the danger zone")
	}

	if _, err := g.Validate(ctx, sampleRow, game.Structures[0], false); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("expected cached second call, got %d model calls", calls)
	}

	// The danger flag is part of the key.
	if _, err := g.Validate(ctx, sampleRow, game.Structures[0], true); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Fatalf("expected a new model call for danger zone, got %d", calls)
	}
	if !strings.Contains(gotPrompt, dangerInstruction) {
		t.Error("prompt should relax semantics in the danger zone")
	}
}

func TestValidateErrorsAreNotCached(t *testing.T) {
	calls := 0
	g := stubGemini(func(context.Context, string, *genai.Schema, bool) (string, error) {
		calls++
		if calls == 1 {
			return "not json", nil
		}
		return "", errEmptyResponse
	})

	if _, err := g.Validate(context.Background(), sampleRow, game.Structures[0], false); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := g.Validate(context.Background(), sampleRow, game.Structures[0], false); !errors.Is(err, errEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
	if len(g.cache) != 0 {
		t.Fatal("failures must not be cached")
	}
}

func TestValidationKeyIsCaseInsensitive(t *testing.T) {
	a := validationKey("O Gato", "subject", "Sujeito + Verbo", false)
	b := validationKey("o gato", "subject", "sujeito + verbo", false)
	if a != b {
		t.Fatalf("keys differ: %q vs %q", a, b)
	}
}

func TestSuggestMarksGap(t *testing.T) {
	var gotPrompt string
	g := stubGemini(func(_ context.Context, prompt string, _ *genai.Schema, _ bool) (string, error) {
		gotPrompt = prompt
		return `{"suggestedWord":"o peixe"}`, nil
	})

	word, err := g.Suggest(context.Background(), []string{"O gato", "come", "", "fresco"}, game.Object, game.Structures[0])
	if err != nil {
		t.Fatal(err)
	}
	if word != "o peixe" {
		t.Fatalf("expected 'o peixe', got %q", word)
	}
	if !strings.Contains(gotPrompt, `"O gato come [LACUNA] fresco"`) {
		t.Errorf("prompt should mark the gap:\n%s", gotPrompt)
	}
}

func TestCheckName(t *testing.T) {
	g := stubGemini(func(context.Context, string, *genai.Schema, bool) (string, error) {
		return `{"isAppropriate":false,"reason":"Cacofonia."}`, nil
	})
	v, err := g.CheckName(context.Background(), "Jacinto Leite")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsAppropriate || v.Reason != "Cacofonia." {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestValidateLive(t *testing.T) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		t.Skip("GCP_PROJECT_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewGeminiClient(ctx, projectID, "", "")
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	v, err := client.Validate(ctx, sampleRow, game.Structures[0], false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	t.Logf("verdict: %+v", v)

	word, err := client.Suggest(ctx, []string{"O gato", "bebe", "", "gelado"}, game.Object, game.Structures[0])
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	t.Logf("suggestion: %q", word)
}
