package game

import "strings"

// Structure is a target sentence order such as "Sujeito + Verbo + Objeto + Adjetivo".
type Structure string

// Structures is the pool target structures are drawn from. The first one opens every game.
var Structures = []Structure{
	"Sujeito + Verbo + Objeto + Adjetivo",
	"Advérbio + Sujeito + Verbo + Objeto",
	"Sujeito + Verbo + Objeto + Advérbio",
	"Preposição + Sujeito + Verbo + Objeto",
}

// ParseStructure maps each part of s to a category, left to right.
// Parts that name no known category map to Subject.
func ParseStructure(s Structure) []Category {
	parts := strings.Split(string(s), " + ")
	out := make([]Category, len(parts))
	for i, p := range parts {
		out[i] = partCategory(strings.ToLower(p))
	}
	return out
}

func partCategory(part string) Category {
	switch {
	case strings.Contains(part, "sujeito"):
		return Subject
	case strings.Contains(part, "verbo"):
		return Verb
	case strings.Contains(part, "objeto"):
		return Object
	case strings.Contains(part, "adjetivo"):
		return Adjective
	case strings.Contains(part, "advérbio"):
		return Adverb
	case strings.Contains(part, "preposição"):
		return Preposition
	case strings.Contains(part, "conjunção"):
		return Conjunction
	}
	return Subject
}

// wordPools are indexed by level, starting at 1.
var wordPools = []map[Category][]string{
	{
		Subject:     {"O gato", "A menina", "O sol", "Meu amigo", "A professora", "O cachorro", "O pássaro", "A chuva", "O atleta", "A flor"},
		Verb:        {"corre", "brilha", "canta", "pula", "estuda", "dorme", "voa", "cai", "treina", "cresce"},
		Adjective:   {"feliz", "rápido", "bonito", "cansado", "atento", "calmo", "azul", "frio", "forte", "linda"},
		Object:      {"o leite", "a bola", "o livro", "a maçã", "o prêmio", "a nota", "o mar", "a rua", "o gramado", "o céu"},
		Adverb:      {"hoje", "ontem", "agora", "cedo", "tarde", "aqui", "lá", "sempre", "nunca", "muito"},
		Conjunction: {"e", "mas", "ou", "pois", "então", "porque", "contudo", "entretanto", "logo", "se"},
		Preposition: {"com", "de", "para", "em", "por", "sobre", "sob", "ante", "após", "até"},
	},
	{
		Subject:     {"Nós", "Eles", "O autor", "A equipe", "A criança", "O cientista", "O cozinheiro", "O músico", "O piloto"},
		Verb:        {"comprou", "leu", "fez", "encontrou", "viu", "escreveu", "preparou", "ouviu", "guiou"},
		Object:      {"o livro", "uma maçã", "o tesouro", "a carta", "o caminho", "um artigo", "o jantar", "a nota", "o avião"},
		Adjective:   {"antigo", "doce", "longo", "secreto", "claro", "novo", "saboroso", "alto", "seguro"},
		Adverb:      {"lentamente", "rapidamente", "silenciosamente", "cuidadosamente", "totalmente", "parcialmente"},
		Conjunction: {"conforme", "embora", "visto que", "portanto", "todavia", "conquanto"},
		Preposition: {"perante", "mediante", "durante", "consoante", "exceto", "fora"},
	},
}

// poolFor returns the word list for category c at the given level, clamping the level to the
// defined range and falling back to the subject list.
func poolFor(level int, c Category) []string {
	if level < 1 {
		level = 1
	}
	if level > len(wordPools) {
		level = len(wordPools)
	}
	pool := wordPools[level-1]
	if words, ok := pool[c]; ok && len(words) > 0 {
		return words
	}
	return pool[Subject]
}
