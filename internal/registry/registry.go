// Package registry holds the catalogue of free-tier chat models used for
// fallback cycling and resolves any model identifier to display metadata.
package registry

import (
	"strings"

	"pagebrief/internal/domain"
)

const freeSuffix = ":free"

// catalogue is the ordered list of models tried during fallback cycling.
// Order is preference order.
var catalogue = []domain.ModelInfo{
	{
		ID:          "meta-llama/llama-3.3-70b-instruct:free",
		DisplayName: "Llama 3.3 70B Instruct",
		Provider:    "Meta",
		ContextSize: "131K",
		Free:        true,
	},
	{
		ID:          "deepseek/deepseek-chat-v3-0324:free",
		DisplayName: "DeepSeek Chat V3",
		Provider:    "DeepSeek",
		ContextSize: "164K",
		Free:        true,
	},
	{
		ID:          "google/gemma-3-27b-it:free",
		DisplayName: "Gemma 3 27B",
		Provider:    "Google",
		ContextSize: "96K",
		Free:        true,
	},
	{
		ID:          "qwen/qwen3-235b-a22b:free",
		DisplayName: "Qwen3 235B A22B",
		Provider:    "Qwen",
		ContextSize: "41K",
		Free:        true,
	},
	{
		ID:          "z-ai/glm-4.5-air:free",
		DisplayName: "GLM 4.5 Air",
		Provider:    "Z.AI",
		ContextSize: "131K",
		Free:        true,
	},
	{
		ID:          "mistralai/mistral-small-3.2-24b-instruct:free",
		DisplayName: "Mistral Small 3.2 24B",
		Provider:    "Mistral",
		ContextSize: "131K",
		Free:        true,
	},
}

// Catalogue returns the ordered free-model identifiers.
func Catalogue() []string {
	ids := make([]string, len(catalogue))
	for i, m := range catalogue {
		ids[i] = m.ID
	}

	return ids
}

// InCatalogue reports whether id is one of the cycling candidates.
func InCatalogue(id string) bool {
	for _, m := range catalogue {
		if m.ID == id {
			return true
		}
	}

	return false
}

// Resolve maps any model identifier to descriptive metadata. Identifiers
// outside the catalogue are parsed heuristically, so Resolve never fails
// and the display name is never empty.
func Resolve(id string) domain.ModelInfo {
	id = strings.TrimSpace(id)

	for _, m := range catalogue {
		if m.ID == id {
			return m
		}
	}

	info := domain.ModelInfo{
		ID:   id,
		Free: strings.HasSuffix(id, freeSuffix),
	}

	name := strings.TrimSuffix(id, freeSuffix)
	if provider, rest, ok := strings.Cut(name, "/"); ok {
		info.Provider = titleCase(provider)
		name = rest
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Unknown model"
	}
	info.DisplayName = titleCase(strings.ReplaceAll(name, "-", " "))

	return info
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}

	return strings.Join(words, " ")
}
