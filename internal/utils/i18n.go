package utils

// Minimal server-side i18n for fixed keys.
// UI strings should live in the frontend; server provides only essentials.

var translations = map[string]map[string]string{
	"en": {
		"health.ok":               "ok",
		"error.invalid":           "Invalid request",
		"error.forbidden":         "Not allowed",
		"error.not_found":         "Not found",
		"error.conflict":          "Already exists",
		"error.unauthorized":      "Sign in failed",
		"error.too_many_requests": "Please wait before trying again",
		"error.internal":          "Something went wrong",
		"satisfaction.good":       "Good",
		"satisfaction.regular":    "Regular",
		"satisfaction.bad":        "Bad",
	},
	"pt": {
		"health.ok":               "ok",
		"error.invalid":           "Requisição inválida",
		"error.forbidden":         "Não permitido",
		"error.not_found":         "Não encontrado",
		"error.conflict":          "Já existe",
		"error.unauthorized":      "Falha no login",
		"error.too_many_requests": "Aguarde antes de tentar novamente",
		"error.internal":          "Algo deu errado",
		"satisfaction.good":       "Bom",
		"satisfaction.regular":    "Regular",
		"satisfaction.bad":        "Ruim",
	},
}

// T returns the translated string for key in locale; falls back to English.
func T(locale, key string) string {
	if m, ok := translations[locale]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := translations["en"]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}
