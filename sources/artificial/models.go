package artificial

const maxModelAttempts = 3

// BuildModelList assembles the fallback chain sent to the provider: primary
// first, then fallbacks, deduplicated in order, capped at maxModelAttempts.
func BuildModelList(primary string, fallbacks []string) []string {
	seen := make(map[string]bool, maxModelAttempts)
	models := make([]string, 0, maxModelAttempts)

	for _, model := range append([]string{primary}, fallbacks...) {
		if model == "" || seen[model] {
			continue
		}
		seen[model] = true
		models = append(models, model)
		if len(models) == maxModelAttempts {
			break
		}
	}

	return models
}
