package fallback

const defaultModelID = "gemini-2.0-flash"

// ModelResolver maps a tenant plan's commercial model name to a provider model id.
type ModelResolver struct {
	models       map[string]string
	defaultModel string
}

func NewModelResolver(models map[string]string, defaultModel string) *ModelResolver {
	if defaultModel == "" {
		defaultModel = defaultModelID
	}
	return &ModelResolver{models: models, defaultModel: defaultModel}
}

func (r *ModelResolver) Resolve(planModel string) string {
	if id, ok := r.models[planModel]; ok && id != "" {
		return id
	}
	return r.defaultModel
}
