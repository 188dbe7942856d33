package domain

// Keys of the persisted key/value settings.
const (
	SettingProvider         = "apiProvider"
	SettingGeminiAPIKey     = "geminiApiKey"
	SettingOpenRouterAPIKey = "openRouterApiKey"
	SettingOpenRouterModel  = "openRouterModel"
	SettingExtensionEnabled = "extensionEnabled"
	SettingAutoHide         = "autoHide"
)

// Provider names accepted by SettingProvider.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// ProviderSettings is the subset of settings read by the classification client.
type ProviderSettings struct {
	Provider         string
	GeminiAPIKey     string
	OpenRouterAPIKey string
	OpenRouterModel  string
}

// Toggles are the two user-controlled pipeline flags.
type Toggles struct {
	ExtensionEnabled bool
	AutoHide         bool
}
