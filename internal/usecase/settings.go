package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/ports"
)

// Settings is a typed view over the persisted key/value settings.
type Settings struct {
	store           ports.SettingsStore
	defaultProvider string
}

var _ ports.ProviderSettingsReader = (*Settings)(nil)

// NewSettings wraps store; an unset provider reads as domain.ProviderGemini.
func NewSettings(store ports.SettingsStore) *Settings {
	return &Settings{store: store, defaultProvider: domain.ProviderGemini}
}

// ProviderSettings reads provider selection and credentials.
func (s *Settings) ProviderSettings(ctx context.Context) (domain.ProviderSettings, error) {
	values, err := s.store.Get(ctx,
		domain.SettingProvider,
		domain.SettingGeminiAPIKey,
		domain.SettingOpenRouterAPIKey,
		domain.SettingOpenRouterModel,
	)
	if err != nil {
		return domain.ProviderSettings{}, fmt.Errorf("load provider settings: %w", err)
	}

	provider := strings.TrimSpace(values[domain.SettingProvider])
	if provider == "" {
		provider = s.defaultProvider
	}
	return domain.ProviderSettings{
		Provider:         provider,
		GeminiAPIKey:     values[domain.SettingGeminiAPIKey],
		OpenRouterAPIKey: values[domain.SettingOpenRouterAPIKey],
		OpenRouterModel:  values[domain.SettingOpenRouterModel],
	}, nil
}

// SaveProviderSettings stores the non-empty fields of ps; blank fields keep their stored value.
func (s *Settings) SaveProviderSettings(ctx context.Context, ps domain.ProviderSettings) error {
	values := map[string]string{}
	put := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			values[key] = value
		}
	}
	put(domain.SettingProvider, ps.Provider)
	put(domain.SettingGeminiAPIKey, ps.GeminiAPIKey)
	put(domain.SettingOpenRouterAPIKey, ps.OpenRouterAPIKey)
	put(domain.SettingOpenRouterModel, ps.OpenRouterModel)

	if len(values) == 0 {
		return nil
	}
	if err := s.store.Set(ctx, values); err != nil {
		return fmt.Errorf("save provider settings: %w", err)
	}
	return nil
}

// Toggles reads the two flags. A missing extension flag means enabled, a
// missing auto-hide flag means off.
func (s *Settings) Toggles(ctx context.Context) (domain.Toggles, error) {
	values, err := s.store.Get(ctx, domain.SettingExtensionEnabled, domain.SettingAutoHide)
	if err != nil {
		return domain.Toggles{}, fmt.Errorf("load toggles: %w", err)
	}
	return domain.Toggles{
		ExtensionEnabled: parseFlag(values[domain.SettingExtensionEnabled], true),
		AutoHide:         parseFlag(values[domain.SettingAutoHide], false),
	}, nil
}

// SaveAutoHide persists the auto-hide flag.
func (s *Settings) SaveAutoHide(ctx context.Context, on bool) error {
	return s.saveFlag(ctx, domain.SettingAutoHide, on)
}

// SaveExtensionEnabled persists the extension flag.
func (s *Settings) SaveExtensionEnabled(ctx context.Context, on bool) error {
	return s.saveFlag(ctx, domain.SettingExtensionEnabled, on)
}

// SeedDefaults stores values only for keys that have nothing stored yet.
func (s *Settings) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	keys := make([]string, 0, len(defaults))
	for k, v := range defaults {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	stored, err := s.store.Get(ctx, keys...)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	missing := map[string]string{}
	for _, k := range keys {
		if _, ok := stored[k]; !ok {
			missing[k] = defaults[k]
		}
	}
	if len(missing) == 0 {
		return nil
	}
	if err := s.store.Set(ctx, missing); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

func (s *Settings) saveFlag(ctx context.Context, key string, on bool) error {
	if err := s.store.Set(ctx, map[string]string{key: strconv.FormatBool(on)}); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseFlag(raw string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}
