package i18n

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"retail-dashboard-api/internal/preferences"
)

// Preference keys
const (
	KeyLocale = "dashboard.locale"
	KeyTheme  = "dashboard.theme"
)

// Themes
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ValidTheme reports whether theme is light or dark
func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// ProviderOptions configures how a provider resolves its initial state
type ProviderOptions struct {
	// Scope identifies the client whose preferences are read and written
	Scope string
	// DefaultLocale applies when nothing valid is persisted
	DefaultLocale string
	// SystemTheme is the color scheme reported by the client platform, if any
	SystemTheme string
}

// Provider owns the locale and theme of one client
type Provider struct {
	bundle *Bundle
	store  preferences.Store
	scope  string

	mu     sync.RWMutex
	locale string
	theme  string
}

// NewProvider loads persisted preferences for opts.Scope. Invalid persisted
// values are ignored in favour of the defaults.
func NewProvider(ctx context.Context, bundle *Bundle, store preferences.Store, opts ProviderOptions) (*Provider, error) {
	p := &Provider{
		bundle: bundle,
		store:  store,
		scope:  opts.Scope,
		locale: opts.DefaultLocale,
		theme:  ThemeLight,
	}
	if !ValidLocale(p.locale) {
		p.locale = DefaultLocale
	}
	if system := strings.ToLower(strings.TrimSpace(opts.SystemTheme)); ValidTheme(system) {
		p.theme = system
	}

	locale, found, err := store.Get(ctx, p.scope, KeyLocale)
	if err != nil {
		return nil, fmt.Errorf("failed to load locale preference: %w", err)
	}
	if found && ValidLocale(locale) {
		p.locale = locale
	}

	theme, found, err := store.Get(ctx, p.scope, KeyTheme)
	if err != nil {
		return nil, fmt.Errorf("failed to load theme preference: %w", err)
	}
	if found && ValidTheme(theme) {
		p.theme = theme
	}

	return p, nil
}

func (p *Provider) Locale() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.locale
}

// SetLocale persists locale and makes it active
func (p *Provider) SetLocale(ctx context.Context, locale string) error {
	if !ValidLocale(locale) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	if err := p.store.Set(ctx, p.scope, KeyLocale, locale); err != nil {
		return err
	}

	p.mu.Lock()
	p.locale = locale
	p.mu.Unlock()
	return nil
}

func (p *Provider) Theme() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// SetTheme persists theme and makes it active
func (p *Provider) SetTheme(ctx context.Context, theme string) error {
	if !ValidTheme(theme) {
		return fmt.Errorf("%w: %q", ErrUnsupportedTheme, theme)
	}
	if err := p.store.Set(ctx, p.scope, KeyTheme, theme); err != nil {
		return err
	}

	p.mu.Lock()
	p.theme = theme
	p.mu.Unlock()
	return nil
}

// Translator returns a translator for the active locale
func (p *Provider) Translator() Translator {
	return p.bundle.Translator(p.Locale())
}
