package i18n

import "context"

type contextKey struct{}

// WithTranslator stores t in ctx
func WithTranslator(ctx context.Context, t Translator) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the request translator, or one for the default locale
// with no table when none was stored
func FromContext(ctx context.Context) Translator {
	if t, ok := ctx.Value(contextKey{}).(Translator); ok {
		return t
	}
	return Translator{locale: DefaultLocale}
}
