// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n renders the user-facing messages of API responses and
// notification emails in the language negotiated for the request. English
// is the fallback for unknown locales and missing keys.
package i18n

import (
	"context"
	"embed"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed translations/*.toml
var translationFS embed.FS

// supported lists the shipped catalogs. The first entry is the fallback.
var supported = []language.Tag{language.English, language.German}

var (
	bundle   *i18n.Bundle
	initOnce sync.Once
	initErr  error
)

type localeContextKey struct{}
type localizerContextKey struct{}

// Init parses the message catalogs once. Later calls return the first result.
func Init() error {
	initOnce.Do(func() {
		b := i18n.NewBundle(supported[0])
		b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

		for _, tag := range supported {
			file := "translations/active." + tag.String() + ".toml"
			if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
				initErr = err
				return
			}
		}
		bundle = b
	})
	return initErr
}

func getBundle() *i18n.Bundle {
	if err := Init(); err != nil {
		panic(err) // catalogs are embedded; unreachable in a good build
	}
	return bundle
}

// WithLocale binds a localizer for lang to ctx. Handlers and the mail
// dispatcher read it through T and TData.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	locale := lang.String()
	ctx = context.WithValue(ctx, localeContextKey{}, locale)
	localizer := i18n.NewLocalizer(getBundle(), locale)
	return context.WithValue(ctx, localizerContextKey{}, localizer)
}

// GetLocale reports the locale bound to ctx, "en" when none is.
func GetLocale(ctx context.Context) string {
	if locale, ok := ctx.Value(localeContextKey{}).(string); ok {
		return locale
	}
	return "en"
}

// T looks up messageID in the request's catalog. Unknown IDs come back
// unchanged so a missing key shows up in the response instead of an
// empty string.
func T(ctx context.Context, messageID string) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID: messageID,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// TData is T for messages with placeholders such as {{.Field}}.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	localizer := getLocalizer(ctx)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// MatchLanguage picks the shipped catalog closest to an Accept-Language
// header value.
func MatchLanguage(acceptLanguage string) language.Tag {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	return tag
}

var matcher = language.NewMatcher(supported)

func getLocalizer(ctx context.Context) *i18n.Localizer {
	if localizer, ok := ctx.Value(localizerContextKey{}).(*i18n.Localizer); ok {
		return localizer
	}
	return i18n.NewLocalizer(getBundle(), supported[0].String())
}
