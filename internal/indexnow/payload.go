package indexnow

import (
	"context"
	"fmt"
)

// Payload is the JSON body accepted by IndexNow endpoints.
type Payload struct {
	Host        string   `json:"host"`
	Key         string   `json:"key"`
	KeyLocation string   `json:"keyLocation"`
	URLList     []string `json:"urlList"`
}

// KeyLocation returns the public URL of the key file for host.
func KeyLocation(host, key string) string {
	return fmt.Sprintf("https://%s/%s.txt", host, key)
}

// PayloadBuilder assembles one batched Payload from normalized URLs. The API
// key and site are read on every Build call.
type PayloadBuilder struct {
	settings SettingsSource
	sites    SiteProvider
}

// NewPayloadBuilder creates a PayloadBuilder.
func NewPayloadBuilder(settings SettingsSource, sites SiteProvider) *PayloadBuilder {
	return &PayloadBuilder{settings: settings, sites: sites}
}

// Build validates that every URL is absolute and returns a single payload
// covering all of them, preserving order.
func (b *PayloadBuilder) Build(ctx context.Context, urls []string) (Payload, error) {
	if err := requireAbsolute(urls); err != nil {
		return Payload{}, err
	}
	site, err := currentSite(ctx, b.sites)
	if err != nil {
		return Payload{}, err
	}
	key := b.settings.IndexNowSettings().Key()
	host := site.Host()
	return Payload{
		Host:        host,
		Key:         key,
		KeyLocation: KeyLocation(host, key),
		URLList:     append([]string(nil), urls...),
	}, nil
}

// requireAbsolute fails on the first URL lacking a scheme or host.
func requireAbsolute(urls []string) error {
	for _, raw := range urls {
		if !hasSchemeAndHost(raw) {
			return configurationError("IndexNow URL must be absolute after normalization: %s", raw)
		}
	}
	return nil
}
