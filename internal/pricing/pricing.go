// Package pricing estimates what a generation costs. Direct generation is
// billed per image; images made inside a chat are billed by output tokens.
package pricing

import (
	"fmt"
	"sort"
)

// TokenPrice is the price of one image output token in USD ($10 per 1M)
const TokenPrice = 10.0 / 1_000_000

// Table maps quality -> size -> value
type Table map[string]map[string]float64

var directPricing = map[string]Table{
	"gpt-image-1": {
		"low":    {"1024x1024": 0.011, "1024x1536": 0.016, "1536x1024": 0.016},
		"medium": {"1024x1024": 0.042, "1024x1536": 0.063, "1536x1024": 0.063},
		"high":   {"1024x1024": 0.167, "1024x1536": 0.25, "1536x1024": 0.25},
		"auto":   {"1024x1024": 0.167, "1024x1536": 0.25, "1536x1024": 0.25},
	},
	"dall-e-3": {
		"standard": {"1024x1024": 0.04, "1024x1792": 0.08, "1792x1024": 0.08},
		"hd":       {"1024x1024": 0.08, "1024x1792": 0.12, "1792x1024": 0.12},
		"auto":     {"1024x1024": 0.08, "1024x1792": 0.12, "1792x1024": 0.12},
	},
	"dall-e-2": {
		"standard": {"256x256": 0.016, "512x512": 0.018, "1024x1024": 0.02},
		"auto":     {"256x256": 0.016, "512x512": 0.018, "1024x1024": 0.02},
	},
}

var chatTokens = map[string]map[string]int{
	"low":    {"1024x1024": 272, "1024x1536": 408, "1536x1024": 400},
	"medium": {"1024x1024": 1056, "1024x1536": 1584, "1536x1024": 1568},
	"high":   {"1024x1024": 4160, "1024x1536": 6240, "1536x1024": 6208},
}

// DirectCost returns the per-image price of a direct generation
func DirectCost(model, quality, size string) (float64, bool) {
	price, ok := directPricing[model][quality][size]
	return price, ok
}

// ChatTokens returns the output tokens an in-chat image costs
func ChatTokens(quality, size string) (int, bool) {
	tokens, ok := chatTokens[quality][size]
	return tokens, ok
}

// ChatCost returns the price of an in-chat image
func ChatCost(quality, size string) (float64, bool) {
	tokens, ok := ChatTokens(quality, size)
	if !ok {
		return 0, false
	}
	return float64(tokens) * TokenPrice, true
}

// Models lists the models with direct pricing
func Models() []string {
	return sortedKeys(directPricing)
}

// AvailableQualities lists the qualities priced for model
func AvailableQualities(model string) []string {
	return sortedKeys(directPricing[model])
}

// AvailableSizes lists the sizes priced for model. An empty quality
// returns the union over all qualities.
func AvailableSizes(model, quality string) []string {
	mp := directPricing[model]
	if quality != "" {
		return sortedKeys(mp[quality])
	}
	union := map[string]struct{}{}
	for _, sizes := range mp {
		for size := range sizes {
			union[size] = struct{}{}
		}
	}
	return sortedKeys(union)
}

// DirectTable returns a copy of the direct pricing table
func DirectTable() map[string]Table {
	out := make(map[string]Table, len(directPricing))
	for model, qualities := range directPricing {
		t := make(Table, len(qualities))
		for q, sizes := range qualities {
			t[q] = make(map[string]float64, len(sizes))
			for s, p := range sizes {
				t[q][s] = p
			}
		}
		out[model] = t
	}
	return out
}

// ChatTokenTable returns a copy of the chat token table
func ChatTokenTable() map[string]map[string]int {
	out := make(map[string]map[string]int, len(chatTokens))
	for q, sizes := range chatTokens {
		out[q] = make(map[string]int, len(sizes))
		for s, n := range sizes {
			out[q][s] = n
		}
	}
	return out
}

// FormatPrice renders a price for display
func FormatPrice(price float64) string {
	switch {
	case price < 0.001:
		return fmt.Sprintf("$%.3fk", price*1000)
	case price < 0.01:
		return fmt.Sprintf("$%.4f", price)
	default:
		return fmt.Sprintf("$%.3f", price)
	}
}

// FormatTokens renders a token count for display
func FormatTokens(tokens int) string {
	if tokens >= 1000 {
		return fmt.Sprintf("%.1fk tokens", float64(tokens)/1000)
	}
	return fmt.Sprintf("%d tokens", tokens)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
