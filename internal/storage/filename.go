package storage

import (
	"regexp"
	"strings"
	"time"

	"github.com/liliang-cn/imagestudio/internal/domain"
)

// Saved images carry their generation parameters in the filename:
//
//	{model}_{W}_{H}_{quality}_{timestamp}[_{prompt}].png
//
// EncodeFilename and DecodeFilename are the only two places that know the
// layout.

const (
	promptFragmentLen = 30
	enhancedSegments  = 5
	// ISO-8601 with ':' and '.' swapped for '-', e.g. 2024-12-20T14-30-22-000Z
	timestampLen = 24
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)
	sizeToken       = regexp.MustCompile(`^\d+x\d+$`)
	qualityTokens   = map[string]bool{
		"standard": true, "hd": true, "auto": true,
		"low": true, "medium": true, "high": true,
	}
)

// FilenameParams are the generation parameters encoded into a filename
type FilenameParams struct {
	Model   string
	Size    string
	Quality string
	Prompt  string
}

// EncodeFilename builds the filename for an image generated at t
func EncodeFilename(p FilenameParams, t time.Time) string {
	model := p.Model
	if model == "" {
		model = "dalle2"
	}
	size := strings.Replace(p.Size, "x", "_", 1)
	if size == "" {
		size = "1024_1024"
	}
	quality := p.Quality
	if quality == "" {
		quality = "auto"
	}

	name := model + "_" + size + "_" + quality + "_" + formatTimestamp(t)
	if fragment := PromptFragment(p.Prompt); fragment != "" {
		name += "_" + fragment
	}
	return name + ".png"
}

// PromptFragment shortens a prompt into something safe for a filename
func PromptFragment(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > promptFragmentLen {
		runes = runes[:promptFragmentLen]
	}
	return nonAlphanumeric.ReplaceAllString(string(runes), "_")
}

// DecodedFilename is what DecodeFilename recovers from a name
type DecodedFilename struct {
	Metadata domain.ImageMetadata
	// GeneratedAt is zero unless the name carries a readable timestamp
	GeneratedAt time.Time
}

// DecodeFilename parses metadata back out of a saved image's name. Images
// whose model is in chatModels are attributed to the chat flow.
//
// Current names are anchored on their timestamp segment, so a size that is
// not WxH (such as "auto") still decodes. Names with fewer than five
// segments and no timestamp predate the current layout and are read token
// by token. For those the type is chosen by the first matching rule:
// contains "chat", then contains "direct" or "dall-e", else unknown.
// Within a field, a later token overrides an earlier one.
func DecodeFilename(filename string, chatModels []string) DecodedFilename {
	out := DecodedFilename{Metadata: domain.ImageMetadata{Type: domain.ImageTypeUnknown}}

	base := filename
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	parts := strings.Split(base, "_")

	ts := timestampIndex(parts)
	if ts < 0 && len(parts) >= enhancedSegments {
		ts = enhancedSegments - 1
	}

	switch {
	case ts >= 0:
		md := &out.Metadata
		md.Model = parts[0]
		md.Size = strings.Join(parts[1:ts-1], "_")
		md.Quality = parts[ts-1]
		out.GeneratedAt = parseTimestamp(parts[ts])
		if len(parts) > ts+1 {
			prompt := strings.Join(parts[ts+1:], " ")
			md.Prompt = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(prompt))
		}
		if strings.Contains(filename, "chat") || contains(chatModels, md.Model) {
			md.Type = domain.ImageTypeChat
		} else {
			md.Type = domain.ImageTypeDirect
		}

	case len(parts) >= 2:
		md := &out.Metadata
		switch {
		case strings.Contains(filename, "chat"):
			md.Type = domain.ImageTypeChat
		case strings.Contains(filename, "direct"), strings.Contains(filename, "dall-e"):
			md.Type = domain.ImageTypeDirect
		}
		for _, part := range parts {
			switch {
			case strings.Contains(part, "dall-e"), strings.Contains(part, "gpt-image"):
				md.Model = part
			case sizeToken.MatchString(part):
				md.Size = part
			case qualityTokens[part]:
				md.Quality = part
			}
		}
	}

	return out
}

// timestampIndex returns the first segment after model, size and quality
// that holds a timestamp, or -1
func timestampIndex(parts []string) int {
	for i := 3; i < len(parts); i++ {
		if !parseTimestamp(parts[i]).IsZero() {
			return i
		}
	}
	return -1
}

func formatTimestamp(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

func parseTimestamp(s string) time.Time {
	if len(s) != timestampLen || s[10] != 'T' || s[23] != 'Z' {
		return time.Time{}
	}
	iso := s[:13] + ":" + s[14:16] + ":" + s[17:19] + "." + s[20:23] + "Z"
	t, err := time.Parse("2006-01-02T15:04:05.000Z", iso)
	if err != nil {
		return time.Time{}
	}
	return t
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v != "" && v == s {
			return true
		}
	}
	return false
}
