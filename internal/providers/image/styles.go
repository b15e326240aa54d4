package image

import (
	"fmt"
	"strings"
)

// NegativePrompt lists artefacts the diffusion vendors are told to avoid.
const NegativePrompt = "blurry, bad quality, distorted, ugly, deformed"

// StyleEnhancers maps a style preset to the wording appended to the prompt.
var StyleEnhancers = map[string]string{
	"instagram":  "professional Instagram photography style, high quality, aesthetic, trending on Instagram",
	"story":      "vertical mobile format, Instagram story style, eye-catching, vibrant",
	"youtube":    "YouTube thumbnail style, bold, eye-catching, high contrast, professional",
	"tiktok":     "TikTok viral content style, trendy, Gen-Z aesthetic, engaging",
	"product":    "professional product photography, studio lighting, clean background, commercial quality",
	"lifestyle":  "lifestyle photography, natural lighting, authentic, aspirational",
	"flatlay":    "flat lay photography, top-down view, organized aesthetic, Instagram flat lay style",
	"portrait":   "professional portrait photography, beautiful lighting, shallow depth of field",
	"minimalist": "minimalist style, clean, simple, lots of white space, modern",
	"vibrant":    "vibrant colors, bold, colorful, eye-catching, saturated",
	"dark":       "dark moody aesthetic, dramatic lighting, cinematic, atmospheric",
	"bright":     "bright and airy, light and fresh, soft pastel tones, clean aesthetic",
}

// EnhancePrompt appends the style enhancer for style, if any.
func EnhancePrompt(prompt, style string) string {
	prompt = strings.TrimSpace(prompt)
	enhancer := StyleEnhancers[normalizeKey(style)]
	if enhancer == "" {
		return prompt
	}
	return fmt.Sprintf("%s. %s", prompt, enhancer)
}

// Dimensions is a pixel size.
type Dimensions struct {
	Width  int
	Height int
}

var (
	dalleSizes = map[string]string{
		"1:1":  "1024x1024",
		"16:9": "1792x1024",
		"9:16": "1024x1792",
		"4:5":  "1024x1024",
		"2:3":  "1024x1792",
	}
	stabilityDimensions = map[string]Dimensions{
		"1:1":  {Width: 1024, Height: 1024},
		"16:9": {Width: 1344, Height: 768},
		"9:16": {Width: 768, Height: 1344},
		"4:5":  {Width: 896, Height: 1152},
		"2:3":  {Width: 832, Height: 1216},
	}
	ideogramAspects = map[string]string{
		"1:1":  "ASPECT_1_1",
		"16:9": "ASPECT_16_9",
		"9:16": "ASPECT_9_16",
		"4:5":  "ASPECT_4_5",
		"2:3":  "ASPECT_2_3",
	}
)

// DallESize maps an aspect ratio onto the closest size DALL-E 3 accepts.
func DallESize(aspect string) string {
	if size, ok := dalleSizes[strings.TrimSpace(aspect)]; ok {
		return size
	}
	return "1024x1024"
}

// StabilityDimensions maps an aspect ratio onto an SDXL-friendly size.
func StabilityDimensions(aspect string) Dimensions {
	if d, ok := stabilityDimensions[strings.TrimSpace(aspect)]; ok {
		return d
	}
	return Dimensions{Width: 1024, Height: 1024}
}

// FluxAspect passes through the ratios Flux understands.
func FluxAspect(aspect string) string {
	aspect = strings.TrimSpace(aspect)
	if _, ok := ideogramAspects[aspect]; ok {
		return aspect
	}
	return "1:1"
}

// IdeogramAspect maps an aspect ratio onto Ideogram's enum.
func IdeogramAspect(aspect string) string {
	if a, ok := ideogramAspects[strings.TrimSpace(aspect)]; ok {
		return a
	}
	return "ASPECT_1_1"
}

// IdeogramStyle maps a style preset onto Ideogram's style_type.
func IdeogramStyle(style string) string {
	key := normalizeKey(style)
	switch {
	case key == "minimalist":
		return "DESIGN"
	case StyleEnhancers[key] != "":
		return "REALISTIC"
	default:
		return "AUTO"
	}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
