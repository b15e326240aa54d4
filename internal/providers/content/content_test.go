package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body any) *http.Response {
	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

const copyJSON = `{"headline":"Warm Wool Socks","body":"Soft and warm.\n\nBuy now.","meta_description":"Wool socks for winter","feature_bullets":["Merino","Merino","Seamless toe"],"seo_keywords":["wool socks","winter socks"]}`

func sampleInput(t *testing.T) domain.GenerationInput {
	return domain.GenerationInput{
		Image:    domain.ImageRef{Data: pngBytes(t, 64, 64), MIMEType: "image/png"},
		Title:    "wool socks",
		Keywords: []string{"merino", " ", "Merino"},
		Language: "sv-SE",
		Tone:     "friendly",
		Audience: "parents",
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := map[string]string{"": "en", "SV": "sv", "sv-SE": "sv", "nb_NO": "no", "de": "en", "fi": "fi"}
	for in, want := range tests {
		if got := ResolveLanguage(in); got != want {
			t.Fatalf("ResolveLanguage(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPromptCarriesStyleProfile(t *testing.T) {
	in := sampleInput(t)
	in.BrandVoice = "calm Nordic"
	got := BuildPrompt(in)
	for _, want := range []string{"Swedish (Svenska)", tones["friendly"], audiences["parents"], `"calm Nordic"`, "User keywords: merino."} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
}

func TestToCopyHandlesFencesAndDedupes(t *testing.T) {
	pc, err := toCopy("```json\n"+copyJSON+"\n```", domain.GenerationInput{Title: "socks"}, "gemini")
	if err != nil {
		t.Fatalf("toCopy: %v", err)
	}
	if pc.Headline != "Warm Wool Socks" || len(pc.FeatureBullets) != 2 || pc.Provider != "gemini" {
		t.Fatalf("unexpected copy %+v", pc)
	}
	if _, err := toCopy(`{"headline":""}`, domain.GenerationInput{}, "gemini"); err == nil {
		t.Fatalf("expected error for empty headline")
	}
	if _, err := toCopy("not json", domain.GenerationInput{}, "gemini"); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestGeminiGenerate(t *testing.T) {
	var captured geminiRequest
	g, err := NewGemini(Options{
		APIKey:  "key",
		BaseURL: "https://gemini.test/v1beta",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/v1beta/models/gemini-2.0-flash:generateContent" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("x-goog-api-key") != "key" {
				t.Errorf("missing api key header")
			}
			_ = json.NewDecoder(r.Body).Decode(&captured)
			return jsonResponse(http.StatusOK, map[string]any{
				"candidates": []map[string]any{{"content": map[string]any{"parts": []map[string]any{{"text": copyJSON}}}}},
			}), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	pc, err := g.Generate(context.Background(), sampleInput(t))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pc.Headline != "Warm Wool Socks" || pc.Provider != geminiProviderName {
		t.Fatalf("unexpected copy %+v", pc)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 || parts[0].InlineData == nil || parts[0].InlineData.MimeType != "image/png" {
		t.Fatalf("expected inline image part, got %+v", parts)
	}
	if captured.GenerationConfig.ResponseMimeType != "application/json" || captured.GenerationConfig.ResponseSchema == nil {
		t.Fatalf("expected json response schema, got %+v", captured.GenerationConfig)
	}
}

func TestGeminiErrorMessagePassesThrough(t *testing.T) {
	g, _ := NewGemini(Options{
		APIKey: "key",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusTooManyRequests, map[string]any{"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"}}), nil
		})},
	})
	_, err := g.Generate(context.Background(), sampleInput(t))
	if err == nil || err.Error() != "Resource has been exhausted" {
		t.Fatalf("expected vendor message, got %v", err)
	}
}

func TestOpenAIGenerateSendsImagePart(t *testing.T) {
	var body map[string]any
	o, err := NewOpenAI(Options{
		APIKey:  "key",
		BaseURL: "https://openai.test/v1",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			_ = json.NewDecoder(r.Body).Decode(&body)
			return jsonResponse(http.StatusOK, map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion",
				"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": copyJSON}, "finish_reason": "stop"}},
			}), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	in := sampleInput(t)
	in.Image = domain.ImageRef{URL: "https://cdn.test/sock.jpg"}
	pc, err := o.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pc.Provider != openAIProviderName {
		t.Fatalf("Provider = %q", pc.Provider)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %#v", body["response_format"])
	}
	raw, _ := json.Marshal(body["messages"])
	if !strings.Contains(string(raw), "https://cdn.test/sock.jpg") {
		t.Fatalf("image url not forwarded: %s", raw)
	}
}

func TestStaticGeneratorIsDeterministic(t *testing.T) {
	s := NewStatic()
	in := sampleInput(t)
	a, err := s.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := s.Generate(context.Background(), in)
	if a.Headline != b.Headline || a.Body != b.Body {
		t.Fatalf("static output differs between calls")
	}
	if a.Headline != "Upptäck Wool Socks" {
		t.Fatalf("Headline = %q", a.Headline)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Generate(ctx, in); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestPreprocessorDownscalesLargePhotos(t *testing.T) {
	p := NewPreprocessor(nil, 512)
	photo, err := p.Load(context.Background(), domain.ImageRef{Data: pngBytes(t, 2000, 1000)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if photo.MIMEType != "image/jpeg" {
		t.Fatalf("MIMEType = %q", photo.MIMEType)
	}
	img, err := imaging.Decode(bytes.NewReader(photo.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 256 {
		t.Fatalf("unexpected bounds %v", b)
	}

	small := pngBytes(t, 100, 100)
	photo, _ = p.Load(context.Background(), domain.ImageRef{Data: small})
	if !bytes.Equal(photo.Data, small) || photo.MIMEType != "image/png" {
		t.Fatalf("small photo should pass through")
	}
}

func TestPreprocessorDecodesDataURL(t *testing.T) {
	p := NewPreprocessor(nil, 0)
	src := Photo{Data: []byte("abc"), MIMEType: "image/webp"}
	photo, err := p.Load(context.Background(), domain.ImageRef{URL: src.DataURL()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(photo.Data) != "abc" || photo.MIMEType != "image/webp" {
		t.Fatalf("unexpected photo %+v", photo)
	}
}

func TestRouterResolve(t *testing.T) {
	r, err := NewRouter("static", NewStatic())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	if _, err := r.Resolve("STATIC"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := r.Resolve("midjourney"); domain.KindOf(err) != domain.KindInvalidInput {
		t.Fatalf("expected invalid_input, got %v", err)
	}
	if _, err := NewRouter("gemini", NewStatic()); err == nil {
		t.Fatalf("expected error for unconfigured default")
	}
}
