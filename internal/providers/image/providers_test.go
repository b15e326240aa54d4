package image

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/storage"
)

func TestEnhancePromptAndMaps(t *testing.T) {
	if got := EnhancePrompt(" red sock ", "Product"); !strings.HasPrefix(got, "red sock. professional product photography") {
		t.Fatalf("unexpected enhanced prompt %q", got)
	}
	if got := EnhancePrompt("red sock", "unknown"); got != "red sock" {
		t.Fatalf("unknown style should not change prompt, got %q", got)
	}
	if DallESize("16:9") != "1792x1024" || DallESize("4:5") != "1024x1024" || DallESize("") != "1024x1024" {
		t.Fatalf("unexpected dall-e sizes")
	}
	if d := StabilityDimensions("2:3"); d.Width != 832 || d.Height != 1216 {
		t.Fatalf("unexpected stability dimensions %+v", d)
	}
	if IdeogramAspect("9:16") != "ASPECT_9_16" || IdeogramAspect("7:3") != "ASPECT_1_1" {
		t.Fatalf("unexpected ideogram aspects")
	}
	if IdeogramStyle("minimalist") != "DESIGN" || IdeogramStyle("dark") != "REALISTIC" || IdeogramStyle("") != "AUTO" {
		t.Fatalf("unexpected ideogram styles")
	}
	if FluxAspect("4:5") != "4:5" || FluxAspect("3:1") != "1:1" {
		t.Fatalf("unexpected flux aspects")
	}
}

func TestFluxSubmitAndPoll(t *testing.T) {
	rec := &recorder{}
	status := "starting"
	p, err := NewFlux(testOptions(func(r *http.Request) (*http.Response, error) {
		rec.record(r)
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("authorization header = %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			return jsonResponse(http.StatusCreated, map[string]any{"id": "pred-1", "status": "starting"}), nil
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/pred-1":
			if status == "succeeded" {
				return jsonResponse(http.StatusOK, map[string]any{"id": "pred-1", "status": status, "output": []string{"https://replicate.delivery/out.webp"}}), nil
			}
			return jsonResponse(http.StatusOK, map[string]any{"id": "pred-1", "status": status}), nil
		}
		return jsonResponse(http.StatusNotFound, map[string]any{"detail": "not found"}), nil
	}))
	if err != nil {
		t.Fatalf("NewFlux: %v", err)
	}

	job, err := p.Submit(context.Background(), domain.ImageOptions{Prompt: "wool sock", Style: "flatlay", AspectRatio: "4:5", Quality: "hd"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.ID != "pred-1" || job.State != domain.JobStateSubmitted || job.Provider != "flux" {
		t.Fatalf("unexpected submitted job %+v", job)
	}
	input, _ := rec.bodies[0]["input"].(map[string]any)
	if input["output_quality"] != float64(100) || input["aspect_ratio"] != "4:5" {
		t.Fatalf("unexpected flux input %#v", input)
	}

	status = "processing"
	job, err = p.Poll(context.Background(), job)
	if err != nil || job.State != domain.JobStateProcessing {
		t.Fatalf("expected processing, got %+v err=%v", job, err)
	}
	status = "succeeded"
	job, err = p.Poll(context.Background(), job)
	if err != nil || job.State != domain.JobStateSucceeded || job.ArtifactURL != "https://replicate.delivery/out.webp" {
		t.Fatalf("expected succeeded, got %+v err=%v", job, err)
	}
}

func TestReplicateFailedPredictionKeepsMessage(t *testing.T) {
	p, _ := NewReplicate(testOptions(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{"id": "pred-2", "status": "failed", "error": "NSFW content detected"}), nil
	}))
	job, err := p.Poll(context.Background(), domain.ExternalJob{ID: "pred-2"})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if job.State != domain.JobStateFailed || job.Error != "NSFW content detected" {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestReplicatePollDoesNotRetryTransientStatus(t *testing.T) {
	calls := 0
	p, _ := NewReplicate(testOptions(func(r *http.Request) (*http.Response, error) {
		calls++
		return jsonResponse(http.StatusServiceUnavailable, map[string]any{"detail": "overloaded"}), nil
	}))
	if _, err := p.Poll(context.Background(), domain.ExternalJob{ID: "pred-3"}); err == nil {
		t.Fatalf("expected poll error")
	}
	if calls != 1 {
		t.Fatalf("poll should make one request, got %d", calls)
	}
}

func TestReplicateSDXLInput(t *testing.T) {
	in := sdxlInput(domain.ImageOptions{Prompt: "p", AspectRatio: "16:9"})
	if in["width"] != 1344 || in["height"] != 768 || in["negative_prompt"] != NegativePrompt {
		t.Fatalf("unexpected sdxl input %#v", in)
	}
	if firstOutput([]byte(`"https://x/y.png"`)) != "https://x/y.png" {
		t.Fatalf("scalar output not parsed")
	}
}

func TestIdeogramSubmit(t *testing.T) {
	rec := &recorder{}
	p, err := NewIdeogram(testOptions(func(r *http.Request) (*http.Response, error) {
		rec.record(r)
		if r.Header.Get("Api-Key") != "test-key" {
			t.Errorf("missing Api-Key header")
		}
		return jsonResponse(http.StatusOK, map[string]any{"data": []map[string]any{{"url": "https://ideogram/img.png", "prompt": "revised"}}}), nil
	}))
	if err != nil {
		t.Fatalf("NewIdeogram: %v", err)
	}
	job, err := p.Submit(context.Background(), domain.ImageOptions{Prompt: "sale poster", Style: "minimalist", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.State != domain.JobStateSucceeded || job.ArtifactURL != "https://ideogram/img.png" || job.RevisedPrompt != "revised" {
		t.Fatalf("unexpected job %+v", job)
	}
	req, _ := rec.bodies[0]["image_request"].(map[string]any)
	if req["aspect_ratio"] != "ASPECT_16_9" || req["style_type"] != "DESIGN" {
		t.Fatalf("unexpected ideogram request %#v", req)
	}
}

func TestStabilityWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	png := []byte("\x89PNG fake")
	p, err := NewStability(testOptions(func(r *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(r.URL.Path, "/text-to-image") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, map[string]any{"artifacts": []map[string]any{{"base64": base64.StdEncoding.EncodeToString(png), "finishReason": "SUCCESS"}}}), nil
	}), store)
	if err != nil {
		t.Fatalf("NewStability: %v", err)
	}
	job, err := p.Submit(context.Background(), domain.ImageOptions{Prompt: "mug"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(job.ArtifactURL, "http://localhost:8080/static/stability/") {
		t.Fatalf("unexpected locator %q", job.ArtifactURL)
	}
	key := strings.TrimPrefix(job.ArtifactURL, "http://localhost:8080/static/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	if err != nil || string(data) != string(png) {
		t.Fatalf("artifact not written: %v", err)
	}
}

func TestDallESubmit(t *testing.T) {
	rec := &recorder{}
	p, err := NewDallE(testOptions(func(r *http.Request) (*http.Response, error) {
		rec.record(r)
		if !strings.HasSuffix(r.URL.Path, "/images/generations") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		return jsonResponse(http.StatusOK, map[string]any{
			"created": 1,
			"data":    []map[string]any{{"url": "https://oaidalle/img.png", "revised_prompt": "a red wool sock"}},
		}), nil
	}))
	if err != nil {
		t.Fatalf("NewDallE: %v", err)
	}
	job, err := p.Submit(context.Background(), domain.ImageOptions{Prompt: "sock", AspectRatio: "9:16", Quality: "hd"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.State != domain.JobStateSucceeded || job.ArtifactURL != "https://oaidalle/img.png" || job.RevisedPrompt != "a red wool sock" {
		t.Fatalf("unexpected job %+v", job)
	}
	body := rec.bodies[0]
	if body["size"] != "1024x1792" || body["quality"] != "hd" || body["model"] != "dall-e-3" {
		t.Fatalf("unexpected request %#v", body)
	}
}

func TestDallEErrorMessagePassesThrough(t *testing.T) {
	p, _ := NewDallE(testOptions(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "Your request was rejected by the safety system.", "type": "invalid_request_error"}}), nil
	}))
	_, err := p.Submit(context.Background(), domain.ImageOptions{Prompt: "x"})
	if err == nil || err.Error() != "Your request was rejected by the safety system." {
		t.Fatalf("expected verbatim message, got %v", err)
	}
}

func TestSyntheticCompletesAfterPolls(t *testing.T) {
	s := NewSynthetic(2, "https://cdn.test/")
	job, err := s.Submit(context.Background(), domain.ImageOptions{Prompt: "p"})
	if err != nil || job.State != domain.JobStateSubmitted {
		t.Fatalf("unexpected submit %+v %v", job, err)
	}
	job.Attempts = 1
	job, _ = s.Poll(context.Background(), job)
	if job.State != domain.JobStateProcessing {
		t.Fatalf("expected processing after first poll, got %s", job.State)
	}
	job.Attempts = 2
	job, _ = s.Poll(context.Background(), job)
	if job.State != domain.JobStateSucceeded || !strings.HasPrefix(job.ArtifactURL, "https://cdn.test/synthetic/") {
		t.Fatalf("unexpected final job %+v", job)
	}
}
