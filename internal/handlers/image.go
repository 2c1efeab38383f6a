package handlers

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/auraproject/aura/internal/model/turn"
)

// ImageService generates images through a pollinations-style GET endpoint
// and stores them on disk. The payload is the list of file paths.
type ImageService struct {
	baseURL string
	outDir  string
	count   int
	client  *http.Client
	seed    func() int
}

// NewImageService builds the handler. count controls how many variations are
// generated per prompt.
func NewImageService(baseURL, outDir string, count int, timeout time.Duration) *ImageService {
	if count <= 0 {
		count = 1
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ImageService{
		baseURL: strings.TrimRight(baseURL, "/"),
		outDir:  outDir,
		count:   count,
		client:  &http.Client{Timeout: timeout},
		seed:    func() int { return rand.Intn(1_000_000) },
	}
}

// Run generates and stores the images. A partial batch is still an error;
// the dispatcher decides how to report it.
func (s *ImageService) Run(ctx context.Context, params turn.ImageParams, emotion turn.EmotionTag, window []turn.ConversationTurn) ([]string, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, fmt.Errorf("empty image prompt")
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}

	paths := make([]string, 0, s.count)
	for i := 0; i < s.count; i++ {
		path, err := s.generateOne(ctx, params.Prompt, i)
		if err != nil {
			return paths, fmt.Errorf("image %d of %d: %w", i+1, s.count, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *ImageService) generateOne(ctx context.Context, prompt string, index int) (string, error) {
	endpoint := fmt.Sprintf("%s/prompt/%s?width=1024&height=1024&seed=%d&nologo=true",
		s.baseURL, url.PathEscape(prompt), s.seed())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build image request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image endpoint returned status %d", resp.StatusCode)
	}

	name := fmt.Sprintf("%s_%d_%d.jpg", slugify(prompt), time.Now().Unix(), index+1)
	path := filepath.Join(s.outDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("write image file: %w", err)
	}
	return path, nil
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 24 {
		s = s[:24]
	}
	var builder strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			builder.WriteRune('_')
		}
	}
	if builder.Len() == 0 {
		return "image"
	}
	return builder.String()
}
