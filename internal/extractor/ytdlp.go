package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vidscribe/transcript/internal/captions"
	"github.com/vidscribe/transcript/internal/config"
	"github.com/vidscribe/transcript/internal/logging"
)

const (
	ytdlpStrategyName     = "yt-dlp"
	ytdlpStrategyPriority = 30
	watchURLPrefix        = "https://www.youtube.com/watch?v="

	// fallbackExtractorArgs is the client spec used when no
	// proof-of-origin token could be obtained.
	fallbackExtractorArgs = "youtube:player_client=default,mweb"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// YtDlpStrategy extracts captions by spawning the yt-dlp binary in
// captions-only mode into a per-call scratch directory. The scratch
// directory is removed on every exit path.
type YtDlpStrategy struct {
	base
	binPath      string
	cookiesFile  string
	sourceAddrs  []string
	workRoot     string
	probeTimeout time.Duration
	tokens       TokenProvider
	log          *logging.Logger

	addrCounter atomic.Uint64
}

// NewYtDlpStrategy builds the strategy from configuration. tokens may
// be nil when no provider is configured; extraction then always uses
// the fallback client arguments.
func NewYtDlpStrategy(cfg config.ExtractorConfig, tokens TokenProvider, log *logging.Logger) *YtDlpStrategy {
	return &YtDlpStrategy{
		base: newBase(Descriptor{
			Name:     ytdlpStrategyName,
			Timeout:  cfg.DefaultTimeout,
			Priority: ytdlpStrategyPriority,
		}),
		binPath:      cfg.YtDlpPath,
		cookiesFile:  cfg.CookiesFile,
		sourceAddrs:  cfg.SourceAddresses,
		workRoot:     cfg.WorkDir,
		probeTimeout: cfg.ProbeTimeout,
		tokens:       tokens,
		log:          log.WithStrategy(ytdlpStrategyName),
	}
}

// Available probes the binary with a version check under a short
// timeout. Side-effect-free with respect to any target video.
func (s *YtDlpStrategy) Available(ctx context.Context) bool {
	timeout := s.probeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	result := runCommand(ctx, timeout, s.binPath, "--version")
	return result.ExitCode == 0 && !result.TimedOut
}

// Extract implements the Strategy contract
func (s *YtDlpStrategy) Extract(ctx context.Context, req Request) Outcome {
	req = req.withDefaults()
	log := s.log.WithVideoID(req.VideoID)

	scratch, err := s.makeScratchDir(req)
	if err != nil {
		return failed(s.Name(), KindUnknown, fmt.Sprintf("failed to create scratch directory: %v", err))
	}
	// Scoped resource: removed on success, failure and every early
	// return below.
	defer os.RemoveAll(scratch)

	args := s.buildArgs(ctx, req, scratch, log)

	result := runCommand(ctx, s.effectiveTimeout(req), s.binPath, args...)
	if result.TimedOut {
		return failed(s.Name(), KindTimeout, fmt.Sprintf("yt-dlp timed out after %v for video %s", s.effectiveTimeout(req), req.VideoID))
	}
	if result.ExitCode != 0 {
		kind := classifyYtDlpError(result.Stderr)
		return failed(s.Name(), kind, publicError(result.Stderr))
	}

	file, language := pickCaptionFile(scratch, req.Languages)
	if file == "" {
		return failed(s.Name(), KindNoCaptions, fmt.Sprintf("yt-dlp produced no caption files for video %s", req.VideoID))
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return failed(s.Name(), KindUnknown, fmt.Sprintf("failed to read caption file: %v", err))
	}

	segments := captions.Deduplicate(captions.ParseVTT(data))
	if len(segments) == 0 {
		return failed(s.Name(), KindNoCaptions, fmt.Sprintf("caption file for video %s contained no usable cues", req.VideoID))
	}

	return Outcome{
		Success:    true,
		Transcript: captions.Transcript(segments, req.Timestamps),
		Language:   language,
		Source:     s.Name(),
	}
}

func (s *YtDlpStrategy) makeScratchDir(req Request) (string, error) {
	root := req.WorkDir
	if root == "" {
		root = s.workRoot
	}
	if root == "" {
		root = os.TempDir()
	}

	scratch := filepath.Join(root, "ytdlp-"+uuid.New().String())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", err
	}
	return scratch, nil
}

// buildArgs assembles the argument vector: captions-only mode, the
// language spec, browser-like headers, conservative pacing, the
// token-derived extractor arguments (or the fallback client), the
// rotated source address and the staged cookies file when present.
func (s *YtDlpStrategy) buildArgs(ctx context.Context, req Request, scratch string, log *logging.Logger) []string {
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", subtitleLangSpec(req.Languages),
		"--sub-format", "vtt",
		"--output", filepath.Join(scratch, "%(id)s.%(ext)s"),
		"--no-playlist",
		"--no-warnings",
		"--user-agent", browserUserAgent,
		"--add-header", "Accept-Language:en-US,en;q=0.9",
		"--sleep-requests", "1",
		"--sleep-subtitles", "1",
	}

	extractorArgs := fallbackExtractorArgs
	if s.tokens != nil {
		token := s.tokens.GetToken(ctx, TokenRequest{
			VideoID:       req.VideoID,
			CorrelationID: uuid.New().String(),
			Client:        "web",
			Context:       "subtitles",
		})
		if token.Success {
			extractorArgs = token.ExtractorArgs
		} else {
			log.Debugf("Token provider degraded, using fallback client: %s", token.Error)
		}
	}
	args = append(args, "--extractor-args", extractorArgs)

	if addr := s.nextSourceAddress(); addr != "" {
		args = append(args, "--source-address", addr)
	}

	if cookies := s.stageCookies(scratch, log); cookies != "" {
		args = append(args, "--cookies", cookies)
	}

	return append(args, watchURLPrefix+req.VideoID)
}

// nextSourceAddress round-robins over the configured source addresses
// to spread per-IP rate limiting.
func (s *YtDlpStrategy) nextSourceAddress() string {
	if len(s.sourceAddrs) == 0 {
		return ""
	}
	n := s.addrCounter.Add(1)
	return s.sourceAddrs[(n-1)%uint64(len(s.sourceAddrs))]
}

// stageCookies copies the configured cookies file into the scratch
// directory. yt-dlp rewrites the cookies file it is given, which fails
// on read-only mounts; the copy sidesteps that. A copy failure is
// logged and extraction proceeds without cookies.
func (s *YtDlpStrategy) stageCookies(scratch string, log *logging.Logger) string {
	if s.cookiesFile == "" {
		return ""
	}

	data, err := os.ReadFile(s.cookiesFile)
	if err != nil {
		log.Warnf("Failed to read cookies file %s: %v", s.cookiesFile, err)
		return ""
	}

	staged := filepath.Join(scratch, "cookies.txt")
	if err := os.WriteFile(staged, data, 0o600); err != nil {
		log.Warnf("Failed to stage cookies file: %v", err)
		return ""
	}

	return staged
}

// subtitleLangSpec converts preferred languages into a yt-dlp
// --sub-langs value. "en" also matches regional variants via "en.*";
// the wildcard becomes "all".
func subtitleLangSpec(languages []string) string {
	seen := make(map[string]bool)
	var parts []string

	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		parts = append(parts, p)
	}

	for _, lang := range languages {
		if lang == "*" {
			add("all")
			add("-live_chat")
			continue
		}
		add(lang)
		add(lang + ".*")
	}

	if len(parts) == 0 {
		return "en,en.*"
	}

	return strings.Join(parts, ",")
}

// pickCaptionFile scans the scratch directory for produced .vtt files,
// preferring filenames that signal an earlier preferred language.
// Returns the chosen path and the language parsed from the filename.
func pickCaptionFile(scratch string, preferred []string) (string, string) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return "", ""
	}

	type candidate struct {
		path string
		lang string
		rank int
	}

	var candidates []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".vtt") {
			continue
		}

		lang := captionFileLanguage(name)
		candidates = append(candidates, candidate{
			path: filepath.Join(scratch, name),
			lang: lang,
			rank: languageRank(lang, preferred),
		})
	}

	if len(candidates) == 0 {
		return "", ""
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].path < candidates[j].path
	})

	return candidates[0].path, candidates[0].lang
}

// captionFileLanguage extracts the language tag from names like
// "dQw4w9WgXcQ.en.vtt".
func captionFileLanguage(name string) string {
	name = strings.TrimSuffix(name, ".vtt")
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return ""
}

// ytdlpRule maps a yt-dlp stderr signature to an error kind. These
// domain signatures run before the shared classifier because yt-dlp's
// phrasing would otherwise hit the wrong generic bucket.
type ytdlpRule struct {
	kind    ErrorKind
	matches []string
}

var ytdlpRules = []ytdlpRule{
	{KindPOTokenError, []string{"po token", "proof of origin", "http error 403", "403 forbidden"}},
	{KindVideoPrivate, []string{"private video", "this video is private"}},
	{KindVideoUnavailable, []string{"video unavailable", "has been removed", "account associated"}},
	{KindVideoLive, []string{"live event", "this live stream", "premieres in"}},
	{KindAgeRestricted, []string{"sign in to confirm your age", "age-restricted", "inappropriate for some users"}},
	{KindNoCaptions, []string{"no subtitles", "there are no subtitles", "unable to download video subtitles"}},
	{KindRateLimited, []string{"http error 429", "too many requests"}},
	{KindTimeout, []string{"timed out", "timeout"}},
}

func classifyYtDlpError(stderr string) ErrorKind {
	msg := strings.ToLower(stderr)

	for _, rule := range ytdlpRules {
		for _, m := range rule.matches {
			if strings.Contains(msg, m) {
				return rule.kind
			}
		}
	}

	return Classify(stderr)
}
