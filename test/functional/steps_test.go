package functional

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// aCleanEnvironment is a no-op because the Before hook already sets up
// the environment. This step exists so feature files read naturally.
func aCleanEnvironment(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

// anInputDirectoryContaining creates the listed comma-separated files. Files
// with an image extension get a valid PNG body; anything else gets text.
func anInputDirectoryContaining(ctx context.Context, list string) (context.Context, error) {
	state := getState(ctx)
	if err := os.MkdirAll(state.inputDir(), 0o755); err != nil {
		return ctx, err
	}

	var pngData bytes.Buffer
	if err := png.Encode(&pngData, image.NewGray(image.Rect(0, 0, 8, 8))); err != nil {
		return ctx, err
	}

	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		data := []byte("plain text\n")
		switch strings.ToLower(filepath.Ext(name)) {
		case ".png", ".jpg", ".gif":
			data = pngData.Bytes()
		}
		if err := os.WriteFile(filepath.Join(state.inputDir(), name), data, 0o644); err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func theInputFileIsNotAnImage(ctx context.Context, name string) (context.Context, error) {
	state := getState(ctx)
	return ctx, os.WriteFile(filepath.Join(state.inputDir(), name), []byte("not an image"), 0o644)
}

func anAnthropicAPIKeyIsConfigured(ctx context.Context) (context.Context, error) {
	state := getState(ctx)
	state.env = append(state.env, "ANTHROPIC_API_KEY=functional-test-key")
	return ctx, nil
}

// startAPI serves the Anthropic messages endpoint. Requests whose 1-based
// number is in reject receive a 400 error.
func startAPI(state *testState, text string, reject map[int]bool) {
	var mu sync.Mutex
	state.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		state.apiCalls++
		n := state.apiCalls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v1/messages" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"not_found_error","message":"no such endpoint"}}`))
			return
		}
		if reject[n] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"could not process image"}}`))
			return
		}
		fmt.Fprintf(w, `{"id":"msg_%d","type":"message","role":"assistant","model":"claude-test",`+
			`"content":[{"type":"text","text":%q}],"stop_reason":"end_turn",`+
			`"usage":{"input_tokens":1000,"output_tokens":40}}`, n, text)
	}))
}

func theRecognitionAPIAnswers(ctx context.Context, text string) (context.Context, error) {
	startAPI(getState(ctx), text, nil)
	return ctx, nil
}

func theRecognitionAPIRejectsRequest(ctx context.Context, n int) (context.Context, error) {
	state := getState(ctx)
	if state.api != nil {
		state.api.Close()
	}
	startAPI(state, "TEXT", map[int]bool{n: true})
	return ctx, nil
}

// iRun executes a command string, replacing "ocrbatch" with the test binary path.
func iRun(ctx context.Context, command string) (context.Context, error) {
	state := getState(ctx)
	if state == nil {
		return ctx, fmt.Errorf("no test state; is the Before hook running?")
	}

	args := strings.Fields(command)
	if len(args) > 0 && args[0] == "ocrbatch" {
		args[0] = state.binPath
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = state.workDir

	env := make([]string, 0, len(os.Environ())+8)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "OCRBATCH_") ||
			strings.HasPrefix(kv, "ANTHROPIC_API_KEY=") ||
			strings.HasPrefix(kv, "GOOGLE_API_KEY=") ||
			strings.HasPrefix(kv, "GEMINI_API_KEY=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env,
		"OCRBATCH_HOME="+state.homeDir,
		"OCRBATCH_INPUT_DIR="+state.inputDir(),
		"OCRBATCH_OUTPUT_DIR="+state.outputDir(),
		"OCRBATCH_DELAY_MS=0",
	)
	if state.api != nil {
		env = append(env, "OCRBATCH_API_BASE_URL="+state.api.URL)
	}
	cmd.Env = append(env, state.env...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	state.stdout = stdout.String()
	state.stderr = stderr.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			state.exitCode = exitErr.ExitCode()
		} else {
			return ctx, fmt.Errorf("command execution failed: %w", err)
		}
	} else {
		state.exitCode = 0
	}

	return ctx, nil
}

func theExitCodeIs(ctx context.Context, expected int) error {
	state := getState(ctx)
	if state.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nstdout: %s\nstderr: %s",
			expected, state.exitCode, state.stdout, state.stderr)
	}
	return nil
}

func theOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theOutputDoesNotContain(ctx context.Context, text string) error {
	state := getState(ctx)
	if strings.Contains(state.stdout, text) {
		return fmt.Errorf("expected stdout not to contain %q, got:\n%s", text, state.stdout)
	}
	return nil
}

func theErrorOutputContains(ctx context.Context, text string) error {
	state := getState(ctx)
	if !strings.Contains(state.stderr, text) {
		return fmt.Errorf("expected stderr to contain %q, got:\n%s", text, state.stderr)
	}
	return nil
}

func theRecognitionAPIReceived(ctx context.Context, n int) error {
	state := getState(ctx)
	if state.apiCalls != n {
		return fmt.Errorf("expected %d API requests, got %d", n, state.apiCalls)
	}
	return nil
}

func reports(state *testState) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(state.outputDir(), "results-*.txt*"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func aReportIsWritten(ctx context.Context) error {
	found, err := reports(getState(ctx))
	if err != nil {
		return err
	}
	if len(found) != 1 {
		return fmt.Errorf("expected exactly one report, found %v", found)
	}
	return nil
}

func noReportIsWritten(ctx context.Context) error {
	found, err := reports(getState(ctx))
	if err != nil {
		return err
	}
	if len(found) != 0 {
		return fmt.Errorf("expected no report, found %v", found)
	}
	return nil
}

func readReport(state *testState) (string, error) {
	found, err := reports(state)
	if err != nil {
		return "", err
	}
	if len(found) != 1 {
		return "", fmt.Errorf("expected exactly one report, found %v", found)
	}
	data, err := os.ReadFile(found[0])
	return string(data), err
}

func theReportContains(ctx context.Context, text string) error {
	content, err := readReport(getState(ctx))
	if err != nil {
		return err
	}
	if !strings.Contains(content, text) {
		return fmt.Errorf("expected report to contain %q, got:\n%s", text, content)
	}
	return nil
}

func theReportDoesNotContain(ctx context.Context, text string) error {
	content, err := readReport(getState(ctx))
	if err != nil {
		return err
	}
	if strings.Contains(content, text) {
		return fmt.Errorf("expected report not to contain %q, got:\n%s", text, content)
	}
	return nil
}
