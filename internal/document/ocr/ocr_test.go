package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "enrollment/pkg/domain-errors"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	run    func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
	output string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.run != nil {
		return f.run(ctx, name, args...)
	}
	return []byte(f.output), nil, nil
}

func newTestEngine(r Runner, timeout time.Duration) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEngine(Config{Languages: "eng+mar", Timeout: timeout}, logger, WithRunner(r))
}

func TestRecognize_Image(t *testing.T) {
	runner := &fakeRunner{output: "  Government of India\nAadhaar  \n"}
	engine := newTestEngine(runner, 0)

	text, err := engine.Recognize(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "Government of India\nAadhaar", text)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "tesseract", runner.calls[0].name)
	assert.Equal(t, []string{"stdout", "-l", "eng+mar"}, runner.calls[0].args[1:])
}

func TestRecognize_ScannedPDFIsRasterized(t *testing.T) {
	runner := &fakeRunner{}
	runner.run = func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if name == "pdftoppm" {
			prefix := args[len(args)-1]
			for _, page := range []string{"-1.png", "-2.png"} {
				require.NoError(t, os.WriteFile(prefix+page, []byte("png"), 0o600))
			}
			return nil, nil, nil
		}
		return []byte("page text"), nil, nil
	}
	engine := newTestEngine(runner, 0)

	text, err := engine.Recognize(context.Background(), []byte("%PDF-1.4 not really a pdf"))
	require.NoError(t, err)
	assert.Equal(t, "page text\npage text", text)
	require.Len(t, runner.calls, 3)
	assert.Equal(t, "pdftoppm", runner.calls[0].name)
}

func TestRecognize_EngineFailureIsUnavailable(t *testing.T) {
	runner := &fakeRunner{run: func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file"), errors.New("exit status 1")
	}}
	engine := newTestEngine(runner, 0)

	_, err := engine.Recognize(context.Background(), []byte("jpeg"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestRecognize_TimeoutIsTyped(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}}
	engine := newTestEngine(runner, 10*time.Millisecond)

	_, err := engine.Recognize(context.Background(), []byte("jpeg"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

//go:generate mockgen -source=ocr.go -destination=mocks/mocks.go -package=mocks Recognizer

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n")))
	assert.False(t, IsPDF([]byte("PDF")))
	assert.False(t, IsPDF(nil))
}
