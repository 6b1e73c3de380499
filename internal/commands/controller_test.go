package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/config"
	"github.com/veridock/text2api/internal/dev"
	"github.com/veridock/text2api/internal/llm"
	"github.com/veridock/text2api/internal/spec"
	"github.com/veridock/text2api/internal/testutil"
)

const notesText = "Simple note API with title and body"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// Mock implementations
type mockConfigLoader struct {
	mock.Mock
}

func (m *mockConfigLoader) LoadConfig(path string) (*config.Config, string, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*config.Config), args.String(1), args.Error(2)
}

type mockSignalNotifier struct {
	mock.Mock
}

func (m *mockSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	m.Called(c, sig)
}

func (m *mockSignalNotifier) Stop(c chan<- os.Signal) {
	m.Called(c)
}

type mockOutput struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockOutput) Printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf(format, args...))
}

func (m *mockOutput) Println(args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintln(args...))
}

func (m *mockOutput) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.messages, "")
}

// fakeClientFactory hands out one client and records the settings it saw
type fakeClientFactory struct {
	client llm.Client
	err    error
	seen   []config.LLMConfig
}

func (f *fakeClientFactory) NewClient(_ context.Context, cfg config.LLMConfig, _ zerolog.Logger) (llm.Client, error) {
	f.seen = append(f.seen, cfg)
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

// fakeWatcherFactory records the watch settings; run replaces the watch loop
type fakeWatcherFactory struct {
	root string
	cfg  config.DevConfig
	run  func(ctx context.Context, rebuild dev.RebuildFunc) error
}

func (f *fakeWatcherFactory) NewWatcher(root string, cfg config.DevConfig, rebuild dev.RebuildFunc, _ zerolog.Logger) Watcher {
	f.root = root
	f.cfg = cfg
	return watcherFunc(func(ctx context.Context) error { return f.run(ctx, rebuild) })
}

type watcherFunc func(ctx context.Context) error

func (w watcherFunc) Run(ctx context.Context) error { return w(ctx) }

type testEnv struct {
	ctrl    *Controller
	fs      *testutil.MemFS
	output  *mockOutput
	loader  *mockConfigLoader
	clients *fakeClientFactory
}

// newTestEnv creates a controller over an in-memory file system whose
// configuration writes to out/ and never reaches a model
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = "out"

	env := &testEnv{
		fs:      testutil.NewMemFS(),
		output:  &mockOutput{},
		loader:  new(mockConfigLoader),
		clients: &fakeClientFactory{client: llm.NewNoop()},
	}
	env.loader.On("LoadConfig", "").Return(cfg, "", nil)
	env.ctrl = NewController(&Flags{}, zerolog.Nop()).WithDependencies(Dependencies{
		ConfigLoader:  env.loader,
		ClientFactory: env.clients,
		FileSystem:    env.fs,
		Output:        env.output,
		Stdin:         strings.NewReader(notesText),
	})
	return env
}

func TestController_loadConfig(t *testing.T) {
	// Test: a missing file falls back to defaults unless it was named explicitly
	defaults := config.Default()

	tests := []struct {
		name    string
		path    string
		cfg     *config.Config
		err     error
		wantErr bool
	}{
		{"found", "", defaults, nil, false},
		{"missing file", "", defaults, fmt.Errorf("%w in /tmp", config.ErrNoConfig), false},
		{"missing explicit file", "custom.yaml", nil, fmt.Errorf("%w: custom.yaml", config.ErrNoConfig), true},
		{"invalid file", "", nil, errors.New("invalid config file"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := new(mockConfigLoader)
			loader.On("LoadConfig", tt.path).Return(tt.cfg, "", tt.err)
			ctrl := NewController(&Flags{Config: tt.path}, zerolog.Nop()).WithDependencies(Dependencies{ConfigLoader: loader})

			cfg, _, err := ctrl.loadConfig()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to load config")
				return
			}
			require.NoError(t, err)
			assert.Same(t, tt.cfg, cfg)
			loader.AssertExpectations(t)
		})
	}
}

func TestRequestOptions_apply(t *testing.T) {
	// Test: command line overrides win over the configuration
	tests := []struct {
		name     string
		opts     RequestOptions
		protocol spec.Protocol
		wantErr  bool
	}{
		{"config only", RequestOptions{}, "", false},
		{"protocol", RequestOptions{Protocol: "graphql"}, spec.ProtocolGraphQL, false},
		{"cli alias", RequestOptions{Protocol: "cli"}, spec.ProtocolCommandLine, false},
		{"dashed", RequestOptions{Protocol: "command-line"}, spec.ProtocolCommandLine, false},
		{"unknown", RequestOptions{Protocol: "soap"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			got, err := tt.opts.apply(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown protocol")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.protocol, got.Protocol)
			assert.Equal(t, "./generated", got.OutputDir)
		})
	}

	cfg := config.Default()
	got, err := RequestOptions{Framework: "gqlgen", OutputDir: "dist", Project: "x", Provider: "noop"}.apply(cfg)
	require.NoError(t, err)
	assert.Equal(t, "gqlgen", got.Framework)
	assert.Equal(t, "dist", got.OutputDir)
	assert.Equal(t, "x", got.Project)
	assert.Equal(t, "noop", cfg.LLM.Provider)
}

func TestController_readDescription(t *testing.T) {
	// Test: descriptions come inline, from a file or from stdin
	env := newTestEnv(t)
	env.fs.Put("desc.md", []byte("Blog with posts"))

	tests := []struct {
		name    string
		text    string
		file    string
		want    string
		wantErr string
	}{
		{"inline", "Todo list API", "", "Todo list API", ""},
		{"file", "", "desc.md", "Blog with posts", ""},
		{"stdin", "", "-", notesText, ""},
		{"both", "Todo", "desc.md", "", "not both"},
		{"none", "  ", "", "", "no description"},
		{"missing file", "", "nope.md", "", "failed to read description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.ctrl.readDescription(tt.text, tt.file)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
