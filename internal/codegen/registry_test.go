package codegen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridock/text2api/internal/codegen/render"
	"github.com/veridock/text2api/internal/spec"
)

type fakeGenerator struct {
	protocol  spec.Protocol
	framework string
}

func (g fakeGenerator) Protocol() spec.Protocol { return g.protocol }
func (g fakeGenerator) Framework() string       { return g.framework }
func (g fakeGenerator) Description() string     { return "fake" }
func (g fakeGenerator) Render(context.Context, *render.Context) (*render.FileSet, error) {
	return render.NewFileSet(), nil
}

func TestNewRegistry(t *testing.T) {
	t.Run("rejects unknown protocol", func(t *testing.T) {
		_, err := NewRegistry(fakeGenerator{protocol: "SOAP", framework: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown protocol")
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewRegistry(
			fakeGenerator{protocol: spec.ProtocolREST, framework: "chi"},
			fakeGenerator{protocol: spec.ProtocolREST, framework: "CHI"},
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registered twice")
	})
}

func TestRegistry_Resolve(t *testing.T) {
	r, err := NewRegistry(
		fakeGenerator{protocol: spec.ProtocolREST, framework: "chi"},
		fakeGenerator{protocol: spec.ProtocolREST, framework: "echo"},
		fakeGenerator{protocol: spec.ProtocolSocket, framework: "gorilla"},
	)
	require.NoError(t, err)

	tests := []struct {
		name      string
		protocol  spec.Protocol
		framework string
		want      string
		wantErr   bool
	}{
		{"default", spec.ProtocolREST, "", "chi", false},
		{"explicit", spec.ProtocolREST, "echo", "echo", false},
		{"case insensitive", spec.ProtocolREST, " Echo ", "echo", false},
		{"unknown framework", spec.ProtocolREST, "django", "", true},
		{"framework of another protocol", spec.ProtocolSocket, "chi", "", true},
		{"protocol without generators", spec.ProtocolRPC, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := r.Resolve(tt.protocol, tt.framework)
			if tt.wantErr {
				var genErr *GenerationError
				require.True(t, errors.As(err, &genErr))
				assert.Equal(t, ErrorCodeUnsupportedCombination, genErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Framework())
		})
	}

	assert.Equal(t, []spec.Protocol{spec.ProtocolREST, spec.ProtocolSocket}, r.Protocols())
	assert.Len(t, r.Frameworks(spec.ProtocolREST), 2)
}

func TestDefaultRegistry(t *testing.T) {
	// Test: every protocol has a default generator
	defaults := map[spec.Protocol]string{
		spec.ProtocolREST:        "nethttp",
		spec.ProtocolGraphQL:     "gqlgen",
		spec.ProtocolRPC:         "grpc",
		spec.ProtocolSocket:      "gorilla",
		spec.ProtocolCommandLine: "cobra",
	}
	assert.Equal(t, spec.Protocols, DefaultRegistry.Protocols())
	for protocol, framework := range defaults {
		g, ok := DefaultRegistry.Default(protocol)
		require.True(t, ok, protocol)
		assert.Equal(t, framework, g.Framework())
		assert.NotEmpty(t, g.Description())
	}
}
