package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/diag"
	"github.com/vk/quill/internal/jsgen"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		want    *Config
		wantErr string
	}{
		{
			name: "defaults are filled in",
			cfg:  Config{SitePath: "site.hcl"},
			want: &Config{SitePath: "site.hcl", Output: OutputHTML, LogFormat: "text", LogLevel: "info", MaxResumptions: DefaultMaxResumptions},
		},
		{
			name: "explicit values are kept",
			cfg:  Config{SitePath: "site.hcl", Output: OutputJS, LogFormat: "json", LogLevel: "debug", MaxResumptions: 3},
			want: &Config{SitePath: "site.hcl", Output: OutputJS, LogFormat: "json", LogLevel: "debug", MaxResumptions: 3},
		},
		{name: "site path is required", cfg: Config{}, wantErr: "SitePath"},
		{name: "unknown output", cfg: Config{SitePath: "s", Output: "pdf"}, wantErr: "invalid output"},
		{name: "unknown log format", cfg: Config{SitePath: "s", LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "unknown log level", cfg: Config{SitePath: "s", LogLevel: "loud"}, wantErr: "invalid log level"},
		{name: "negative resumptions", cfg: Config{SitePath: "s", MaxResumptions: -1}, wantErr: "negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRender_SelfContainedDocument(t *testing.T) {
	// Arrange
	a, logs := SetupAppTest(t, Config{SitePath: "site.hcl"})

	// Act
	out, err := a.Render(context.Background(), "index", "-- ui.text: Hello\n", Resolvers{})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.HTML, ">Hello</div>")
	assert.Contains(t, out.HTML, `data-id="0:index"`)
	assert.Contains(t, logs.String(), "Document rendered.")
	assert.Contains(t, logs.String(), "document=index")
}

func TestRender_ResolversAnswerSuspensions(t *testing.T) {
	// Arrange
	src := `-- import: site/lib as lib

-- string user:
$processor$: env
name: USER

-- ui.text: { format("%s, %s from %s", $lib.greeting, $user, $lib.city) }
`
	var got []*ProcessorRequest
	r := Resolvers{
		Imports: ImportFunc(func(_ context.Context, module string) (*string, []string, error) {
			src := "-- string greeting: Hi\n"
			return &src, []string{"city"}, nil
		}),
		Processors: ProcessorFunc(func(_ context.Context, req *ProcessorRequest) (cty.Value, error) {
			got = append(got, req)
			return cty.StringVal("ada"), nil
		}),
		Foreign: ForeignFunc(func(_ context.Context, module, variable string) (cty.Value, error) {
			return cty.StringVal("Paris"), nil
		}),
	}
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	// Act
	out, err := a.Render(context.Background(), "index", src, r)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "Hi, ada from Paris")
	want := []*ProcessorRequest{{Module: "index", Processor: "env", Variable: "user", Args: map[string]string{"name": "USER"}, Line: 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("processor requests mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_NilResolversAnswerAbsent(t *testing.T) {
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	t.Run("absent import is an empty module", func(t *testing.T) {
		out, err := a.Render(context.Background(), "index", "-- import: lib\n\n-- ui.text: ok\n", Resolvers{})
		require.NoError(t, err)
		assert.Contains(t, out.HTML, ">ok</div>")
	})

	t.Run("absent processor value is null", func(t *testing.T) {
		_, err := a.Render(context.Background(), "index", "-- integer port:\n$processor$: env\n", Resolvers{})
		require.Error(t, err)
		d, ok := diag.As(err)
		require.True(t, ok)
		assert.Equal(t, diag.InterpreterError, d.Kind)
		assert.Contains(t, d.Message, "cannot be null")
	})
}

func TestRender_ResolverErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	r := Resolvers{Imports: ImportFunc(func(context.Context, string) (*string, []string, error) {
		return nil, nil, boom
	})}
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	_, err := a.Render(context.Background(), "index", "-- import: lib\n", r)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `resolving import "lib"`)
}

func TestRender_UnknownProcessorValueIsAnError(t *testing.T) {
	r := Resolvers{Processors: ProcessorFunc(func(context.Context, *ProcessorRequest) (cty.Value, error) {
		return cty.UnknownVal(cty.String), nil
	})}
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	_, err := a.Render(context.Background(), "index", "-- string user:\n$processor$: env\n\n-- ui.text: $user\n", r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must return a known value")
}

func TestRender_IntegerIntoStringProperty(t *testing.T) {
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})
	src := `-- integer w: 120

-- component label:
string label:

-- ui.text: hi
width: $label.label

-- end: label

-- label:
label: $w
`

	out, err := a.Render(context.Background(), "index", src, Resolvers{})

	require.NoError(t, err)
	assert.Contains(t, out.HTML, "width: 120px")
}

func TestRender_StopsWhenContextIsCancelled(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	r := Resolvers{Imports: ImportFunc(func(context.Context, string) (*string, []string, error) {
		cancel()
		src := "-- import: other\n"
		return &src, nil, nil
	})}
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	// Act
	_, err := a.Render(ctx, "index", "-- import: lib\n", r)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}

func TestRender_StageErrorsKeepTheirKind(t *testing.T) {
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl"})

	_, err := a.Render(context.Background(), "index", "-- ui.text: hi\n\n-- ui.text: $missing\n", Resolvers{})

	require.Error(t, err)
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.InterpreterError, d.Kind)
	assert.Equal(t, "index", d.DocID)
	assert.Equal(t, 3, d.Line)
}

func TestRenderJS(t *testing.T) {
	a, _ := SetupAppTest(t, Config{SitePath: "site.hcl", Output: OutputJS})

	p, err := a.RenderJS(context.Background(), "index", "-- integer $count: 0\n\n-- ui.integer: $count\n", Resolvers{})

	require.NoError(t, err)
	assert.Equal(t, []string{"index#count"}, p.MutableVariables)
	last, ok := p.Instructions[len(p.Instructions)-1].(*jsgen.ComponentDeclaration)
	require.True(t, ok)
	assert.Equal(t, jsgen.MainComponent, last.Name)
}
