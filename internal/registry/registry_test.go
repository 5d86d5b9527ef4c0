package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/app"
)

type repeatInput struct {
	Text  string  `quill:"text"`
	Times int     `quill:"times,optional"`
	Sep   *string `quill:"sep,optional"`
	skip  string
}

type repeatModule struct{}

func (repeatModule) Register(r *Registry) {
	r.RegisterProcessor("repeat", &RegisteredProcessor{
		NewInput:  func() any { return new(repeatInput) },
		InputType: reflect.TypeOf(repeatInput{}),
		Fn: func(_ context.Context, input any) (cty.Value, error) {
			in := input.(*repeatInput)
			sep := " "
			if in.Sep != nil {
				sep = *in.Sep
			}
			out := in.Text
			for i := 1; i < in.Times; i++ {
				out += sep + in.Text
			}
			return cty.StringVal(out), nil
		},
	})
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	repeatModule{}.Register(r)
	require.NoError(t, r.ValidateRegistry(context.Background()))
	return r
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name    string
		args    map[string]string
		want    cty.Value
		wantErr string
	}{
		{name: "required only", args: map[string]string{"text": "hi"}, want: cty.StringVal("hi")},
		{name: "numbers are converted", args: map[string]string{"text": "hi", "times": "3"}, want: cty.StringVal("hi hi hi")},
		{name: "optional pointer", args: map[string]string{"text": "a", "times": "2", "sep": "-"}, want: cty.StringVal("a-a")},
		{name: "missing required", args: map[string]string{}, wantErr: `missing required argument "text"`},
		{name: "unknown argument", args: map[string]string{"text": "a", "color": "red", "skip": "x"}, wantErr: "unknown arguments color, skip"},
		{name: "wrong kind", args: map[string]string{"text": "a", "times": "many"}, wantErr: `argument "times"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistry(t)

			got, err := r.Run(context.Background(), "repeat", tc.args)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "got %#v", got)
		})
	}
}

func TestRunProcessor(t *testing.T) {
	r := newRegistry(t)

	got, err := r.RunProcessor(context.Background(), &app.ProcessorRequest{Processor: "repeat", Args: map[string]string{"text": "x", "times": "2"}})
	require.NoError(t, err)
	assert.True(t, cty.StringVal("x x").RawEquals(got))

	_, err = r.RunProcessor(context.Background(), &app.ProcessorRequest{Processor: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no processor named "nope"`)
}

func TestRegisterProcessor_DuplicatePanics(t *testing.T) {
	r := newRegistry(t)
	assert.Panics(t, func() { repeatModule{}.Register(r) })
}

func TestValidateRegistry(t *testing.T) {
	testCases := []struct {
		name    string
		handler *RegisteredProcessor
		wantErr string
	}{
		{
			name:    "missing function",
			handler: &RegisteredProcessor{NewInput: func() any { return new(struct{}) }, InputType: reflect.TypeOf(struct{}{})},
			wantErr: "handler has no function",
		},
		{
			name:    "input is not a struct",
			handler: &RegisteredProcessor{NewInput: func() any { return new(string) }, InputType: reflect.TypeOf(""), Fn: noop},
			wantErr: "is not a struct",
		},
		{
			name: "NewInput disagrees with InputType",
			handler: &RegisteredProcessor{
				NewInput:  func() any { return new(struct{}) },
				InputType: reflect.TypeOf(repeatInput{}),
				Fn:        noop,
			},
			wantErr: "NewInput returns",
		},
		{
			name: "field without cty equivalent",
			handler: &RegisteredProcessor{
				NewInput:  func() any { return new(chanInput) },
				InputType: reflect.TypeOf(chanInput{}),
				Fn:        noop,
			},
			wantErr: "could not imply cty type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			r.RegisterProcessor("bad", tc.handler)

			err := r.ValidateRegistry(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

type chanInput struct {
	C chan int `quill:"c"`
}

func noop(context.Context, any) (cty.Value, error) { return cty.NullVal(cty.String), nil }
