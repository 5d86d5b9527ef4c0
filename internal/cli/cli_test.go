package cli

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/quill/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantCode int
		wantMsg  string
	}{
		{
			name: "defaults",
			args: nil,
			want: &app.Config{SitePath: "site.hcl", OutDir: "public", Output: "html", LogFormat: "text", LogLevel: "info", MaxResumptions: app.DefaultMaxResumptions},
		},
		{
			name: "all flags and documents",
			args: []string{"-site", "s.hcl", "-out", "dist", "-output", "JS", "-log-format", "json", "-log-level", "debug", "-max-resumptions", "5", "index", "about"},
			want: &app.Config{SitePath: "s.hcl", OutDir: "dist", Output: "js", Documents: []string{"index", "about"}, LogFormat: "json", LogLevel: "debug", MaxResumptions: 5},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "empty site path prints usage", args: []string{"-site", ""}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2, wantMsg: "flag provided but not defined: -nope"},
		{name: "invalid output", args: []string{"-output", "pdf"}, wantCode: 2, wantMsg: "invalid output"},
		{name: "invalid log level", args: []string{"-log-level", "loud"}, wantCode: 2, wantMsg: "invalid log level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			got, exit, err := Parse(tc.args, &out)

			if tc.wantCode != 0 {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
