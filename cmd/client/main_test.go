package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offlineURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func TestRun_RecordsDoseOffline(t *testing.T) {
	var out bytes.Buffer

	code := run([]string{"--remote-url", offlineURL(t), "--take", "1", "--json"}, &out)
	require.Equal(t, 0, code)

	line, err := out.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "recorded dose of 1, adherence now 87%\n", line)

	var snap struct {
		Medications []struct {
			ID        string `json:"id"`
			Adherence int    `json:"adherence"`
		} `json:"medications"`
	}
	require.NoError(t, json.NewDecoder(&out).Decode(&snap))
	require.Len(t, snap.Medications, 2)
}

func TestRun_FailuresReturnExitCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "unknown flag", args: []string{"--no-such-flag"}, want: 2},
		{name: "unknown medication", args: []string{"--remote-url", offlineURL(t), "--take", "missing"}, want: 1},
		{name: "bad store driver", args: []string{"--store", "floppy"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.want, run(tt.args, &out))
		})
	}
}
