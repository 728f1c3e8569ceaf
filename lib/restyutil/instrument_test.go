package restyutil

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.messages[id] = contents
}

func withLogLevel(t *testing.T, level slog.Level) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	t.Cleanup(func() { slog.SetDefault(previous) })
}

func newServer(t *testing.T) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal", "ird")
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInstrumentClientWritesTranscript(t *testing.T) {
	withLogLevel(t, slog.LevelDebug)
	server := newServer(t)

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, out)

	_, err := client.R().
		SetContext(context.Background()).
		SetFormData(map[string]string{"pan": "500091452"}).
		Post(server.URL + "/login")
	require.NoError(t, err)

	require.Len(t, out.messages, 1)
	transcript := out.messages["1"]
	require.True(t, strings.HasPrefix(transcript, "---- REQUEST ----"))
	require.Contains(t, transcript, "POST "+server.URL+"/login")
	require.Contains(t, transcript, "pan=500091452")
	require.Contains(t, transcript, "X-Portal: ird")
	require.Contains(t, transcript, `{"ok":true}`)
}

func TestInstrumentClientTranscribesGet(t *testing.T) {
	withLogLevel(t, slog.LevelDebug)
	server := newServer(t)

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, out)

	_, err := client.R().
		SetQueryParam("method", "GetVatReturnList").
		Get(server.URL + "/vat")
	require.NoError(t, err)

	require.Len(t, out.messages, 1)
	require.Contains(t, out.messages["1"], "GET "+server.URL+"/vat")
	require.Contains(t, out.messages["1"], "<NO BODY>")
}

func TestInstrumentClientQuietWithoutDebug(t *testing.T) {
	withLogLevel(t, slog.LevelInfo)
	server := newServer(t)

	out := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	InstrumentClient(client, out)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)
	require.Empty(t, out.messages)
}

func TestFormatHeadersSorted(t *testing.T) {
	headers := http.Header{
		"B": {"2"},
		"A": {"1", "3"},
	}
	require.Equal(t, "A: 1\nA: 3\nB: 2", formatHeaders(headers))
	require.Equal(t, "", formatHeaders(nil))
}
