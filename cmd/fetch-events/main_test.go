package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-pickleball-events/internal/application"
	"github.com/sanosuguru/go-pickleball-events/internal/config"
	"github.com/sanosuguru/go-pickleball-events/internal/domain/event"
)

type nopRepository struct{}

func (nopRepository) ReplaceAll(context.Context, []*event.Event) error { return nil }
func (nopRepository) Upsert(context.Context, []*event.Event) error { return nil }
func (nopRepository) GetByID(context.Context, string) (*event.Event, error) {
	return nil, event.ErrEventNotFound
}
func (nopRepository) List(context.Context) ([]*event.Event, error) { return nil, nil }

func sinkNames(sinks []application.EventSink) []string {
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	return names
}

func TestBuildSinks(t *testing.T) {
	cfg := config.PipelineConfig{OutputModulePath: "data.ts", OutputJSONPath: "events.json"}

	t.Run("Postgresなし", func(t *testing.T) {
		assert.Equal(t, []string{"module", "json"}, sinkNames(buildSinks(cfg, nil)))
	})

	t.Run("Postgresはファイルより先に書く", func(t *testing.T) {
		sinks := buildSinks(cfg, nopRepository{})
		require.Len(t, sinks, 3)
		assert.IsType(t, &application.RepositorySink{}, sinks[0])
		assert.Equal(t, []string{"postgres", "module", "json"}, sinkNames(sinks))
	})
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestNetworkHint(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{
			name:     "DNSエラー",
			err:      fmt.Errorf("イベントの取得に失敗しました: %w", &url.Error{Op: "Get", URL: "https://example.invalid", Err: &net.DNSError{Err: "no such host", Name: "example.invalid"}}),
			wantHint: true,
		},
		{
			name:     "接続拒否",
			err:      &url.Error{Op: "Get", URL: "http://127.0.0.1:1", Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}},
			wantHint: true,
		},
		{
			name:     "タイムアウト",
			err:      &net.OpError{Op: "read", Net: "tcp", Err: timeoutError{}},
			wantHint: true,
		},
		{
			name:     "その他の通信エラー",
			err:      &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")},
			wantHint: false,
		},
		{
			name:     "ネットワーク以外",
			err:      errors.New("書き出しに失敗しました"),
			wantHint: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hint := networkHint(tt.err)
			if tt.wantHint {
				assert.NotEmpty(t, hint)
			} else {
				assert.Empty(t, hint)
			}
		})
	}
}
