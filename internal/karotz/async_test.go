package karotz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_Value(t *testing.T) {
	f := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	select {
	case <-f.Done():
	default:
		t.Fatal("Done should be closed once Await returned")
	}
}

func TestGoErr(t *testing.T) {
	boom := errors.New("boom")
	f := GoErr(context.Background(), func(ctx context.Context) error {
		return boom
	})

	_, err := f.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestFuture_AwaitAbandoned(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (string, error) {
		<-release
		return "late", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestGo_ClientCallsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi-bin/ears_random" {
			<-release
		}
		_, _ = w.Write([]byte(statusAwake))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	ctx := context.Background()

	slow := Go(ctx, client.RandomEars)
	fast := Go(ctx, client.GetStatus)

	state, err := fast.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusAwake, state.Status)

	select {
	case <-slow.Done():
		t.Fatal("slow call should still be pending")
	default:
	}

	close(release)
	_, err = slow.Await(ctx)
	assert.Error(t, err, "status body is not an ears answer")
}
