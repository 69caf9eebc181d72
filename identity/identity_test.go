package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type staticResolver struct {
	id    uint64
	err   error
	calls atomic.Int32
}

func (r *staticResolver) ResolveHandle(_ context.Context, _ string) (uint64, error) {
	r.calls.Add(1)
	return r.id, r.err
}

func TestFromAddress(t *testing.T) {
	addr := "0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796"

	id, err := FromAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, Identity("eth|"+addr), id)

	_, err = FromAddress("73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796")
	assert.ErrorIs(t, err, ErrMalformedIdentity)

	_, err = FromAddress("0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bdZZZ")
	assert.ErrorIs(t, err, ErrMalformedIdentity)

	_, err = FromAddress("0x")
	assert.ErrorIs(t, err, ErrMalformedIdentity)
}

func TestFromHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolved", func(t *testing.T) {
		r := &staticResolver{id: 26515232}
		id, err := FromHandle(ctx, "@Kariy", r)
		require.NoError(t, err)
		assert.Equal(t, Identity("git|26515232|@kariy"), id)
	})

	t.Run("MissingMarker", func(t *testing.T) {
		r := &staticResolver{id: 1}
		_, err := FromHandle(ctx, "kariy", r)
		assert.ErrorIs(t, err, ErrMalformedIdentity)
		assert.Zero(t, r.calls.Load(), "resolver must not be called for a malformed handle")
	})

	t.Run("LookupError", func(t *testing.T) {
		r := &staticResolver{err: errors.New("connection refused")}
		_, err := FromHandle(ctx, "@kariy", r)
		assert.ErrorIs(t, err, ErrIdentityLookupFailed)
	})

	t.Run("NoResolver", func(t *testing.T) {
		_, err := FromHandle(ctx, "@kariy", nil)
		assert.ErrorIs(t, err, ErrIdentityLookupFailed)
	})
}

func TestCanonicalize(t *testing.T) {
	ctx := context.Background()
	r := &staticResolver{id: 42}

	tests := []struct {
		raw     string
		want    Identity
		wantErr error
	}{
		{raw: "0xabcdef", want: "eth|0xabcdef"},
		{raw: "@Octo-Cat", want: "git|42|@octo-cat"},
		{raw: "octocat", wantErr: ErrMalformedIdentity},
		{raw: "@", wantErr: ErrMalformedIdentity},
		{raw: "@a/b", wantErr: ErrMalformedIdentity},
		{raw: "", wantErr: ErrMalformedIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, err := Canonicalize(ctx, tt.raw, r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestGitHubResolver(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/kariy", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"kariy","id":26515232}`))
	})
	mux.HandleFunc("/users/noid", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"noid"}`))
	})
	mux.HandleFunc("/users/badid", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"not-a-number"}`))
	})
	mux.HandleFunc("/users/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := &GitHubResolver{BaseURL: server.URL, Logger: zaptest.NewLogger(t)}
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		id, err := r.ResolveHandle(ctx, "kariy")
		require.NoError(t, err)
		assert.Equal(t, uint64(26515232), id)

		ident, err := Canonicalize(ctx, "@kariy", r)
		require.NoError(t, err)
		assert.Equal(t, Identity("git|26515232|@kariy"), ident)
	})

	for _, handle := range []string{"missing", "noid", "badid"} {
		t.Run(handle, func(t *testing.T) {
			_, err := r.ResolveHandle(ctx, handle)
			assert.ErrorIs(t, err, ErrIdentityLookupFailed)
		})
	}

	t.Run("Unreachable", func(t *testing.T) {
		dead := httptest.NewServer(http.NotFoundHandler())
		dead.Close()
		_, err := Canonicalize(ctx, "@kariy", &GitHubResolver{BaseURL: dead.URL})
		assert.ErrorIs(t, err, ErrIdentityLookupFailed)
	})
}
