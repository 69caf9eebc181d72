package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/tau/ceremony"
	"github.com/f3rmion/tau/contribution"
	"github.com/f3rmion/tau/identity"
	"github.com/f3rmion/tau/internal/curvetest"
	"github.com/f3rmion/tau/sequencer"
	"github.com/f3rmion/tau/session"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// fakeCeremony serves the coordinator API and the GitHub users endpoint.
type fakeCeremony struct {
	t         *testing.T
	polls     atomic.Int32
	submitted atomic.Pointer[ceremony.Batch]
}

func (f *fakeCeremony) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /info/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lobby_size":7,"num_contributions":141,"sequencer_address":"0xABCDEF"}`))
	})
	mux.HandleFunc("GET /info/current_state", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transcripts":[{"numG1Powers":4096,"numG2Powers":65,
			"powersOfTau":{"G1Powers":[],"G2Powers":[]},
			"witness":{"runningProducts":["0x01","0x02"],"potPubkeys":["0x01","0x02"],"blsSignatures":["",""]}}],
			"participantIds":["","eth|0x01"],"participantEcdsaSignatures":["",""]}`))
	})
	mux.HandleFunc("GET /auth/request_link", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"eth_auth_url":"https://auth.example/eth","github_auth_url":"https://auth.example/github"}`))
	})
	mux.HandleFunc("POST /lobby/try_contribute", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"TryContributeError::UnknownSessionId","error":"unknown session id"}`))
			return
		}
		if f.polls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"InProgress":"waiting"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(curvetest.Batch(f.t, curvetest.Scalar(5), curvetest.Size{G1: 4, G2: 2}))
	})
	mux.HandleFunc("POST /contribute", func(w http.ResponseWriter, r *http.Request) {
		var batch ceremony.Batch
		if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.submitted.Store(&batch)
		_, _ = w.Write([]byte(`{"receipt":"receipt-body","signature":"0xsigned"}`))
	})
	mux.HandleFunc("POST /contribution/abort", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("GET /users/{handle}", func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.PathValue("handle"), "kariy") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"login":"kariy","id":26515232}`))
	})
	return mux
}

func newFakeCeremony(t *testing.T) (*fakeCeremony, string) {
	f := &fakeCeremony{t: t}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func TestStatusCommand(t *testing.T) {
	_, url := newFakeCeremony(t)

	out, err := runCLI(t, "", "status", "--sequencer-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Lobby size: 7")
	assert.Contains(t, out, "No. of contributions: 141")
	assert.Contains(t, out, "Sequencer address: 0xabcdef")
}

func TestCurrentStateCommand(t *testing.T) {
	_, url := newFakeCeremony(t)

	out, err := runCLI(t, "", "current-state", "--sequencer-url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Participants: 2")
	assert.Contains(t, out, "Transcript 0: 4096 G1 powers, 65 G2 powers, 2 contributions")

	out, err = runCLI(t, "", "current-state", "--sequencer-url", url, "--json")
	require.NoError(t, err)
	var state ceremony.BatchTranscript
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, 4096, state.Transcripts[0].NumG1Powers)
}

func TestStartCommand(t *testing.T) {
	f, url := newFakeCeremony(t)

	out, err := runCLI(t, "token-123\n@Kariy\n", "start",
		"--sequencer-url", url,
		"--github-api-url", url,
		"--poll-interval", "1ms",
		"--provider", "github",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "https://auth.example/github")
	assert.Contains(t, out, "Contribution accepted for git|26515232|@kariy")
	assert.Contains(t, out, "Signature: 0xsigned")
	assert.EqualValues(t, 2, f.polls.Load())

	batch := f.submitted.Load()
	require.NotNil(t, batch)
	ok, err := contribution.VerifyIdentity(&batch.Contributions[0], identity.Identity("git|26515232|@kariy"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStartCommandFailures(t *testing.T) {
	_, url := newFakeCeremony(t)

	t.Run("UnknownSession", func(t *testing.T) {
		_, err := runCLI(t, "wrong-token\n0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796\n", "start",
			"--sequencer-url", url, "--poll-interval", "1ms", "--provider", "ethereum")
		var failure *session.Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, session.Polling, failure.State)
		assert.Contains(t, err.Error(), "unknown session id")
	})

	t.Run("BadProvider", func(t *testing.T) {
		_, err := runCLI(t, "", "start", "--sequencer-url", url, "--provider", "gitlab")
		assert.Error(t, err)
	})

	t.Run("BadConfig", func(t *testing.T) {
		_, err := runCLI(t, "", "start", "--sequencer-url", url, "--poll-interval", "0s")
		assert.ErrorContains(t, err, "poll-interval")
	})
}

func TestPromptAuthenticator(t *testing.T) {
	links := &sequencer.AuthLinks{EthAuthURL: "https://auth.example/eth", GithubAuthURL: "https://auth.example/github"}
	ctx := context.Background()

	t.Run("ChooseEthereum", func(t *testing.T) {
		var out bytes.Buffer
		p := newPromptAuthenticator(strings.NewReader("2\n tok \n0xabc"), &out, "")
		creds, err := p.Authenticate(ctx, links)
		require.NoError(t, err)
		assert.Equal(t, session.Credentials{SessionToken: "tok", Identity: "0xabc"}, creds)
		assert.Contains(t, out.String(), "https://auth.example/eth")
		assert.NotContains(t, out.String(), "https://auth.example/github")
	})

	t.Run("UnknownChoice", func(t *testing.T) {
		p := newPromptAuthenticator(strings.NewReader("3\n"), &bytes.Buffer{}, "")
		_, err := p.Authenticate(ctx, links)
		assert.Error(t, err)
	})

	t.Run("NoInput", func(t *testing.T) {
		p := newPromptAuthenticator(strings.NewReader(""), &bytes.Buffer{}, ProviderGitHub)
		_, err := p.Authenticate(ctx, links)
		assert.ErrorIs(t, err, errNoInput)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r, w := io.Pipe()
		defer w.Close()
		p := newPromptAuthenticator(r, &bytes.Buffer{}, ProviderGitHub)
		_, err := p.Authenticate(ctx, links)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("LineAfterCancelKept", func(t *testing.T) {
		r, w := io.Pipe()
		defer w.Close()
		p := newPromptAuthenticator(r, &bytes.Buffer{}, ProviderEthereum)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Authenticate(cancelled, links)
		require.ErrorIs(t, err, context.Canceled)

		go func() { _, _ = io.WriteString(w, "tok\n0xabc\n") }()
		creds, err := p.Authenticate(ctx, links)
		require.NoError(t, err)
		assert.Equal(t, session.Credentials{SessionToken: "tok", Identity: "0xabc"}, creds)
	})
}
