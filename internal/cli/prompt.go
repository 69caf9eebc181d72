package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/f3rmion/tau/sequencer"
	"github.com/f3rmion/tau/session"
)

// Auth providers offered at sign-in.
const (
	ProviderGitHub   = "github"
	ProviderEthereum = "ethereum"
)

var errNoInput = errors.New("no input")

// promptAuthenticator prints the sign-in link of the chosen provider and
// reads the session id and identity back from the terminal.
type promptAuthenticator struct {
	in       *bufio.Reader
	out      io.Writer
	provider string

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func newPromptAuthenticator(in io.Reader, out io.Writer, provider string) *promptAuthenticator {
	return &promptAuthenticator{in: bufio.NewReader(in), out: out, provider: provider}
}

func (p *promptAuthenticator) Authenticate(ctx context.Context, links *sequencer.AuthLinks) (session.Credentials, error) {
	provider := p.provider
	if provider == "" {
		choice, err := p.readLine(ctx, "Select how you want to authenticate yourself:\n  1) GitHub\n  2) Ethereum address\n> ")
		if err != nil {
			return session.Credentials{}, err
		}
		switch strings.ToLower(choice) {
		case "1", ProviderGitHub:
			provider = ProviderGitHub
		case "2", ProviderEthereum:
			provider = ProviderEthereum
		default:
			return session.Credentials{}, fmt.Errorf("unsupported auth provider %q", choice)
		}
	}

	var link, idPrompt string
	switch provider {
	case ProviderGitHub:
		link, idPrompt = links.GithubAuthURL, "Enter your GitHub handle (@name): "
	case ProviderEthereum:
		link, idPrompt = links.EthAuthURL, "Enter your Ethereum address (0x...): "
	default:
		return session.Credentials{}, fmt.Errorf("unsupported auth provider %q", provider)
	}

	fmt.Fprintf(p.out, "\nClick the link below to authenticate and obtain your session ID:\n\n%s\n\n", link)

	token, err := p.readLine(ctx, "Enter your session ID: ")
	if err != nil {
		return session.Credentials{}, err
	}
	id, err := p.readLine(ctx, idPrompt)
	if err != nil {
		return session.Credentials{}, err
	}
	fmt.Fprintln(p.out)

	return session.Credentials{SessionToken: token, Identity: id}, nil
}

// readLine returns the next trimmed line, or ctx's error if ctx ends first.
// A line that arrives after a cancelled read is kept for the next call.
func (p *promptAuthenticator) readLine(ctx context.Context, prompt string) (string, error) {
	p.once.Do(func() {
		p.lines = make(chan lineResult, 1)
		go p.readLines()
	})
	fmt.Fprint(p.out, prompt)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", errNoInput
		}
		line := strings.TrimSpace(r.line)
		switch {
		case r.err == nil, errors.Is(r.err, io.EOF) && line != "":
			return line, nil
		case errors.Is(r.err, io.EOF):
			return "", errNoInput
		default:
			return "", r.err
		}
	}
}

// readLines is the only reader of p.in. It blocks in ReadString until the
// input ends, so it outlives a cancelled prompt; the process exits soon after.
func (p *promptAuthenticator) readLines() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- lineResult{line, err}
		if err != nil {
			return
		}
	}
}
