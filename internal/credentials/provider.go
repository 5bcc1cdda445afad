package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrProvider marks failures of the external credential provider.
var ErrProvider = errors.New("credential provider")

// Reference names an item in the external provider.
type Reference struct {
	Item  string
	Vault string
}

// Credential is what a provider returns. Any field may be empty.
type Credential struct {
	Account string
	Secret  string
	OTPCode string
}

// Provider fetches credentials from an external store.
//
// Fetch may return a partially filled Credential together with an error;
// callers use whatever fields are present.
type Provider interface {
	Fetch(ctx context.Context, ref Reference) (Credential, error)
	FetchFreshCode(ctx context.Context, ref Reference) (string, error)
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// OnePassword reads credentials with the 1Password CLI ("op").
//
// Example:
//
//	p := credentials.NewOnePassword(nil)
//	cred, err := p.Fetch(ctx, credentials.Reference{Item: "NAS", Vault: "Private"})
type OnePassword struct {
	Binary string
	run    Runner
}

// NewOnePassword creates a provider using run, or os/exec when run is nil.
func NewOnePassword(run Runner) *OnePassword {
	if run == nil {
		run = ExecRunner
	}
	return &OnePassword{Binary: "op", run: run}
}

type opItem struct {
	Fields []opField `json:"fields"`
}

type opField struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Purpose string `json:"purpose"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	TOTP    string `json:"totp"`
}

// Fetch reads the username, password and current one-time code of ref.
func (p *OnePassword) Fetch(ctx context.Context, ref Reference) (Credential, error) {
	if strings.TrimSpace(ref.Item) == "" {
		return Credential{}, fmt.Errorf("%w: no item configured", ErrProvider)
	}

	out, err := p.run(ctx, p.Binary, p.args(ref, "--format", "json")...)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	var item opItem
	if err := json.Unmarshal(out, &item); err != nil {
		return Credential{}, fmt.Errorf("%w: parse item %q: %v", ErrProvider, ref.Item, err)
	}

	var cred Credential
	for _, f := range item.Fields {
		switch {
		case f.Purpose == "USERNAME" || (cred.Account == "" && strings.EqualFold(f.Label, "username")):
			cred.Account = f.Value
		case f.Purpose == "PASSWORD" || (cred.Secret == "" && strings.EqualFold(f.Label, "password")):
			cred.Secret = f.Value
		case f.Type == "OTP":
			cred.OTPCode = f.TOTP
		}
	}

	var missing []string
	if cred.Account == "" {
		missing = append(missing, "username")
	}
	if cred.Secret == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return cred, fmt.Errorf("%w: item %q has no %s", ErrProvider, ref.Item, strings.Join(missing, " or "))
	}
	return cred, nil
}

// FetchFreshCode reads only the current one-time code of ref.
func (p *OnePassword) FetchFreshCode(ctx context.Context, ref Reference) (string, error) {
	if strings.TrimSpace(ref.Item) == "" {
		return "", fmt.Errorf("%w: no item configured", ErrProvider)
	}
	out, err := p.run(ctx, p.Binary, p.args(ref, "--otp")...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	code := strings.TrimSpace(string(out))
	if code == "" {
		return "", fmt.Errorf("%w: item %q has no one-time password", ErrProvider, ref.Item)
	}
	return code, nil
}

func (p *OnePassword) args(ref Reference, extra ...string) []string {
	args := []string{"item", "get", ref.Item}
	if ref.Vault != "" {
		args = append(args, "--vault", ref.Vault)
	}
	return append(args, extra...)
}
