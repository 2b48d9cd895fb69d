package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"users/internal/dto"
	"users/internal/jwtsigner"
	"users/pkg/usersclient"

	"golang.org/x/term"
)

// readPassword is swapped in tests.
var readPassword = term.ReadPassword

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "register":
		err = runRegister(args)
	case "activate":
		err = runActivate(args)
	case "login":
		err = runLogin(args)
	case "me":
		err = runMe(args)
	case "users":
		err = runUsers(args)
	case "logout":
		err = runLogout(args)
	case "inspect":
		err = runInspect(args)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  register   Start a registration and print the activation token")
	fmt.Fprintln(os.Stderr, "  activate   Confirm a registration with the emailed code")
	fmt.Fprintln(os.Stderr, "  login      Log in and store the token pair")
	fmt.Fprintln(os.Stderr, "  me         Show the logged in user")
	fmt.Fprintln(os.Stderr, "  users      List all users")
	fmt.Fprintln(os.Stderr, "  logout     Log out and forget the stored tokens")
	fmt.Fprintln(os.Stderr, "  inspect    Print the claims of the stored tokens (unverified)")
	os.Exit(2)
}

// state is what survives between invocations.
type state struct {
	BaseURL         string             `json:"baseUrl,omitempty"`
	ActivationToken string             `json:"activationToken,omitempty"`
	Tokens          usersclient.Tokens `json:"tokens"`
}

func statePath() string {
	if p := os.Getenv("USERSCTL_STATE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".usersctl.json"
	}
	return filepath.Join(home, ".usersctl.json")
}

func loadState(path string) (state, error) {
	var s state
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	return s, json.Unmarshal(data, &s)
}

func saveState(path string, s state) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

type common struct {
	baseURL string
	state   string
}

func newFlagSet(name string, c *common) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.baseURL, "base-url", "", "users service base URL (default: $USERSCTL_BASE_URL, then the last one used)")
	fs.StringVar(&c.state, "state", statePath(), "state file")
	return fs
}

const defaultBaseURL = "http://localhost:8081"

// resolveBaseURL prefers the flag, then the environment, then the URL saved
// by the last register or login.
func (c common) resolveBaseURL(st state) string {
	for _, u := range []string{c.baseURL, os.Getenv("USERSCTL_BASE_URL"), st.BaseURL} {
		if strings.TrimSpace(u) != "" {
			return u
		}
	}
	return defaultBaseURL
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

func runRegister(args []string) error {
	var c common
	fs := newFlagSet("register", &c)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	phone := fs.Int64("phone", 0, "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("email is required")
	}
	pw, err := promptPassword(os.Stderr)
	if err != nil {
		return err
	}

	st, err := loadState(c.state)
	if err != nil {
		return err
	}
	baseURL := c.resolveBaseURL(st)

	ctx, cancel := timeout()
	defer cancel()
	res, err := usersclient.NewClient(baseURL).Register(ctx, dto.RegisterRequest{
		Name:        *name,
		Email:       *email,
		Password:    pw,
		PhoneNumber: *phone,
	})
	if err != nil {
		return err
	}

	st.BaseURL = baseURL
	st.ActivationToken = res.ActivationToken
	if err := saveState(c.state, st); err != nil {
		return err
	}
	return printJSON(res)
}

func runActivate(args []string) error {
	var c common
	fs := newFlagSet("activate", &c)
	code := fs.String("code", "", "4 digit activation code")
	token := fs.String("token", "", "activation token (defaults to the one from register)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := loadState(c.state)
	if err != nil {
		return err
	}
	if *token == "" {
		*token = st.ActivationToken
	}
	if *token == "" || *code == "" {
		return fmt.Errorf("activation token and code are required")
	}

	ctx, cancel := timeout()
	defer cancel()
	u, err := usersclient.NewClient(c.resolveBaseURL(st)).Activate(ctx, *token, *code)
	if err != nil {
		return err
	}
	st.ActivationToken = ""
	if err := saveState(c.state, st); err != nil {
		return err
	}
	return printJSON(u)
}

func runLogin(args []string) error {
	var c common
	fs := newFlagSet("login", &c)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		var err error
		if *email, err = promptLine(bufio.NewReader(os.Stdin), "Email", os.Stderr); err != nil {
			return err
		}
	}
	pw, err := promptPassword(os.Stderr)
	if err != nil {
		return err
	}

	st, err := loadState(c.state)
	if err != nil {
		return err
	}
	baseURL := c.resolveBaseURL(st)

	ctx, cancel := timeout()
	defer cancel()
	u, tokens, err := usersclient.NewClient(baseURL).Login(ctx, *email, pw)
	if err != nil {
		return err
	}
	st.BaseURL = baseURL
	st.Tokens = tokens
	if err := saveState(c.state, st); err != nil {
		return err
	}
	return printJSON(u)
}

// guardedCall runs fn with the stored tokens and persists the rotated pair.
func guardedCall(name string, args []string, fn func(ctx context.Context, cl *usersclient.Client, t usersclient.Tokens) (any, usersclient.Tokens, error)) error {
	var c common
	fs := newFlagSet(name, &c)
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := loadState(c.state)
	if err != nil {
		return err
	}
	if st.Tokens.Access == "" {
		return fmt.Errorf("not logged in")
	}

	ctx, cancel := timeout()
	defer cancel()
	out, next, err := fn(ctx, usersclient.NewClient(c.resolveBaseURL(st)), st.Tokens)
	if err != nil {
		return err
	}
	st.Tokens = next
	if err := saveState(c.state, st); err != nil {
		return err
	}
	return printJSON(out)
}

func runMe(args []string) error {
	return guardedCall("me", args, func(ctx context.Context, cl *usersclient.Client, t usersclient.Tokens) (any, usersclient.Tokens, error) {
		u, next, err := cl.Me(ctx, t)
		if err != nil {
			return nil, t, err
		}
		out := struct {
			User             *dto.UserResponse `json:"user"`
			AccessExpiresAt  time.Time         `json:"accessExpiresAt"`
			RefreshExpiresAt time.Time         `json:"refreshExpiresAt"`
		}{u, next.AccessExpiresAt, next.RefreshExpiresAt}
		return out, next, nil
	})
}

func runUsers(args []string) error {
	return guardedCall("users", args, func(ctx context.Context, cl *usersclient.Client, t usersclient.Tokens) (any, usersclient.Tokens, error) {
		return cl.Users(ctx, t)
	})
}

func runLogout(args []string) error {
	return guardedCall("logout", args, func(ctx context.Context, cl *usersclient.Client, t usersclient.Tokens) (any, usersclient.Tokens, error) {
		msg, err := cl.Logout(ctx, t)
		return dto.LogoutResponse{Message: msg}, usersclient.Tokens{}, err
	})
}

func runInspect(args []string) error {
	var c common
	fs := newFlagSet("inspect", &c)
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := loadState(c.state)
	if err != nil {
		return err
	}
	return printJSON(inspectTokens(st))
}

func inspectTokens(st state) map[string]any {
	out := map[string]any{}
	for name, tok := range map[string]string{
		"activation": st.ActivationToken,
		"access":     st.Tokens.Access,
		"refresh":    st.Tokens.Refresh,
	} {
		if tok == "" {
			continue
		}
		if claims, ok := jwtsigner.DecodeUnverified(tok); ok {
			out[name] = claims
		} else {
			out[name] = "malformed"
		}
	}
	return out
}

func promptLine(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(w io.Writer) (string, error) {
	if pw := os.Getenv("USERSCTL_PASSWORD"); pw != "" {
		return pw, nil
	}
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
