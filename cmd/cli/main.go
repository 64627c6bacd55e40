// Command vh is a CLI client for the vidhub REST API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ---- token store ----

type tokenFile struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "vidhub")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vidhub")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveTokens(p tokenPair) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		AccessExpiresAt: expiryOf(p.AccessToken),
	})
}

func loadTokens() (*tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.New("not logged in (run: vh login)")
	}
	if err != nil {
		return nil, err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return nil, err
	}
	if tf.AccessToken == "" && tf.RefreshToken == "" {
		return nil, errors.New("not logged in (run: vh login)")
	}
	return &tf, nil
}

func removeTokens() error {
	if err := os.Remove(tokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// expiryOf reads exp without verifying the signature; the server is the judge.
func expiryOf(token string) time.Time {
	var claims jwt.RegisteredClaims
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// accessToken returns a usable access token, rotating through the refresh
// token when the stored one has expired.
func accessToken(ctx context.Context, c *client, now time.Time) (string, error) {
	tf, err := loadTokens()
	if err != nil {
		return "", err
	}
	if tf.AccessToken != "" && now.Before(tf.AccessExpiresAt) {
		return tf.AccessToken, nil
	}
	if tf.RefreshToken == "" {
		return "", errors.New("session expired (run: vh login)")
	}
	pair, err := c.refresh(ctx, tf.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	if err := saveTokens(pair); err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `vh CLI
Usage:
  vh [-server URL] <cmd> [args]

Commands:
  version
  register  -u <username> -e <email> -n <full name> -p <password> -avatar <file> [-cover <file>]
  login     (-u <username> | -e <email>) -p <password>     (saves tokens)
  refresh                                              (rotates saved tokens)
  logout                                               (ends the session, removes tokens)
  whoami
  passwd    -old <password> -new <password>
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	server := flag.String("server", envOr("VIDHUB_SERVER", "http://localhost:8000"), "server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c := newClient(*server, &http.Client{Timeout: 5 * time.Minute})
	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			usage()
		}
		fail(err)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, c *client, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "version":
		fmt.Fprintf(out, "vh %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		n := fs.String("n", "", "full name")
		p := fs.String("p", "", "password")
		avatar := fs.String("avatar", "", "avatar image")
		cover := fs.String("cover", "", "cover image (optional)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *u == "" || *e == "" || *p == "" || *avatar == "" {
			return errors.New("need -u, -e, -p and -avatar")
		}
		a, err := c.register(ctx, map[string]string{
			"username": *u, "email": *e, "fullName": *n, "password": *p,
		}, *avatar, *cover)
		if err != nil {
			return err
		}
		printJSON(out, a)

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		u := fs.String("u", "", "username")
		e := fs.String("e", "", "email")
		p := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if (*u == "" && *e == "") || *p == "" {
			return errors.New("need -u or -e, and -p")
		}
		a, pair, err := c.login(ctx, *u, *e, *p)
		if err != nil {
			return err
		}
		if err := saveTokens(pair); err != nil {
			return err
		}
		fmt.Fprintf(out, "logged in as %s\n", a.Username)

	case "refresh":
		tf, err := loadTokens()
		if err != nil {
			return err
		}
		pair, err := c.refresh(ctx, tf.RefreshToken)
		if err != nil {
			return err
		}
		if err := saveTokens(pair); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")

	case "logout":
		tok, err := accessToken(ctx, c, time.Now())
		if err != nil {
			return err
		}
		if err := c.logout(ctx, tok); err != nil {
			return err
		}
		if err := removeTokens(); err != nil {
			return err
		}
		fmt.Fprintln(out, "logged out")

	case "whoami":
		tok, err := accessToken(ctx, c, time.Now())
		if err != nil {
			return err
		}
		a, err := c.currentUser(ctx, tok)
		if err != nil {
			return err
		}
		printJSON(out, a)

	case "passwd":
		fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
		oldPw := fs.String("old", "", "current password")
		newPw := fs.String("new", "", "new password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *oldPw == "" || *newPw == "" {
			return errors.New("need -old and -new")
		}
		tok, err := accessToken(ctx, c, time.Now())
		if err != nil {
			return err
		}
		if err := c.changePassword(ctx, tok, *oldPw, *newPw); err != nil {
			return err
		}
		fmt.Fprintln(out, "ok")

	default:
		return errUsage
	}
	return nil
}

// ---- helpers ----

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(os.Stderr, "server error: status=%d msg=%s\n", ae.Status, ae.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
