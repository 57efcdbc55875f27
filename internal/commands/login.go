package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/auth"
	"github.com/diogo/researchcopilot/internal/browser"
	"github.com/diogo/researchcopilot/internal/config"
)

type loginOptions struct {
	token      string
	importPath string
	browser    string
	noBrowser  bool
	timeout    time.Duration
}

func (a *app) newLoginCmd() *cobra.Command {
	var opts loginOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Long: `Sign in with your Google account.

A browser window opens on Google's sign-in page and the CLI waits for the
redirect on a local port. The resulting ID token is stored in the system
keychain (or in a private file when no keychain is available) and renewed
automatically before it expires.

On machines without a browser, paste an ID token instead:
  researchcopilot login --token <jwt>
  echo "$TOKEN" | researchcopilot login --token -
or import the credentials file written by another machine:
  researchcopilot login --import credentials.json

Supported browsers: ` + supportedBrowsersHelp(),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case opts.token != "":
				return a.runTokenLogin(opts.token)
			case opts.importPath != "":
				return a.runImportLogin(opts.importPath)
			default:
				return a.runBrowserLogin(cmd, opts)
			}
		},
	}

	cmd.Flags().StringVar(&opts.token, "token", "", "Store this ID token instead of signing in (- reads stdin)")
	cmd.Flags().StringVar(&opts.importPath, "import", "", "Import a credentials file or raw token file")
	cmd.Flags().StringVarP(&opts.browser, "browser", "b", "auto", "Browser to open")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "Print the sign-in URL instead of opening it")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "How long to wait for the sign-in")
	return cmd
}

func (a *app) runBrowserLogin(cmd *cobra.Command, opts loginOptions) error {
	target, err := browser.ParseBrowser(opts.browser)
	if err != nil {
		return err
	}

	transport, err := api.NewTransport()
	if err != nil {
		return err
	}

	flow, err := auth.StartFlow(auth.GoogleFlowConfig(a.cfg.OAuth), transport)
	if err != nil {
		return err
	}
	defer flow.Close()

	fmt.Fprintln(a.deps.Stdout, "Open this URL to sign in:")
	fmt.Fprintf(a.deps.Stdout, "\n  %s\n\n", flow.AuthURL)
	if !opts.noBrowser {
		if err := a.deps.OpenBrowser(target, flow.AuthURL); err != nil {
			fmt.Fprintf(a.deps.Stderr, "Warning: could not open a browser: %v\n", err)
		}
	}
	fmt.Fprintln(a.deps.Stdout, "Waiting for the sign-in to complete...")

	tokens, err := flow.Wait(cmd.Context(), opts.timeout)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	creds, err := tokens.Credentials(a.deps.Now())
	if err != nil {
		return err
	}
	if creds.RefreshToken == "" {
		fmt.Fprintln(a.deps.Stderr, "Warning: Google returned no refresh token; you will need to sign in again when the token expires.")
	}
	return a.storeCredentials(creds)
}

func (a *app) runTokenLogin(token string) error {
	if token == "-" {
		data, err := io.ReadAll(a.deps.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		token = string(data)
	}

	creds, err := config.ParseCredentials([]byte(token))
	if err != nil {
		return err
	}
	return a.storeCredentials(creds)
}

func (a *app) runImportLogin(path string) error {
	creds, err := config.ImportCredentials(path)
	if err != nil {
		return fmt.Errorf("failed to import credentials: %w", err)
	}
	return a.storeCredentials(creds)
}

// storeCredentials saves creds and reports who is signed in
func (a *app) storeCredentials(creds *config.Credentials) error {
	fillFromClaims(creds)
	if err := config.SaveCredentials(creds); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	who := creds.Email
	if who == "" {
		who = "unknown account"
	}
	fmt.Fprintf(a.deps.Stdout, "Signed in as %s.\n", who)
	if exp := creds.ExpiresAt(); !exp.IsZero() && exp.Before(a.deps.Now()) {
		fmt.Fprintln(a.deps.Stderr, "Warning: this token has already expired.")
	}
	return nil
}

// fillFromClaims completes email and expiry from the ID token
func fillFromClaims(creds *config.Credentials) {
	claims, err := auth.ParseClaims(creds.GetIDToken())
	if err != nil {
		return
	}
	if creds.Email == "" {
		creds.Email = claims.Email
	}
	if creds.ExpiresAt().IsZero() {
		creds.Update(creds.GetIDToken(), claims.Expiry())
	}
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteCredentials(); err != nil {
				return err
			}
			fmt.Fprintln(a.deps.Stdout, "Signed out.")
			if a.cfg.EnvToken != "" {
				fmt.Fprintf(a.deps.Stderr, "Note: %s is still set and will be used.\n", config.EnvToken)
			}
			return nil
		},
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _, source, err := a.loadToken()
			if err != nil {
				return err
			}
			claims, err := auth.ParseClaims(token)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.deps.Stdout, "Email:   %s\n", claims.Email)
			if claims.Name != "" {
				fmt.Fprintf(a.deps.Stdout, "Name:    %s\n", claims.Name)
			}
			fmt.Fprintf(a.deps.Stdout, "Source:  %s\n", source)

			exp := claims.Expiry()
			switch {
			case exp.IsZero():
				fmt.Fprintln(a.deps.Stdout, "Expires: never")
			case exp.Before(a.deps.Now()):
				fmt.Fprintf(a.deps.Stdout, "Expires: %s (expired)\n", exp.Local().Format(time.RFC3339))
			default:
				fmt.Fprintf(a.deps.Stdout, "Expires: %s (in %s)\n",
					exp.Local().Format(time.RFC3339), exp.Sub(a.deps.Now()).Round(time.Minute))
			}
			return nil
		},
	}
}

// supportedBrowsersHelp returns a help string listing supported browsers
func supportedBrowsersHelp() string {
	browsers := browser.AllSupportedBrowsers()
	names := make([]string, len(browsers))
	for i, b := range browsers {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}
