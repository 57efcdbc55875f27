package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/researchcopilot/internal/api"
	"github.com/diogo/researchcopilot/internal/auth"
	"github.com/diogo/researchcopilot/internal/config"
)

// check is one line of the doctor report
type check struct {
	name   string
	ok     bool
	detail string
}

func (a *app) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := a.runChecks(cmd.Context())

			failed := 0
			for _, c := range checks {
				mark := successStyle.Render("✓")
				if !c.ok {
					mark = errorStyle.Render("✗")
					failed++
				}
				fmt.Fprintf(a.deps.Stdout, "%s %-12s %s\n", mark, c.name, dimStyle.Render(c.detail))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}
			return nil
		},
	}
}

func (a *app) runChecks(ctx context.Context) []check {
	return []check{
		a.checkConfig(),
		a.checkCredentials(),
		a.checkOAuth(),
		a.checkBackend(ctx),
	}
}

func (a *app) checkConfig() check {
	path, err := config.GetConfigPath()
	if err != nil {
		return check{name: "config", detail: err.Error()}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return check{name: "config", ok: true, detail: path + " (not created, using defaults)"}
	} else if err != nil {
		return check{name: "config", detail: err.Error()}
	}
	if _, err := config.LoadFileConfig(); err != nil {
		return check{name: "config", detail: err.Error()}
	}
	return check{name: "config", ok: true, detail: path}
}

func (a *app) checkCredentials() check {
	token, _, source, err := a.loadToken()
	if err != nil {
		if errors.Is(err, config.ErrNoCredentials) {
			return check{name: "credentials", detail: "not signed in (run 'researchcopilot login')"}
		}
		return check{name: "credentials", detail: err.Error()}
	}

	claims, err := auth.ParseClaims(token)
	if err != nil {
		return check{name: "credentials", detail: fmt.Sprintf("%s: %v", source, err)}
	}

	detail := fmt.Sprintf("%s (%s)", claims.Email, source)
	exp := claims.Expiry()
	switch {
	case exp.IsZero():
	case exp.Before(a.deps.Now()):
		return check{name: "credentials", detail: detail + ", expired " + exp.Local().Format(time.RFC3339)}
	default:
		detail += ", expires in " + exp.Sub(a.deps.Now()).Round(time.Minute).String()
	}
	return check{name: "credentials", ok: true, detail: detail}
}

func (a *app) checkOAuth() check {
	if a.cfg.OAuth.ClientID == "" {
		return check{name: "oauth", ok: true, detail: fmt.Sprintf("no client id; browser login and refresh are off (set %s)", config.EnvClientID)}
	}
	return check{name: "oauth", ok: true, detail: "client id configured"}
}

func (a *app) checkBackend(ctx context.Context) check {
	var client api.BackendClient = a.deps.Client
	if client == nil {
		c, _, err := a.dialBackend(nil)
		if err != nil {
			return check{name: "backend", detail: err.Error()}
		}
		defer c.Close()
		client = c
	}

	start := time.Now()
	if err := client.Health(ctx); err != nil {
		return check{name: "backend", detail: fmt.Sprintf("%s: %v", client.BaseURL(), err)}
	}
	return check{name: "backend", ok: true, detail: fmt.Sprintf("%s (%s)", client.BaseURL(), time.Since(start).Round(time.Millisecond))}
}
