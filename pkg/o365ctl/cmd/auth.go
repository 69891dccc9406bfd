// SPDX-FileCopyrightText: 2025 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telekom/o365ctl/pkg/o365ctl/auth"
	"github.com/telekom/o365ctl/pkg/o365ctl/output"
	"github.com/telekom/o365ctl/pkg/o365ctl/profile"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Microsoft Entra ID",
	}
	cmd.AddCommand(
		newAuthLoginCommand(),
		newAuthStatusCommand(),
		newAuthLogoutCommand(),
	)
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var tenant string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login in the browser (authorization code with PKCE)",
		Long: `Login opens the Microsoft sign-in page and waits for the redirect on a local
loopback port. Any existing session is cleared first. The refresh token is kept
in the OS keychain (or the token file with --token-storage file).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			manager, err := rt.SessionManager(tenant)
			if err != nil {
				return err
			}
			accessToken, err := manager.Login(cmd.Context())
			if err != nil {
				return err
			}

			p := rt.saveProfile(accessToken, tenant)
			if p != nil {
				_, _ = fmt.Fprintf(rt.Writer(), "Login successful. Signed in as %s (%s)\n", p.Name, p.Email)
				return nil
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Login successful.")
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant ID or domain to sign in to (default from config, then \"common\")")
	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Verify the stored session and show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			format, err := rt.OutputFormat()
			if err != nil {
				return err
			}
			manager, err := rt.SessionManager("")
			if err != nil {
				return err
			}

			stop := startSpinner(rt.ErrWriter(), "Verifying session...")
			accessToken, err := manager.AccessToken(cmd.Context())
			stop()
			if errors.Is(err, auth.ErrNoStoredCredential) {
				_, _ = fmt.Fprintf(rt.Writer(), "Not authenticated, %s\n", auth.LoginHint)
				return nil
			}
			if err != nil {
				return err
			}

			p := rt.saveProfile(accessToken, "")
			if p == nil {
				_, _ = fmt.Fprintln(rt.Writer(), "Authenticated.")
				return nil
			}
			if format == output.FormatTable {
				_, _ = fmt.Fprintln(rt.Writer(), "Authenticated.")
			}
			return output.WriteProfile(rt.Writer(), format, p)
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			manager, err := rt.SessionManager("")
			if err != nil {
				return err
			}
			if err := manager.Logout(); err != nil {
				return err
			}
			if err := profile.Remove(rt.profilePathValue()); err != nil {
				rt.log.Warnw("Failed to remove profile", "path", rt.profilePathValue(), "error", err)
			}
			_, _ = fmt.Fprintln(rt.Writer(), "Logged out")
			return nil
		},
	}
}

// saveProfile decodes the operator profile from the access token and persists it.
// Failures only warn; the profile is informational.
func (rt *runtimeState) saveProfile(accessToken, tenant string) *profile.UserProfile {
	p, err := profile.FromAccessToken(accessToken, rt.now())
	if err != nil {
		rt.log.Warnw("Failed to decode profile from access token", "error", err)
		return nil
	}
	if p.TenantID == "" {
		p.TenantID = tenant
	}
	if err := profile.Save(rt.profilePathValue(), p); err != nil {
		rt.log.Warnw("Failed to save profile", "path", rt.profilePathValue(), "error", err)
	}
	rt.log.Infow("Profile updated", "email", p.Email, "tenant", p.TenantID)
	return p
}
