package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwagner/gmailmcp/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account            string
		authCode           string
		deleteToken        bool
		googleClientID     string
		googleClientSecret string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize gmailmcp to access a Google account",
		Long: `Run the installed-app OAuth flow for a Google account.

Without --code, prints the Google consent URL to visit. After granting
access, Google displays an authorization code; run the command again
with --code to exchange it and store the resulting token.

Tokens are stored per account alias in the OS keyring, or in an
encrypted file under the XDG data directory on headless hosts. Use
--account to authorize more than one Google account.

Client credentials come from --google-client-id/--google-client-secret
or the GMAILMCP_GOOGLE_CLIENT_ID and GMAILMCP_GOOGLE_CLIENT_SECRET
environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := google.NewTokenStore()
			if err != nil {
				return fmt.Errorf("failed to open token store: %w", err)
			}

			auth, err := google.NewManager(store, googleClientID, googleClientSecret)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if deleteToken {
				if err := auth.DeleteToken(account); err != nil {
					return err
				}
				fmt.Fprintf(out, "Token for account %q deleted.\n", account)
				return nil
			}

			if authCode != "" {
				if err := auth.SaveAuthCode(cmd.Context(), account, authCode); err != nil {
					return err
				}
				fmt.Fprintf(out, "Account %q authorized. Token stored.\n", account)
				return nil
			}

			if auth.HasToken(account) {
				fmt.Fprintf(out, "Account %q is already authorized. Re-authorizing replaces the stored token.\n\n", account)
			}

			fmt.Fprintf(out, `Visit this URL in your browser to authorize access:

  %s

Sign in, grant access to Gmail, and copy the authorization code.
Then complete the flow with:

  gmailmcp auth --account %s --code <authorization-code>
`, auth.AuthURL(), account)

			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account alias to store the token under")
	cmd.Flags().StringVar(&authCode, "code", "", "Authorization code from Google to exchange for a token")
	cmd.Flags().BoolVar(&deleteToken, "delete", false, "Delete the stored token for the account")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth client ID. Can also use GMAILMCP_GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GMAILMCP_GOOGLE_CLIENT_SECRET env var.")

	return cmd
}
