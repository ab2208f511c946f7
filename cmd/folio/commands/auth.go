package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/strrl/folio/internal/errs"
	"github.com/strrl/folio/pkg/models"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the portfolio admin",
		Long: `Log in with the admin email and password. The password is read from the
terminal without echo, or from the first line of stdin when it is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.auth.Login(cmd.Context(), models.Credentials{Email: email, Password: password}); err != nil {
				return fmt.Errorf("login: %s", errs.UserMessage(err))
			}

			s, _ := a.auth.Session(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Connecté (utilisateur %s) jusqu'à %s\n",
				s.UserID, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Mot de passe: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			a.auth.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Déconnecté")
			return nil
		},
	}
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a valid session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			s, ok := a.auth.Session(cmd.Context())
			if !ok {
				fmt.Fprintln(out, "Non connecté")
				return nil
			}
			fmt.Fprintln(out, "Connecté")
			fmt.Fprintf(out, "   Utilisateur: %s\n", s.UserID)
			fmt.Fprintf(out, "   Depuis: %s\n", s.IssuedAt.Local().Format("2006-01-02 15:04"))
			fmt.Fprintf(out, "   Expire: %s\n", s.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}
