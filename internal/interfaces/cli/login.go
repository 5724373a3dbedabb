package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/waste3d/cfproxyhub/internal/config"
	"golang.org/x/term"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the API server and save the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username = askString(reader, out, "Enter Username", "admin")
			}

			fmt.Fprint(out, "Enter Password: ")
			password, err := readPassword(cmd.InOrStdin(), reader)
			if err != nil {
				return fmt.Errorf("could not read password: %w", err)
			}
			fmt.Fprintln(out)

			cfg := opts.clientConfig()
			result, err := newAPIClient(cfg).Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			path, err := config.SaveToken(opts.v, result.Token)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Login successful! Token saved to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	return cmd
}

// readPassword reads without echo when in is a terminal, or a plain line
// otherwise.
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
