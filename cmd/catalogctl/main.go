// Command catalogctl browses the API catalog from a terminal and keeps the
// login credential in a local token file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"

	"apicatalog/internal/client"
	"apicatalog/internal/logging"
	"apicatalog/internal/pkg/jwtutil"
)

func main() {
	logging.SetupWriter(os.Getenv("LOG_LEVEL"), "console", os.Stderr)
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logging.Error().Err(err).Msg("catalogctl failed")
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "catalogctl",
		Usage:  "browse and like entries of the API catalog",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:3333",
				EnvVars: []string{"CATALOG_SERVER"},
				Usage:   "catalog server base URL",
			},
			&cli.StringFlag{
				Name:    "token-dir",
				Value:   defaultTokenDir(),
				EnvVars: []string{"CATALOG_TOKEN_DIR"},
				Usage:   "directory holding the stored credential",
			},
			&cli.StringFlag{
				Name:    "secret",
				EnvVars: []string{"TOKEN_SECRET_KEY"},
				Usage:   "token secret used to read the liked set from the credential",
			},
		},
		Commands: []*cli.Command{
			registerCommand(),
			loginCommand(),
			logoutCommand(),
			listCommand(),
			likedCommand(),
			likeCommand("like", "like an entry", (*client.Card).Like),
			likeCommand("dislike", "remove your like from an entry", (*client.Card).Dislike),
		},
	}
}

func defaultTokenDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".apicatalog"
	}
	return filepath.Join(dir, "apicatalog")
}

func apiClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"))
}

func tokenStore(c *cli.Context) *client.FileTokenStore {
	return client.NewFileTokenStore(c.String("token-dir"))
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "create an account and store its credential",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "country", Required: true},
		},
		Action: func(c *cli.Context) error {
			session, err := apiClient(c).Register(c.Context, client.RegisterRequest{
				Name:            c.String("name"),
				Email:           c.String("email"),
				Password:        c.String("password"),
				ConfirmPassword: c.String("password"),
				Country:         c.String("country"),
			})
			if err != nil {
				return err
			}
			if err := tokenStore(c).Save(session.Token); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "registered %s (id %d)\n", session.User.Name, session.User.ID)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "log in and store the credential",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(c *cli.Context) error {
			session, err := apiClient(c).Login(c.Context, c.String("email"), c.String("password"))
			if err != nil {
				return err
			}
			if err := tokenStore(c).Save(session.Token); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "logged in as %s\n", session.User.Name)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored credential",
		Action: func(c *cli.Context) error {
			if err := tokenStore(c).Clear(); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "logged out")
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "show one page of the catalog",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Value: 1},
			&cli.IntFlag{Name: "limit", Value: 10},
		},
		Action: func(c *cli.Context) error {
			api := apiClient(c)
			page, err := api.List(c.Context, c.Int("page"), c.Int("limit"))
			if err != nil {
				return err
			}
			if err := renderCards(c, api, page.Items); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "page %d of %d (%d entries)\n", page.Page, page.Pages, page.Total)
			return nil
		},
	}
}

func likedCommand() *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "show the entries liked by the logged-in user",
		Action: func(c *cli.Context) error {
			token, err := tokenStore(c).Load()
			if err != nil {
				return err
			}
			if token == "" {
				return client.ErrNotLoggedIn
			}
			claims, err := jwtutil.Decode(token, c.String("secret"))
			if err != nil {
				return fmt.Errorf("%w: %v", client.ErrNotLoggedIn, err)
			}
			ids := claims.LikedSet()
			if len(ids) == 0 {
				fmt.Fprintln(c.App.Writer, "no liked entries")
				return nil
			}
			api := apiClient(c)
			entries, err := api.ListByIDs(c.Context, ids)
			if err != nil {
				return err
			}
			return renderCards(c, api, entries)
		},
	}
}

func likeCommand(name, usage string, act func(*client.Card, context.Context) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<api id>",
		Action: func(c *cli.Context) error {
			id, err := strconv.ParseUint(c.Args().First(), 10, 64)
			if err != nil || id == 0 {
				return errors.New("a numeric api id is required")
			}
			api := apiClient(c)
			entries, err := api.ListByIDs(c.Context, []uint{uint(id)})
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("api %d not found", id)
			}

			card := client.NewCard(entries[0], api, tokenStore(c), c.String("secret"))
			if err := card.Mount(c.Context); err != nil {
				logging.Warn().Err(err).Uint64("api_id", id).Msg("load creator name failed")
			}
			if err := act(card, c.Context); err != nil {
				if errors.Is(err, client.ErrNotLoggedIn) {
					return fmt.Errorf("%s requires a login: %w", name, err)
				}
				return err
			}
			return card.Render(c.App.Writer)
		},
	}
}

func renderCards(c *cli.Context, api *client.Client, entries []client.Entry) error {
	store := tokenStore(c)
	for _, entry := range entries {
		card := client.NewCard(entry, api, store, c.String("secret"))
		if err := card.Mount(c.Context); err != nil {
			logging.Warn().Err(err).Uint("api_id", entry.ID).Msg("load creator name failed")
		}
		if err := card.Render(c.App.Writer); err != nil {
			return err
		}
	}
	return nil
}
