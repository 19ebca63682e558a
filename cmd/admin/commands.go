package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jrsteele09/go-admin-client/apimodel"
	"github.com/jrsteele09/go-admin-client/auth"
	"github.com/jrsteele09/go-admin-client/client"
	"github.com/jrsteele09/go-admin-client/credentials"
	"github.com/jrsteele09/go-admin-client/internal/errors"
	"github.com/jrsteele09/go-admin-client/token/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// commandClient is a client built for a single command. It records what the
// auth workflows notify and where they send the user, for report to print.
type commandClient struct {
	*client.Client
	notifications *auth.NotificationRecorder
	routes        *auth.RouteRecorder
}

func newClient(ctx context.Context, cmd *cli.Command, opts ...client.Option) (*commandClient, error) {
	cfg := newSettings(cmd.Root())
	store, err := credentials.New(cfg)
	if err != nil {
		return nil, err
	}

	cc := &commandClient{
		notifications: &auth.NotificationRecorder{},
		routes:        &auth.RouteRecorder{},
	}
	opts = append([]client.Option{
		client.WithNotifier(cc.notifications),
		client.WithNavigator(cc.routes),
	}, opts...)
	cc.Client, err = client.New(ctx, cfg, store, opts...)
	if err != nil {
		return nil, err
	}
	return cc, nil
}

// report prints the recorded notifications and a hint when the session ended.
func (c *commandClient) report(w io.Writer) {
	for _, n := range c.notifications.Notifications() {
		if n.Message == "" {
			fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Title)
			continue
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", n.Level, n.Title, n.Message)
	}
	if c.routes.Current() == auth.RouteLogin {
		fmt.Fprintln(w, "Run `admin login` to sign in")
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "User email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "User password", Sources: cli.EnvVars("ADMIN_PASSWORD")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.report(cmd.Root().Writer)
			return c.Auth.Login(ctx, apimodel.SignIn{
				Email:    cmd.String("email"),
				Password: cmd.String("password"),
			})
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.report(cmd.Root().Writer)
			c.Auth.Logout(ctx)
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Fetch the profile of the signed in user",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			defer c.report(cmd.Root().Writer)
			user, err := c.Auth.Me(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.Root().Writer, user)
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored session without contacting the API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(ctx, cmd)
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			state := c.Session.State()
			if !state.IsAuthenticated {
				fmt.Fprintln(w, "Not signed in")
				return nil
			}

			fmt.Fprintf(w, "Signed in as %s <%s>\n", state.CurrentUser.Name, state.CurrentUser.Email)
			claims, err := jwt.Inspect(state.Tokens.AccessToken)
			switch {
			case errors.Is(err, jwt.ErrNotJWT):
				fmt.Fprintln(w, "Access token is opaque")
			case err != nil:
				return err
			case claims.Expiry().IsZero():
				fmt.Fprintln(w, "Access token does not expire")
			case claims.Expired(time.Now()):
				fmt.Fprintf(w, "Access token expired at %s, it is refreshed on the next request\n", claims.Expiry().Local().Format(time.RFC1123))
			default:
				fmt.Fprintf(w, "Access token expires at %s\n", claims.Expiry().Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Send authenticated GET requests concurrently",
		ArgsUsage: "<path>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "metrics", Usage: "Print the request pipeline counters afterwards"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return cli.Exit("at least one path is required", 2)
			}

			reg := prometheus.NewRegistry()
			c, err := newClient(ctx, cmd, client.WithRegisterer(reg))
			if err != nil {
				return err
			}
			defer c.report(cmd.Root().Writer)

			w := cmd.Root().Writer
			responses, err := c.GetAll(ctx, paths...)
			for i, resp := range responses {
				if resp == nil {
					continue
				}
				fmt.Fprintf(w, "%s %d\n", paths[i], resp.Status)
				if !resp.NoContent() {
					fmt.Fprintln(w, resp.Text())
				}
			}
			if cmd.Bool("metrics") {
				if err := printMetrics(w, reg); err != nil {
					return err
				}
			}
			return err
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
