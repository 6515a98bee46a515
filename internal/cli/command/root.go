package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sod-go/internal/cli/connection"
	"github.com/yndnr/sod-go/internal/infra/buildinfo"
	"github.com/yndnr/sod-go/internal/server/config"
	"github.com/yndnr/sod-go/pkg/frame"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "sod-cli",
		Usage:   "authenticate through the sod daemon",
		Version: buildinfo.Get().Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			LogoutCommand(),
			VersionCommand(),
		},
		HideVersion: true,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "socket",
			Aliases: []string{"s"},
			Usage:   "daemon socket path",
			EnvVars: []string{"SOD_SOCKET"},
			Value:   config.DefaultLocalSocket,
		},
		&cli.StringFlag{
			Name:    "network",
			Usage:   "socket network: unixpacket, unix or tcp",
			EnvVars: []string{"SOD_NETWORK"},
			Value:   frame.DefaultNetwork,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "give up after this long (0 waits for the daemon)",
		},
	}
}

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	Socket  string
	Network string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Socket:  c.String("socket"),
		Network: c.String("network"),
	}
}

// dial connects to the daemon named by the global flags.
func dial(c *cli.Context) (*connection.Client, error) {
	flags := ParseGlobalFlags(c)
	return connection.Dial(flags.Network, flags.Socket)
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print build information",
		Action: func(c *cli.Context) error {
			fmt.Fprintln(c.App.Writer, "sod-cli "+buildinfo.String())
			return nil
		},
	}
}
