package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapmesh-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			out, err := formatter(c)
			if err != nil {
				return err
			}
			return out.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
