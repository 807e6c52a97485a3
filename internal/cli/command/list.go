package command

import (
	"github.com/urfave/cli/v2"
)

// GroupRow is one line of `list` output.
type GroupRow struct {
	Group     string `json:"group" yaml:"group"`
	Snapshots int    `json:"snapshots" yaml:"snapshots"`
	Path      string `json:"path" yaml:"path"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List baseline groups and their snapshot counts",
		Action:  listGroups,
	}
}

func listGroups(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	groups, err := e.store.Discover()
	if err != nil {
		return err
	}

	rows := make([]GroupRow, 0, len(groups))
	for _, g := range groups {
		row := GroupRow{Group: g, Path: e.store.Path(g)}
		content, err := e.store.Inspect(g)
		if err != nil {
			row.Error = err.Error()
		} else {
			row.Snapshots = snapshotCount(content.Keys())
		}
		rows = append(rows, row)
	}

	return e.out.Format(c.App.Writer, rows)
}
