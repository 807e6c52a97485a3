package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapmesh-go/internal/core/domain"
	"github.com/yndnr/snapmesh-go/internal/storage"
)

// Entry is one recorded key of a group.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ShowCommand returns the show command.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show the entries of one baseline group",
		ArgsUsage: "<group>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "key",
				Aliases: []string{"k"},
				Usage:   "Only show keys starting with this prefix",
			},
			&cli.BoolFlag{
				Name:  "meta",
				Usage: "Include cssClassName and decorator entries",
			},
		},
		Action: showGroup,
	}
}

func showGroup(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("show requires exactly one <group> argument", 2)
	}
	group := c.Args().First()

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	content, err := e.store.Inspect(group)
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("no baseline for group %q at %s", group, e.store.Path(group)), 1)
	}
	if err != nil {
		return err
	}

	prefix := c.String("key")
	entries := make([]Entry, 0, content.Len())
	for _, k := range content.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !c.Bool("meta") && domain.IsMetaKey(k) {
			continue
		}
		v, _ := content.Get(k)
		entries = append(entries, Entry{Key: k, Value: v})
	}

	return e.out.Format(c.App.Writer, entries)
}
