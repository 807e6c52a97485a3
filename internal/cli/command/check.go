package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// CheckResult is one line of `check` output.
type CheckResult struct {
	Group  string `json:"group" yaml:"group"`
	Status string `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Check statuses.
const (
	StatusOK      = "ok"
	StatusInvalid = "invalid"
)

// CheckCommand returns the check command.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Parse every baseline (or the named groups) and report failures",
		ArgsUsage: "[group...]",
		Action:    checkGroups,
	}
}

func checkGroups(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.Close()

	groups := c.Args().Slice()
	if len(groups) == 0 {
		groups, err = e.store.Discover()
		if err != nil {
			return err
		}
	}

	results := make([]CheckResult, 0, len(groups))
	failed := 0
	for _, g := range groups {
		res := CheckResult{Group: g, Status: StatusOK}
		content, err := e.store.Inspect(g)
		if err != nil {
			res.Status = StatusInvalid
			res.Detail = err.Error()
			failed++
			e.log.Debug("baseline failed check", "group", g, "error", err)
		} else {
			res.Detail = fmt.Sprintf("%d snapshots", snapshotCount(content.Keys()))
		}
		results = append(results, res)
	}

	if err := e.out.Format(c.App.Writer, results); err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d baselines invalid", failed, len(groups)), 1)
	}
	return nil
}
