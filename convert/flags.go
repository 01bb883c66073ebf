package convert

import (
	cli "github.com/urfave/cli/v3"
)

// Flags returns flags understood by Run.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write result to `PATH` (file or directory, required for directory SOURCE)"},
		&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "keep running and recompile when SOURCE changes"},
		&cli.StringSliceFlag{Name: "include", Aliases: []string{"I"}, Usage: "additional `DIR` to search for imports (may be repeated)"},
	}
}
