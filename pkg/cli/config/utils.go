package config

import "github.com/urfave/cli/v3"

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var ret []cli.Flag
	for _, f := range flags {
		ret = append(ret, f...)
	}
	return ret
}
