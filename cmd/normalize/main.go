package main

import (
	"context"
	"fmt"
	"os"

	"judgegate/internal/report"
	"judgegate/internal/report/normalizer"
	appErr "judgegate/pkg/errors"
	"judgegate/pkg/utils/logger"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(context.Background(), os.Args))
}

func run(ctx context.Context, args []string) int {
	console, err := logger.NewConsole(logger.Config{Level: "warn", Format: "console", OutputPath: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return report.ExitBadInvocation
	}
	defer func() {
		_ = console.Sync()
	}()
	log := console.Named("normalize")

	exitCode := report.ExitBadInvocation
	cmd := newCommand(&exitCode)
	if err := cmd.Run(ctx, args); err != nil {
		log.Error("normalize failed", zap.Int("exit_code", exitCode), zap.Error(err))
	}
	return exitCode
}

// newCommand builds the CLI. Actions store the process exit code in exitCode;
// the library never exits on its own. Tool arguments are taken as raw argv so
// paths starting with "-" are not read as flags.
func newCommand(exitCode *int) *cli.Command {
	commands := make([]*cli.Command, 0, len(normalizer.Tools())+1)
	for _, tool := range normalizer.Tools() {
		tool := tool
		commands = append(commands, &cli.Command{
			Name:            tool,
			Usage:           fmt.Sprintf("normalize %s output and grade it", tool),
			ArgsUsage:       "<tool output> <file number> <report file> <grade file>",
			SkipFlagParsing: true,
			Action: func(_ context.Context, c *cli.Command) error {
				code, err := normalizer.Run(tool, c.Args().Slice())
				*exitCode = code
				return err
			},
		})
	}
	commands = append(commands, &cli.Command{
		Name:            "memcheck",
		Usage:           "extract valgrind memcheck errors",
		ArgsUsage:       "<valgrind xml output> <report file>",
		SkipFlagParsing: true,
		Action: func(_ context.Context, c *cli.Command) error {
			code, err := normalizer.RunMemcheck(c.Args().Slice(), os.Stderr)
			*exitCode = code
			return err
		},
	})

	return &cli.Command{
		Name:           "normalize",
		Usage:          "convert static analysis output into graded reports",
		Commands:       commands,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(context.Context, *cli.Command) error {
			*exitCode = report.ExitBadInvocation
			return appErr.Invocation("a tool name is required, one of %v or memcheck", normalizer.Tools())
		},
	}
}
