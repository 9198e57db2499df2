package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/PieterD/wol"
)

// errUsage is returned after the usage text has been printed.
var errUsage = errors.New("usage")

func init() {
	// -h is a plain flag handled by send; the library's help flag would read
	// a following destination as a help topic.
	cli.HelpFlag = nil
}

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr, &wol.Sender{}))
}

// run executes the command line in args and returns the process exit code.
// Usage and help go to stderr; only the success report goes to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, sender *wol.Sender) int {
	app := newApp(func(ctx context.Context, cmd *cli.Command) error {
		return send(ctx, cmd, stdout, sender)
	})
	app.Writer = stderr
	app.ErrWriter = stderr
	if err := app.Run(ctx, args); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func newApp(action cli.ActionFunc) *cli.Command {
	return &cli.Command{
		Name:                   "wol",
		Usage:                  "send a Wake-on-LAN magic packet",
		UsageText:              "wol [-h] [-q] [-v] [-c <config>] [-b <bcast>] [-p <port>] <dest>",
		HideHelp:               true,
		HideHelpCommand:        true,
		HideVersion:            true,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "show usage",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "do not report a sent packet",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug messages to stderr",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load defaults and hosts from `FILE`",
				Sources: cli.EnvVars("WOL_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "broadcast",
				Aliases: []string{"b"},
				Usage:   "broadcast `ADDRESS` to send to",
				Value:   "255.255.255.255",
			},
			&cli.StringFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "UDP `PORT` to send to",
				Value:   "60000",
			},
		},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return err
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action:         action,
	}
}

func send(ctx context.Context, cmd *cli.Command, stdout io.Writer, sender *wol.Sender) error {
	setupLogging(cmd.Root().ErrWriter, cmd.Bool("verbose"))

	// -h wins over any destination given alongside it
	if cmd.Bool("help") || cmd.Args().Len() != 1 {
		printUsage(cmd)
		return errUsage
	}

	path, explicit := cmd.String("config"), cmd.IsSet("config")
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}

	t := cfg.resolve(cmd.Args().First())
	if cmd.IsSet("broadcast") {
		t.broadcast = cmd.String("broadcast")
	}
	if cmd.IsSet("port") {
		t.port = cmd.String("port")
	}

	bcast, err := wol.ParseBroadcast(t.broadcast)
	if err != nil {
		return err
	}
	port, err := wol.ParsePort(t.port)
	if err != nil {
		return err
	}
	dst := wol.Destination{Broadcast: bcast, Port: port, Quiet: cmd.Bool("quiet")}

	logrus.WithFields(logrus.Fields{
		"dest":   t.hwStr,
		"dst":    dst,
		"config": path,
	}).Debug("Resolved target")

	if err := sender.Wake(ctx, t.hwStr, dst); err != nil {
		return err
	}
	if !dst.Quiet {
		fmt.Fprintf(stdout, "Packet sent to %s-%s on port %d\n", dst.Hex(), t.hwStr, dst.Port)
	}
	return nil
}

func printUsage(cmd *cli.Command) {
	w := cmd.Root().ErrWriter
	fmt.Fprintf(w, "Usage: %s\n", cmd.UsageText)
	for _, f := range cmd.VisibleFlags() {
		fmt.Fprintf(w, "   %s\n", f)
	}
}

func setupLogging(w io.Writer, verbose bool) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}
