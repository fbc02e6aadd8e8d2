// resumectl inspects and maintains the checkpoint offsets kept in a topic.
package main

import (
	"errors"
	"io"
	"os"

	"github.com/kgibm/resume"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout, &console{}).Run(os.Args); err != nil {
		log.Errorf("%v", err)

		code := 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

func newApp(w io.Writer, this *console) *cli.App {
	return &cli.App{
		Name:    "resumectl",
		Usage:   "Checkpoint offsets console",
		Version: resume.Version + "-" + resume.Revision,
		Writer:  w,

		// main decides the exit code
		ExitErrHandler: func(*cli.Context, error) {},

		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file"},
			&cli.StringFlag{Name: "store", Usage: "kafka://host:9092/topic, mem://topic or discard://"},
			&cli.StringSliceFlag{Name: "brokers", Usage: "kafka brokers"},
			&cli.StringFlag{Name: "topic", Usage: "offsets topic"},
			&cli.StringSliceFlag{Name: "prop", Usage: "kafka property key=value"},
			&cli.StringFlag{Name: "codec", Usage: "offset codec: string, int64"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn, error"},
			&cli.StringFlag{Name: "log-file", Usage: "rotated log file, default stderr"},
			&cli.BoolFlag{Name: "dry-run", Usage: "use an in-memory log"},
		},
		Before: func(c *cli.Context) error {
			cf, err := loadConfig(c)
			if err != nil {
				return err
			}
			this.cf = cf
			return setupLogging(cf)
		},
		Commands: this.commands(),
	}
}
