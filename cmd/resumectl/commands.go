package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/kgibm/resume"
	"github.com/kgibm/resume/pkg/api"
	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func (this *console) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "dump",
			Usage:  "Load the topic and print all the offsets",
			Action: this.dump,
		},
		{
			Name:      "get",
			Usage:     "Print the offset of a key",
			ArgsUsage: "KEY",
			Action:    this.get,
		},
		{
			Name:      "set",
			Usage:     "Publish the offset of a key",
			ArgsUsage: "KEY OFFSET",
			Action:    this.set,
		},
		{
			Name:   "watch",
			Usage:  "Print the offsets as they change until interrupted",
			Action: this.watch,
			Flags: []cli.Flag{
				&cli.DurationFlag{Name: "interval", Value: time.Second},
			},
		},
		{
			Name:   "serve",
			Usage:  "Serve the HTTP API until interrupted",
			Action: this.serve,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "addr", Usage: "listen address"},
				&cli.IntFlag{Name: "workers", Usage: "executor pool size"},
			},
		},
		{
			Name:   "version",
			Usage:  "Print the version",
			Action: this.version,
		},
	}
}

func (this *console) dump(c *cli.Context) error {
	s, err := this.openSingle(c.Context)
	if err != nil {
		return err
	}
	defer s.Stop()

	offsets := make(map[string]string)
	s.ForEach(func(key, value string) bool {
		offsets[key] = value
		return true
	})

	printOffsets(c.App.Writer, offsets)
	return nil
}

func (this *console) get(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: get KEY", 2)
	}

	s, err := this.openSingle(c.Context)
	if err != nil {
		return err
	}
	defer s.Stop()

	key := c.Args().First()
	offset, ok := s.LastOffset(key)
	if !ok {
		return cli.Exit(fmt.Sprintf("no offset of %s", key), 1)
	}

	fmt.Fprintln(c.App.Writer, offset)
	return nil
}

func (this *console) set(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: set KEY OFFSET", 2)
	}

	s, err := this.openSingle(c.Context)
	if err != nil {
		return err
	}
	defer s.Stop()

	key, offset := c.Args().Get(0), c.Args().Get(1)
	p := checkpoint.NewPositionAt(key, offset)
	if err = s.UpdateLastOffset(c.Context, p); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "%s\n", p)
	return nil
}

func (this *console) watch(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := this.openMulti(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Stop()

	interval := this.cf.Interval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := make(map[string]string)
	for {
		s.ForEach(func(key, value string) bool {
			if old, present := last[key]; !present || old != value {
				fmt.Fprintf(c.App.Writer, "%s %s -> %s\n", time.Now().Format("15:04:05"), key, value)
				last[key] = value
			}
			return true
		})

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (this *console) serve(c *cli.Context) error {
	addr, workers := this.cf.Addr, this.cf.Workers
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// one worker per refresher for life, fail fast when exhausted
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return err
	}
	defer pool.Release()

	s, err := this.openMulti(ctx, pool)
	if err != nil {
		return err
	}
	defer s.Stop()

	server := api.New(s, this.cf.Topic)
	if err = server.Start(addr); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "serving on http://%s\n", server.Addr())

	<-ctx.Done()
	log.Infof("[%s] shutting down", this.cf.Topic)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func (this *console) version(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "%s %s (build: %s@%s by %s at %s)\n", c.App.Name,
		resume.Version, resume.Revision, resume.Branch, resume.BuildUser, resume.BuildDate)
	fmt.Fprintf(c.App.Writer, "Built with %s %s for %s/%s\n",
		runtime.Compiler, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

func printOffsets(w io.Writer, offsets map[string]string) {
	keys := make([]string, 0, len(offsets))
	for k := range offsets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Key\tOffset")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, offsets[k])
	}
	tw.Flush()
}
