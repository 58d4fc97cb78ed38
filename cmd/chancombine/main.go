// Command chancombine packs single-channel images into raw composite frames.
//
// Usage:
//
//	chancombine combine -f NV12 -o frame.nv12 y.png u.png v.png
//	chancombine formats --width 1920 --height 1080
//	chancombine verify --width 640 --height 480
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gogpu/combine"
	_ "github.com/gogpu/combine/gpu" // enable GPU acceleration when available
)

const version = "1.0.0"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "chancombine",
		Usage:   "combine single-channel images into RGB, packed YUV and planar YUV frames",
		Version: version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				EnvVars: []string{"CHANCOMBINE_VERBOSE"},
				Usage:   "log configure/execute diagnostics to stderr",
			},
			&cli.IntFlag{
				Name:    "workers",
				EnvVars: []string{"CHANCOMBINE_WORKERS"},
				Usage:   "CPU worker goroutines (0 = GOMAXPROCS, 1 = no pool)",
			},
			&cli.BoolFlag{
				Name:    "cpu",
				EnvVars: []string{"CHANCOMBINE_CPU"},
				Usage:   "never use the GPU accelerator",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				combine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return nil
		},
		Commands: []*cli.Command{
			combineCommand(),
			formatsCommand(),
			verifyCommand(),
		},
	}
}

// functionOptions maps global flags to ChannelCombine options.
func functionOptions(c *cli.Context) []combine.Option {
	opts := []combine.Option{combine.WithWorkers(c.Int("workers"))}
	if c.Bool("cpu") {
		opts = append(opts, combine.WithoutAccelerator())
	}
	return opts
}
