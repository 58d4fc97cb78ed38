package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/combine"
	"github.com/gogpu/combine/reference"
)

func combineCommand() *cli.Command {
	return &cli.Command{
		Name:      "combine",
		Usage:     "combine channel images into one raw frame",
		ArgsUsage: "CHANNEL1 CHANNEL2 CHANNEL3 [CHANNEL4]",
		Description: "Channels are given in format order: R G B [A] or Y U V.\n" +
			"Images are decoded (PNG, JPEG, GIF, BMP, TIFF) and converted to 8-bit gray.\n" +
			"Planes are written tightly packed, one after another.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Required: true, Usage: "target format (RGB888, RGBA8888, YUYV422, UYVY422, YUV444, IYUV, NV12, NV21)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output file"},
			&cli.BoolFlag{Name: "zstd", Usage: "zstd-compress the output"},
			&cli.BoolFlag{Name: "pad", Usage: "round odd dimensions up for subsampled formats, replicating the last row/column"},
		},
		Action: func(c *cli.Context) error {
			format, err := combine.ParseFormat(c.String("format"))
			if err != nil {
				return cli.Exit(err, 2)
			}
			if c.NArg() != format.Channels() {
				return cli.Exit(fmt.Sprintf("%v needs %d channel images, got %d", format, format.Channels(), c.NArg()), 2)
			}

			sources := make([]*combine.Plane, c.NArg())
			for i, path := range c.Args().Slice() {
				if sources[i], err = loadChannel(path); err != nil {
					return cli.Exit(err, 1)
				}
			}
			if c.Bool("pad") {
				if sources, err = padSources(sources, format); err != nil {
					return cli.Exit(err, 1)
				}
			}

			shape := combine.Shape{Width: sources[0].Width, Height: sources[0].Height}
			dst, err := combine.NewMultiImage(shape, format)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := combine.Combine(sources, format, dst, functionOptions(c)...); err != nil {
				return cli.Exit(err, 1)
			}

			n, err := writeFrame(c.String("output"), dst, c.Bool("zstd"))
			if err != nil {
				return cli.Exit(err, 1)
			}
			p := message.NewPrinter(language.English)
			p.Fprintf(os.Stdout, "%s: %v %v, %d planes, %d bytes written\n",
				c.String("output"), format, shape, dst.PlaneCount(), n)
			return nil
		},
	}
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "list supported formats and their plane geometry",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: 1920, Usage: "image width"},
			&cli.IntFlag{Name: "height", Value: 1080, Usage: "image height"},
		},
		Action: func(c *cli.Context) error {
			p := message.NewPrinter(language.English)
			shape := combine.Shape{Width: c.Int("width"), Height: c.Int("height")}
			for _, f := range combine.Formats() {
				fi := f.Info()
				p.Printf("%-9s %-11s inputs %v, subsample %dx%d\n",
					f, fi.Layout, fi.Channels, fi.SubsampleX, fi.SubsampleY)
				geoms, err := combine.Plan(shape, f)
				if err != nil {
					p.Printf("          %v: %v\n", shape, err)
					continue
				}
				total := 0
				for i, g := range geoms {
					p.Printf("          plane %d: %dx%d x%d B, stride %d, %d bytes\n",
						i, g.Width, g.Height, g.ElementSize, g.MinStride, g.Size)
					total += g.Size
				}
				p.Printf("          total %d bytes for %v\n", total, shape)
			}
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "compare the combine kernel against the reference model on random data",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "format", Aliases: []string{"f"}, Usage: "formats to check (default: all)"},
			&cli.IntFlag{Name: "width", Value: 640, Usage: "image width"},
			&cli.IntFlag{Name: "height", Value: 480, Usage: "image height"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "random seed"},
		},
		Action: func(c *cli.Context) error {
			formats := combine.Formats()
			if names := c.StringSlice("format"); len(names) > 0 {
				formats = formats[:0]
				for _, name := range names {
					f, err := combine.ParseFormat(name)
					if err != nil {
						return cli.Exit(err, 2)
					}
					formats = append(formats, f)
				}
			}

			rng := rand.New(rand.NewPCG(c.Uint64("seed"), 0))
			failed := 0
			for _, f := range formats {
				shape := combine.AdjustShape(combine.Shape{Width: c.Int("width"), Height: c.Int("height")}, f)
				if err := verifyFormat(rng, shape, f, functionOptions(c)); err != nil {
					fmt.Printf("%-9s %v FAIL: %v\n", f, shape, err)
					failed++
					continue
				}
				fmt.Printf("%-9s %v ok\n", f, shape)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d format(s) differ from the reference", failed), 1)
			}
			return nil
		},
	}
}

func verifyFormat(rng *rand.Rand, shape combine.Shape, f combine.Format, opts []combine.Option) error {
	sources, err := combine.NewSources(shape, f)
	if err != nil {
		return err
	}
	for _, src := range sources {
		for i := range src.Data {
			src.Data[i] = byte(rng.UintN(256))
		}
	}

	got, err := combine.NewMultiImageWithStride(shape, f, 64)
	if err != nil {
		return err
	}
	want, err := combine.NewMultiImage(shape, f)
	if err != nil {
		return err
	}
	if err := combine.Combine(sources, f, got, opts...); err != nil {
		return err
	}
	if err := reference.Combine(sources, f, want); err != nil {
		return err
	}
	if ok, plane, row, col := reference.Equal(got, want); !ok {
		return fmt.Errorf("plane %d differs at row %d byte %d", plane, row, col)
	}
	return nil
}
