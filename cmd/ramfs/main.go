// Command ramfs builds and inspects ramdisk images for the kernel's boot
// archive. Layout parameters come from RAMFS_* environment variables.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	imageFlag := &cli.StringFlag{
		Name:     "image",
		Aliases:  []string{"i"},
		Usage:    "path of the image file",
		EnvVars:  []string{"RAMFS_IMAGE"},
		Required: true,
	}
	return &cli.App{
		Name:  "ramfs",
		Usage: "build and inspect ramdisk file system images",
		Flags: []cli.Flag{
			imageFlag,
			&cli.Uint64Flag{
				Name:  "debug",
				Usage: "debug log level (overrides RAMFS_DEBUG)",
			},
		},
		Commands: []*cli.Command{{
			Name:  "mkimage",
			Usage: "format a new image and unpack the boot archive into it",
			Flags: []cli.Flag{&cli.StringFlag{
				Name:    "manifest",
				Aliases: []string{"m"},
				Usage:   "YAML boot archive manifest (default: /log, /tmp, /dev)",
			}},
			Action: mkimage,
		}, {
			Name:      "ls",
			Usage:     "list a directory",
			ArgsUsage: "[PATH]",
			Action:    withImage(false, ls),
		}, {
			Name:      "cat",
			Usage:     "print a file",
			ArgsUsage: "PATH",
			Action:    withImage(false, cat),
		}, {
			Name:      "stat",
			Usage:     "describe a file",
			ArgsUsage: "PATH",
			Action:    withImage(false, stat),
		}, {
			Name:      "put",
			Aliases:   []string{"cp"},
			Usage:     "copy a host file into the image, replacing any old copy",
			ArgsUsage: "SRC DST",
			Action:    withImage(true, put),
		}, {
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "PATH",
			Action:    withImage(true, mkdir),
		}, {
			Name:      "mknod",
			Usage:     "create a device node",
			ArgsUsage: "PATH",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Value: "char",
					Usage: "device file type (char, block, net, timer, gpio, adc, pwm)"},
				&cli.StringFlag{Name: "driver", Required: true,
					Usage: "driver name (uart, spi, i2c, ...)"},
				&cli.UintFlag{Name: "minor", Usage: "device number"},
			},
			Action: withImage(true, mknod),
		}, {
			Name:      "rm",
			Aliases:   []string{"delete"},
			Usage:     "delete a file or an empty directory",
			ArgsUsage: "PATH",
			Action:    withImage(true, rm),
		}},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
