package main

import (
	"fmt"
	"io/ioutil"

	gdisk "github.com/tchajed/goose/machine/disk"
	"github.com/urfave/cli/v2"

	"github.com/mit-pdos/go-ramfs/archive"
	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/fs"
	"github.com/mit-pdos/go-ramfs/image"
	"github.com/mit-pdos/go-ramfs/util"
)

func loadConfig(ctx *cli.Context) (common.Config, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return common.Config{}, err
	}
	if ctx.IsSet("debug") {
		cfg.Debug = ctx.Uint64("debug")
	}
	util.Debug = cfg.Debug
	return cfg, nil
}

func mkimage(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	m := archive.Default()
	if file := ctx.String("manifest"); file != "" {
		if m, err = archive.Load(file); err != nil {
			return err
		}
	}
	fsys, err := fs.Init(cfg, m)
	if err != nil {
		return err
	}
	dev, err := gdisk.NewFileDisk(ctx.String("image"),
		image.NumBlocks(cfg.DiskSize))
	if err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	defer dev.Close()
	return image.Save(fsys.Disk(), dev)
}

// withImage mounts the image around action and, if the action modifies the
// file system, writes the result back.
func withImage(modifies bool,
	action func(*fs.Session, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		dev, err := gdisk.NewFileDisk(ctx.String("image"),
			image.NumBlocks(cfg.DiskSize))
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer dev.Close()
		rd, err := image.Load(dev)
		if err != nil {
			return err
		}
		fsys, err := fs.Mount(rd, cfg)
		if err != nil {
			return err
		}
		if err := action(fsys.NewSession(), ctx); err != nil {
			return err
		}
		if modifies {
			return image.Save(fsys.Disk(), dev)
		}
		return nil
	}
}

func arg(ctx *cli.Context, i int, name string) (string, error) {
	if ctx.NArg() <= i {
		return "", fmt.Errorf("%s: missing %s argument", ctx.Command.Name,
			name)
	}
	return ctx.Args().Get(i), nil
}

func ls(s *fs.Session, ctx *cli.Context) error {
	p := "/"
	if ctx.NArg() > 0 {
		p = ctx.Args().First()
	}
	ents, err := s.ReadDir(p)
	if err != nil {
		return err
	}
	for _, e := range ents {
		st, err := s.Stat(s.Abs(p) + "/" + e.Name)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%3d %-7v %8d %s\n", e.Inum, st.Type,
			st.Size, e.Name)
	}
	return nil
}

func cat(s *fs.Session, ctx *cli.Context) error {
	p, err := arg(ctx, 0, "PATH")
	if err != nil {
		return err
	}
	st, err := s.Stat(p)
	if err != nil {
		return err
	}
	fd, err := s.Open(p)
	if err != nil {
		return err
	}
	defer s.Close(fd)
	data := make([]byte, st.Size)
	if _, err := s.Read(fd, data); err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(data)
	return err
}

func stat(s *fs.Session, ctx *cli.Context) error {
	p, err := arg(ctx, 0, "PATH")
	if err != nil {
		return err
	}
	st, err := s.Stat(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "inode %d\ntype %v\nsize %d\nblocks %d\n",
		st.Inum, st.Type, st.Size, st.Blocks)
	if st.Type.IsDevice() {
		fmt.Fprintf(ctx.App.Writer, "device %s\n",
			fs.DeviceName(st.Major, st.Minor))
	}
	return nil
}

func put(s *fs.Session, ctx *cli.Context) error {
	src, err := arg(ctx, 0, "SRC")
	if err != nil {
		return err
	}
	dst, err := arg(ctx, 1, "DST")
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(src)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}
	if _, err := s.Stat(dst); err == nil {
		if err := s.Delete(dst); err != nil {
			return err
		}
	}
	if _, err := s.Mkfile(dst); err != nil {
		return err
	}
	fd, err := s.Open(dst)
	if err != nil {
		return err
	}
	defer s.Close(fd)
	_, err = s.Write(fd, data)
	return err
}

func mkdir(s *fs.Session, ctx *cli.Context) error {
	p, err := arg(ctx, 0, "PATH")
	if err != nil {
		return err
	}
	_, err = s.Mkdir(p)
	return err
}

func mknod(s *fs.Session, ctx *cli.Context) error {
	p, err := arg(ctx, 0, "PATH")
	if err != nil {
		return err
	}
	typ, err := common.ParseFileType(ctx.String("type"))
	if err != nil {
		return err
	}
	major, err := fs.ParseDriver(ctx.String("driver"))
	if err != nil {
		return err
	}
	minor := ctx.Uint("minor")
	if minor > uint(common.MINORMASK) {
		return fmt.Errorf("mknod: minor `%d`: %w", minor,
			common.ErrInvalidDevice)
	}
	_, err = s.Mknod(p, typ, major, uint8(minor))
	return err
}

func rm(s *fs.Session, ctx *cli.Context) error {
	p, err := arg(ctx, 0, "PATH")
	if err != nil {
		return err
	}
	return s.Delete(p)
}
