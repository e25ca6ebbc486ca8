// Package archive describes the initial tree of a ramdisk (the boot archive)
// and unpacks it into a freshly formatted file system.
package archive

import (
	"fmt"
	"io/ioutil"
	"path"

	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/fs"
	"github.com/mit-pdos/go-ramfs/util"
)

// Record is one file of the archive. Type is a file type name ("regular",
// "dir", "char", ...; empty means regular). Directories list Children,
// regular files may carry Data, and device nodes name their Driver and Minor.
type Record struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type,omitempty"`
	Data     string   `yaml:"data,omitempty"`
	Driver   string   `yaml:"driver,omitempty"`
	Minor    uint8    `yaml:"minor,omitempty"`
	Children []Record `yaml:"children,omitempty"`
}

type Manifest struct {
	Records []Record `yaml:"records"`
}

// Default is the tree every kernel boots with.
func Default() *Manifest {
	return &Manifest{Records: []Record{
		{Name: "log", Type: "dir"},
		{Name: "tmp", Type: "dir"},
		{Name: "dev", Type: "dir"},
	}}
}

// Parse decodes a YAML manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

func Load(file string) (*Manifest, error) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func (r *Record) fileType() (common.FileType, error) {
	if r.Type == "" {
		return common.FileTypeRegular, nil
	}
	return common.ParseFileType(r.Type)
}

func (r *Record) validate(dir string) error {
	p := path.Join(dir, r.Name)
	if r.Name == "" || path.Base(p) != r.Name {
		return fmt.Errorf("record `%s` in `%s`: %w", r.Name, dir,
			common.ErrInvalidPath)
	}
	typ, err := r.fileType()
	if err != nil {
		return fmt.Errorf("record `%s`: %w", p, err)
	}
	if len(r.Children) > 0 && typ != common.FileTypeDir {
		return fmt.Errorf("record `%s` has children: %w", p, common.ErrNotDir)
	}
	if r.Data != "" && typ != common.FileTypeRegular {
		return fmt.Errorf("record `%s` of type %v has data: %w", p, typ,
			common.ErrInvalidType)
	}
	if typ.IsDevice() {
		if _, err := fs.ParseDriver(r.Driver); err != nil {
			return fmt.Errorf("record `%s`: %w", p, err)
		}
	} else if r.Driver != "" || r.Minor != 0 {
		return fmt.Errorf("record `%s` of type %v names a device: %w", p, typ,
			common.ErrInvalidType)
	}
	for i := range r.Children {
		if err := r.Children[i].validate(p); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) Validate() error {
	for i := range m.Records {
		if err := m.Records[i].validate("/"); err != nil {
			return err
		}
	}
	return nil
}

func (r *Record) unpack(fsys *fs.FS, dir string) error {
	p := path.Join(dir, r.Name)
	typ, err := r.fileType()
	if err != nil {
		return err
	}
	var major uint8
	if typ.IsDevice() {
		if major, err = fs.ParseDriver(r.Driver); err != nil {
			return err
		}
	}
	if _, err := fsys.Create(typ, p, major, r.Minor); err != nil {
		return err
	}
	if r.Data != "" {
		fd, err := fsys.Open(p)
		if err != nil {
			return err
		}
		_, err = fsys.Write(fd, []byte(r.Data))
		if cerr := fsys.Close(fd); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	util.DPrintf(5, "unpack: %s %v\n", p, typ)
	for i := range r.Children {
		if err := r.Children[i].unpack(fsys, p); err != nil {
			return err
		}
	}
	return nil
}

// Unpack creates every record of m in fsys, parents before children.
func (m *Manifest) Unpack(fsys *fs.FS) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("unpacking archive: %w", err)
	}
	for i := range m.Records {
		if err := m.Records[i].unpack(fsys, "/"); err != nil {
			return fmt.Errorf("unpacking archive: %w", err)
		}
	}
	util.DPrintf(1, "Unpack: %d top-level records\n", len(m.Records))
	return nil
}
