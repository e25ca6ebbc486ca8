package fs

import (
	"fmt"
	"path"
	"strings"

	"github.com/mit-pdos/go-ramfs/common"
	"github.com/mit-pdos/go-ramfs/dir"
)

// Session is the file system as seen by one task: paths that do not start
// with "/" are taken relative to the task's working directory. Descriptor
// operations go straight to the embedded FS.
type Session struct {
	*FS
	cwd string
}

func (fsys *FS) NewSession() *Session {
	return &Session{FS: fsys, cwd: "/"}
}

func (s *Session) Cwd() string {
	return s.cwd
}

// Abs turns p into an absolute path by prefixing the working directory.
func (s *Session) Abs(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return strings.TrimSuffix(s.cwd, "/") + "/" + p
}

func (s *Session) Chdir(p string) error {
	abs := s.Abs(p)
	st, err := s.FS.Stat(abs)
	if err != nil {
		return fmt.Errorf("chdir: %w", err)
	}
	if st.Type != common.FileTypeDir {
		return fmt.Errorf("chdir `%s`: %w", p, common.ErrNotDir)
	}
	// every component of abs was looked up, so folding ".." textually
	// names the same directory
	s.cwd = path.Clean(abs)
	return nil
}

func (s *Session) Open(p string) (Fd, error) {
	return s.FS.Open(s.Abs(p))
}

func (s *Session) Create(typ common.FileType, p string, major uint8,
	minor uint8) (common.Inum, error) {
	return s.FS.Create(typ, s.Abs(p), major, minor)
}

func (s *Session) Mkfile(p string) (common.Inum, error) {
	return s.FS.Mkfile(s.Abs(p))
}

func (s *Session) Mkdir(p string) (common.Inum, error) {
	return s.FS.Mkdir(s.Abs(p))
}

func (s *Session) Mknod(p string, typ common.FileType, major uint8,
	minor uint8) (common.Inum, error) {
	return s.FS.Mknod(s.Abs(p), typ, major, minor)
}

func (s *Session) Delete(p string) error {
	return s.FS.Delete(s.Abs(p))
}

func (s *Session) Stat(p string) (Stat, error) {
	return s.FS.Stat(s.Abs(p))
}

func (s *Session) ReadDir(p string) ([]dir.Entry, error) {
	return s.FS.ReadDir(s.Abs(p))
}
