package shadow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/fileutils"
	userslocking "github.com/ubuntu/gopasswd/internal/users/locking"
	"github.com/ubuntu/gopasswd/log"
)

// defaultMode is used when there is no shadow file to copy the mode from.
const defaultMode fs.FileMode = 0o600

// BackupPath returns the path of the copy made of the shadow file before
// replacing it.
func BackupPath(path string) string {
	return path + "-"
}

func temporaryPath(path string) string {
	return path + "+"
}

// Save replaces the shadow file at path with the store content. The new
// file is written aside with the mode and owner of the current one, then
// renamed over it. The previous file is kept at [BackupPath].
func (s *Store) Save(path string) (err error) {
	defer decorate.OnError(&err, "could not save shadow file %q", path)

	current, err := os.Stat(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	tempPath := temporaryPath(path)
	if err := s.writeFile(tempPath, current); err != nil {
		_ = os.Remove(tempPath)
		return err
	}

	if current != nil {
		backupPath := BackupPath(path)
		if err := os.Remove(backupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warningf(context.Background(), "Failed to remove shadow file backup: %v", err)
		}
		log.Debugf(context.Background(), "Backing up %q to %q", path, backupPath)
		if err := fileutils.CopyFile(path, backupPath); err != nil {
			log.Warningf(context.Background(), "Failed to make a backup of the shadow file: %v", err)
		}
	}

	if err := fileutils.Lrename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("error renaming %s to %s: %w", tempPath, path, err)
	}
	if err := fileutils.SyncDir(filepath.Dir(path)); err != nil {
		log.Warningf(context.Background(), "Failed to sync %q: %v", filepath.Dir(path), err)
	}

	s.modified = false
	return nil
}

// writeFile writes the store to path, giving it the mode and owner of ref
// if any.
func (s *Store) writeFile(path string, ref fs.FileInfo) error {
	mode := defaultMode
	if ref != nil {
		mode = ref.Mode().Perm()
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Chmod(mode); err != nil {
		return err
	}
	if ref != nil {
		if err := fileutils.ChownLike(f, ref); err != nil {
			return err
		}
	}

	w := bufio.NewWriter(f)
	if _, err := s.WriteTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// Modify loads the shadow file at path while holding the system account
// database lock, calls fn and saves the store if fn changed it.
func Modify(path string, fn func(*Store) error) (err error) {
	defer decorate.OnError(&err, "could not update shadow file %q", path)

	return userslocking.WithLock(func() error {
		s, err := Load(path)
		if err != nil {
			return err
		}

		if err := fn(s); err != nil {
			return err
		}

		if !s.Modified() {
			log.Debugf(context.Background(), "Shadow file %q unchanged", path)
			return nil
		}
		return s.Save(path)
	})
}
