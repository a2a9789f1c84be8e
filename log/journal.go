package log

import (
	"context"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"golang.org/x/sys/unix"
)

// InitJournalHandler sends all logs to the systemd journal when stderr is
// the stream described by journalStream, the value of JOURNAL_STREAM, or
// unconditionally if force is true. Notices are always sent to the journal,
// whatever the level.
// The process environment is never read here: callers pass the value from
// their sanitized environment.
// It returns true if the journal handler was installed.
func InitJournalHandler(force bool, journalStream string) bool {
	if !force {
		isJournalStream, err := stderrIsJournalStream(journalStream)
		if err != nil {
			Warningf(context.Background(), "Could not check if stderr is connected to the journal: %v", err)
			return false
		}
		if !isJournalStream {
			return false
		}
	}

	if !journal.Enabled() {
		Debug(context.Background(), "Journal is not available, keeping logs on stderr")
		return false
	}

	SetHandler(func(_ context.Context, level Level, format string, args ...interface{}) {
		_ = journal.Print(journalPriority(level), format, args...)
	})
	if GetLevel() > NoticeLevel {
		SetLevel(NoticeLevel)
	}
	return true
}

func journalPriority(level Level) journal.Priority {
	switch {
	case level <= DebugLevel:
		return journal.PriDebug
	case level <= InfoLevel:
		return journal.PriInfo
	case level <= NoticeLevel:
		return journal.PriNotice
	case level <= WarnLevel:
		return journal.PriWarning
	case level <= ErrorLevel:
		return journal.PriErr
	}
	return journal.PriCrit
}

// stderrIsJournalStream reports whether stderr is the "device:inode" pair of
// journalStream.
func stderrIsJournalStream(journalStream string) (bool, error) {
	if journalStream == "" {
		return false, nil
	}

	var dev, ino uint64
	if _, err := fmt.Sscanf(journalStream, "%d:%d", &dev, &ino); err != nil {
		return false, fmt.Errorf("invalid JOURNAL_STREAM %q: %w", journalStream, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(os.Stderr.Fd()), &st); err != nil {
		return false, fmt.Errorf("could not stat stderr: %w", err)
	}
	return uint64(st.Dev) == dev && st.Ino == ino, nil
}
