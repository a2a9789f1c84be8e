package log_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/gopasswd/log"
	"golang.org/x/sys/unix"
)

func TestLevels(t *testing.T) {
	restoreLogging(t)

	old := log.SetLevel(log.InfoLevel)
	require.Equal(t, log.InfoLevel, log.GetLevel(), "Level should be changed")
	require.Equal(t, old, log.SetLevel(log.DebugLevel), "Previous level should be returned")

	require.True(t, log.IsLevelEnabled(log.DebugLevel), "Debug should be enabled at debug level")
	log.SetLevel(log.WarnLevel)
	require.False(t, log.IsLevelEnabled(log.NoticeLevel), "Notice should be disabled at warning level")
	require.True(t, log.IsLevelEnabled(log.ErrorLevel), "Error should be enabled at warning level")

	require.Greater(t, log.NoticeLevel, log.InfoLevel, "Notice should be above info")
	require.Less(t, log.NoticeLevel, log.WarnLevel, "Notice should be below warning")
}

func TestOutput(t *testing.T) {
	tests := map[string]struct {
		level log.Level
		logf  func(ctx context.Context, format string, args ...interface{})

		wantOutput string
	}{
		"Print_info_at_info_level":       {level: log.InfoLevel, logf: log.Infof, wantOutput: "INFO message 42\n"},
		"Print_notice_as_warning":        {level: log.NoticeLevel, logf: log.Noticef, wantOutput: "WARN message 42\n"},
		"Print_error_at_warning_level":   {level: log.WarnLevel, logf: log.Errorf, wantOutput: "ERROR message 42\n"},
		"Do_not_print_debug_at_info":     {level: log.InfoLevel, logf: log.Debugf},
		"Do_not_print_notice_at_warning": {level: log.WarnLevel, logf: log.Noticef},
		"Do_not_print_warning_at_error":  {level: log.ErrorLevel, logf: log.Warningf},
		"Print_debug_at_debug_level":     {level: log.DebugLevel, logf: log.Debugf, wantOutput: "DEBUG message 42\n"},
		"Print_warning_at_warning_level": {level: log.WarnLevel, logf: log.Warningf, wantOutput: "WARN message 42\n"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			restoreLogging(t)

			var out bytes.Buffer
			log.SetOutput(&out)
			log.SetLevel(tc.level)

			tc.logf(context.Background(), "message %d", 42)

			if tc.wantOutput == "" {
				require.Empty(t, out.String(), "Nothing should be printed")
				return
			}
			// Strip the time.
			got := out.String()
			require.Greater(t, len(got), len("15:04:05 "), "Output should start with the time")
			_, err := time.Parse("15:04:05", got[:len("15:04:05")])
			require.NoError(t, err, "Output should start with the time")
			require.Equal(t, tc.wantOutput, got[len("15:04:05 "):], "Unexpected output")
		})
	}
}

func TestSetHandler(t *testing.T) {
	restoreLogging(t)

	var out bytes.Buffer
	log.SetOutput(&out)
	log.SetLevel(log.InfoLevel)

	var got []string
	log.SetHandler(func(_ context.Context, l log.Level, format string, args ...interface{}) {
		got = append(got, fmt.Sprintf("%s: %s", l, fmt.Sprintf(format, args...)))
	})

	log.Info(context.Background(), "plain", " message")
	log.Noticef(context.Background(), "password for '%s' changed by '%s'", "alice", "root")
	log.Debug(context.Background(), "filtered by level")

	require.Equal(t, []string{
		"INFO: plain message",
		fmt.Sprintf("%s: password for 'alice' changed by 'root'", log.NoticeLevel),
	}, got, "Handler should receive the enabled messages")
	require.Empty(t, out.String(), "Default output should not be used with a custom handler")

	log.SetHandler(nil)
	log.Warning(context.Background(), "back to default")
	require.Contains(t, out.String(), "WARN back to default", "Default handlers should be restored")
	require.Len(t, got, 2, "Custom handler should not be called anymore")
}

func TestSimpleHandler(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := log.NewSimpleHandler(&out, slog.LevelWarn)

	require.False(t, h.Enabled(context.Background(), slog.LevelInfo), "Info should be disabled")
	require.True(t, h.Enabled(context.Background(), slog.LevelError), "Error should be enabled")
	require.Same(t, h, h.WithAttrs([]slog.Attr{slog.String("key", "value")}), "Attributes are ignored")
	require.Same(t, h, h.WithGroup("group"), "Groups are ignored")

	r := slog.NewRecord(time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC), slog.LevelError, "something failed", 0)
	err := h.Handle(context.Background(), r)
	require.NoError(t, err, "Handle should not fail")
	require.Equal(t, "13:04:05 ERROR something failed\n", out.String(), "Unexpected record format")
}

func TestJournalPriority(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level log.Level

		want journal.Priority
	}{
		"Debug":                   {level: log.DebugLevel, want: journal.PriDebug},
		"Info":                    {level: log.InfoLevel, want: journal.PriInfo},
		"Notice":                  {level: log.NoticeLevel, want: journal.PriNotice},
		"Warning":                 {level: log.WarnLevel, want: journal.PriWarning},
		"Error":                   {level: log.ErrorLevel, want: journal.PriErr},
		"Above_error_is_critical": {level: log.ErrorLevel + 4, want: journal.PriCrit},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, log.JournalPriority(tc.level), "Unexpected journal priority")
		})
	}
}

// restoreLogging resets the global logging state once the test is done.
func restoreLogging(t *testing.T) {
	t.Helper()

	level := log.GetLevel()
	t.Cleanup(func() {
		log.SetHandler(nil)
		log.SetOutput(os.Stderr)
		log.SetLevel(level)
	})
}

func TestInitJournalHandlerWithoutJournalStream(t *testing.T) {
	restoreLogging(t)
	t.Setenv("JOURNAL_STREAM", "0:0")

	var out bytes.Buffer
	log.SetOutput(&out)
	log.SetLevel(log.InfoLevel)

	require.False(t, log.InitJournalHandler(false, ""), "Journal should not be used without a journal stream")

	log.Info(context.Background(), "still on stderr")
	require.Contains(t, out.String(), "still on stderr", "Logs should still go to the default output")
	require.Equal(t, log.InfoLevel, log.GetLevel(), "Level should not be changed")
}

func TestStderrIsJournalStream(t *testing.T) {
	var st unix.Stat_t
	err := unix.Fstat(int(os.Stderr.Fd()), &st)
	require.NoError(t, err, "Setup: could not stat stderr")
	// The process environment must not be looked at.
	t.Setenv("JOURNAL_STREAM", fmt.Sprintf("%d:%d", st.Dev, st.Ino))

	tests := map[string]struct {
		journalStream string

		want    bool
		wantErr bool
	}{
		"Stderr_is_the_journal_stream":     {journalStream: fmt.Sprintf("%d:%d", st.Dev, st.Ino), want: true},
		"Stderr_is_another_stream":         {journalStream: fmt.Sprintf("%d:%d", st.Dev, st.Ino+1)},
		"Empty_journal_stream_is_no_match": {journalStream: ""},

		"Error_on_malformed_journal_stream": {journalStream: "not-a-stream", wantErr: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := log.StderrIsJournalStream(tc.journalStream)
			if tc.wantErr {
				require.Error(t, err, "StderrIsJournalStream should fail")
				return
			}
			require.NoError(t, err, "StderrIsJournalStream should not fail")
			require.Equal(t, tc.want, got, "Unexpected journal stream match")
		})
	}
}
