// Package golden compares test results with reference files stored under
// testdata/golden, and regenerates them when TESTS_UPDATE_GOLDEN is set.
package golden

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/otiai10/copy"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// UpdateGoldenFilesEnv is the environment variable used to indicate go test that
// the golden files should be overwritten with the current test results.
const UpdateGoldenFilesEnv = `TESTS_UPDATE_GOLDEN`

var update = os.Getenv(UpdateGoldenFilesEnv) != ""

var validName = regexp.MustCompile(`^[\w\-.]+$`)

type goldenOptions struct {
	path   string
	suffix string
}

// Option is a supported option reference to change the golden files comparison.
type Option func(*goldenOptions)

// WithPath overrides the default path for golden files used.
func WithPath(path string) Option {
	return func(o *goldenOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// WithSuffix add a suffix to golden files used.
func WithSuffix(suffix string) Option {
	return func(o *goldenOptions) {
		if suffix != "" {
			o.suffix = suffix
		}
	}
}

func parseOptions(t *testing.T, options ...Option) goldenOptions {
	t.Helper()

	opts := goldenOptions{}
	for _, f := range options {
		f(&opts)
	}
	if !filepath.IsAbs(opts.path) {
		opts.path = filepath.Join(Path(t), opts.path)
	}
	opts.path += opts.suffix

	return opts
}

func writeGoldenFile(t *testing.T, path string, data []byte) {
	t.Helper()

	t.Logf("updating golden file %s", path)
	err := os.MkdirAll(filepath.Dir(path), 0750)
	require.NoError(t, err, "Cannot create directory for updating golden files")
	err = os.WriteFile(path, data, 0600)
	require.NoError(t, err, "Cannot write golden file")
}

// CheckOrUpdate compares got with the content of the golden file.
func CheckOrUpdate(t *testing.T, got string, options ...Option) {
	t.Helper()

	opts := parseOptions(t, options...)
	if update {
		writeGoldenFile(t, opts.path, []byte(got))
	}

	want, err := os.ReadFile(opts.path)
	require.NoError(t, err, "Cannot read golden file %s", opts.path)
	requireSameContent(t, string(want), got, opts.path, "")
}

// LoadWithUpdateYAML returns the value stored as YAML in the golden file,
// after rewriting the file from got when updating.
// Comparing values rather than text keeps golden files editable by hand.
func LoadWithUpdateYAML[E any](t *testing.T, got E, options ...Option) E {
	t.Helper()

	opts := parseOptions(t, options...)
	if update {
		data, err := yaml.Marshal(got)
		require.NoError(t, err, "Cannot serialize provided object")
		writeGoldenFile(t, opts.path, data)
	}

	data, err := os.ReadFile(opts.path)
	require.NoError(t, err, "Cannot read golden file %s", opts.path)

	var want E
	err = yaml.Unmarshal(data, &want)
	require.NoError(t, err, "Cannot deserialize golden file %s", opts.path)
	return want
}

// Path returns the golden path for the provided test.
func Path(t *testing.T) string {
	t.Helper()

	for _, part := range strings.Split(t.Name(), "/") {
		require.Regexp(t, validName, part,
			"Invalid golden file name %q. Only alphanumeric characters, underscores, dashes, and dots are allowed", part)
	}

	cwd, err := os.Getwd()
	require.NoError(t, err, "Cannot get current working directory")

	return filepath.Join(cwd, "testdata", "golden", t.Name())
}

func requireSameContent(t *testing.T, want, got, goldenPath, gotPath string) {
	t.Helper()

	if want == got {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "Expected (golden)",
		ToFile:   "Actual",
		Context:  3,
	})
	require.NoError(t, err, "Cannot get unified diff")

	msg := fmt.Sprintf("Golden file: %s", goldenPath)
	if gotPath != "" {
		msg += fmt.Sprintf("\nFile: %s", gotPath)
	}
	require.Failf(t, "Golden file content mismatch", "%s\nDiff:\n%s", msg, diff)
}

// CheckOrUpdateFileTree compares the files under path with the golden
// directory: same names, same permissions and same content.
func CheckOrUpdateFileTree(t *testing.T, path string, options ...Option) {
	t.Helper()

	opts := parseOptions(t, options...)

	if update {
		t.Logf("updating golden path %s", opts.path)
		err := os.RemoveAll(opts.path)
		require.NoError(t, err, "Cannot remove golden path %s", opts.path)
		err = copy.Copy(path, opts.path)
		require.NoError(t, err, "Cannot update golden directory")
	}

	err := filepath.WalkDir(path, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(path, p)
		require.NoError(t, err, "Cannot get relative path for %s", p)
		goldenFilePath := filepath.Join(opts.path, relPath)

		_, err = os.Stat(goldenFilePath)
		if errors.Is(err, fs.ErrNotExist) {
			require.Failf(t, "Unexpected file", "%s has no golden counterpart", p)
		}
		require.NoError(t, err, "Cannot get golden file %s", goldenFilePath)

		got, err := os.ReadFile(p)
		require.NoError(t, err, "Cannot read file %s", p)
		want, err := os.ReadFile(goldenFilePath)
		require.NoError(t, err, "Cannot read golden file %s", goldenFilePath)
		requireSameContent(t, string(want), string(got), goldenFilePath, p)
		return nil
	})
	require.NoError(t, err, "Cannot walk through directory %s", path)

	err = filepath.WalkDir(opts.path, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(opts.path, p)
		require.NoError(t, err, "Cannot get relative path for %s", p)
		_, err = os.Stat(filepath.Join(path, relPath))
		require.NoError(t, err, "Missing expected file %s", relPath)
		return nil
	})
	require.NoError(t, err, "Cannot walk through directory %s", opts.path)
}

// UpdateEnabled returns true if the update flag was set, false otherwise.
func UpdateEnabled() bool {
	return update
}
