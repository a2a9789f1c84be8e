package app

import (
	"fmt"
	"strconv"

	"github.com/ubuntu/gopasswd/internal/users/localentries"
)

// cmdFlags are the raw values of the command line options.
type cmdFlags struct {
	all        bool
	delete     bool
	expire     bool
	keepTokens bool
	lock       bool
	quiet      bool
	status     bool
	unlock     bool

	inactive   string
	minDays    string
	warnDays   string
	maxDays    string
	repository string
	root       string
}

// request is a validated passwd invocation.
type request struct {
	login string
	// root is only meaningful when rootSet is true: an empty root is an
	// invalid request, not a missing one.
	root    string
	rootSet bool

	all        bool
	status     bool
	keepTokens bool
	quiet      bool

	delete bool
	expire bool
	lock   bool
	unlock bool

	// Aging values, nil when not requested.
	minDays  *int64
	maxDays  *int64
	warnDays *int64
	inactive *int64
}

// mutates returns true if the request changes the shadow entry without
// asking for a new password.
func (r request) mutates() bool {
	return r.delete || r.expire || r.lock || r.unlock ||
		r.minDays != nil || r.maxDays != nil || r.warnDays != nil || r.inactive != nil
}

func (a *App) installFlags() {
	f := a.rootCmd.Flags()

	f.BoolVarP(&a.flags.all, "all", "a", false, "report password status on all accounts")
	f.BoolVarP(&a.flags.delete, "delete", "d", false, "delete the password for the named account")
	f.BoolVarP(&a.flags.expire, "expire", "e", false, "force expire the password for the named account")
	f.BoolVarP(&a.flags.keepTokens, "keep-tokens", "k", false, "change password only if expired")
	f.StringVarP(&a.flags.inactive, "inactive", "i", "", "set password inactive after expiration to INACTIVE")
	f.BoolVarP(&a.flags.lock, "lock", "l", false, "lock the password of the named account")
	f.StringVarP(&a.flags.minDays, "mindays", "n", "", "set minimum number of days before password change to MIN_DAYS")
	f.BoolVarP(&a.flags.quiet, "quiet", "q", false, "quiet mode")
	f.StringVarP(&a.flags.repository, "repository", "r", "", "change password in REPOSITORY repository")
	f.StringVarP(&a.flags.root, "root", "R", "", "directory to chroot into")
	f.BoolVarP(&a.flags.status, "status", "S", false, "report password status on the named account")
	f.BoolVarP(&a.flags.unlock, "unlock", "u", false, "unlock the password of the named account")
	f.StringVarP(&a.flags.warnDays, "warndays", "w", "", "set expiration warning days to WARN_DAYS")
	f.StringVarP(&a.flags.maxDays, "maxdays", "x", "", "set maximum number of days before password change to MAX_DAYS")
}

// request validates the options and arguments.
func (a *App) request(args []string) (request, error) {
	return a.flags.request(a.rootCmd.Flags().Changed, args)
}

func (f cmdFlags) request(changed func(string) bool, args []string) (req request, err error) {
	req = request{
		root:       f.root,
		rootSet:    changed("root"),
		all:        f.all,
		status:     f.status,
		keepTokens: f.keepTokens,
		quiet:      f.quiet,
		delete:     f.delete,
		expire:     f.expire,
		lock:       f.lock,
		unlock:     f.unlock,
	}

	for _, d := range []struct {
		flag  string
		value string
		dest  **int64
	}{
		{"inactive", f.inactive, &req.inactive},
		{"mindays", f.minDays, &req.minDays},
		{"warndays", f.warnDays, &req.warnDays},
		{"maxdays", f.maxDays, &req.maxDays},
	} {
		if !changed(d.flag) {
			continue
		}
		n, err := parseDays(d.value)
		if err != nil {
			return request{}, err
		}
		*d.dest = &n
	}

	if changed("repository") && f.repository != string(localentries.SourceFiles) {
		return request{}, fmt.Errorf("%w: repository %s not supported", ErrBadArgument, f.repository)
	}

	if len(args) > 1 {
		return request{}, fmt.Errorf("%w: at most one login can be given", ErrUsage)
	}
	if len(args) == 1 {
		req.login = args[0]
	}

	if req.all {
		if req.mutates() || !req.status || req.login != "" {
			return request{}, fmt.Errorf("%w: --all requires --status, without login or other option", ErrUsage)
		}
		return req, nil
	}

	if req.mutates() && req.login == "" {
		return request{}, fmt.Errorf("%w: a login is required", ErrUsage)
	}
	if (req.status && req.keepTokens) || (req.mutates() && (req.status || req.keepTokens)) {
		return request{}, fmt.Errorf("%w: --status and --keep-tokens must be used alone", ErrUsage)
	}

	exclusive := 0
	for _, set := range []bool{req.delete, req.lock, req.unlock} {
		if set {
			exclusive++
		}
	}
	if exclusive > 1 {
		return request{}, fmt.Errorf("%w: --delete, --lock and --unlock are mutually exclusive", ErrUsage)
	}

	return req, nil
}

// parseDays parses a number of days which can be -1 to disable the feature.
func parseDays(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < -1 {
		return 0, fmt.Errorf("%w: invalid numeric argument '%s'", ErrBadArgument, s)
	}
	return n, nil
}
