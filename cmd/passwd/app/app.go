// Package app implements the passwd command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/consts"
	"github.com/ubuntu/gopasswd/internal/environ"
	"github.com/ubuntu/gopasswd/internal/identity"
	"github.com/ubuntu/gopasswd/internal/rootanchor"
	"github.com/ubuntu/gopasswd/internal/shadow"
	"github.com/ubuntu/gopasswd/internal/users/localentries"
	userslocking "github.com/ubuntu/gopasswd/internal/users/locking"
	"github.com/ubuntu/gopasswd/internal/users/types"
	"github.com/ubuntu/gopasswd/log"
	"golang.org/x/sys/unix"
)

// cmdName is the binary name.
const cmdName = "passwd"

var (
	// ErrUsage is returned on an invalid combination of options.
	ErrUsage = errors.New("invalid combination of options")
	// ErrBadArgument is returned on an invalid option or option argument.
	ErrBadArgument = errors.New("invalid argument")
	// ErrPermissionDenied is returned when the caller is not allowed to run the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrPasswordUnchanged is returned when the password change did not happen.
	ErrPasswordUnchanged = errors.New("password unchanged")
	// ErrNoPasswordChanger is returned when changing a password without any backend to do it.
	ErrNoPasswordChanger = errors.New("changing passwords is not supported by this build")
)

// App encapsulate the passwd command and its options, which can also be set
// by configuration file and environment variables.
type App struct {
	rootCmd cobra.Command
	viper   *viper.Viper
	config  passwdConfig
	flags   cmdFlags

	options options
}

type systemPaths struct {
	Shadow string
	Passwd string
}

// passwdConfig defines the configuration parameters of passwd.
type passwdConfig struct {
	Verbosity   int
	Journal     bool
	UsersSource string `mapstructure:"users_source"`
	Paths       systemPaths
}

type options struct {
	getuid    func() int
	sanitize  func() (environ.Snapshot, error)
	anchor    func(path string) error
	stdout    io.Writer
	configDir string
	changer   PasswordChanger
}

// Option overrides the App default behavior.
type Option func(*options)

// WithPasswordChanger sets the backend asking for and storing new passwords.
func WithPasswordChanger(c PasswordChanger) Option {
	return func(o *options) {
		o.changer = c
	}
}

// New registers the command and returns a new App.
func New(args ...Option) *App {
	opts := options{
		getuid:    unix.Getuid,
		sanitize:  environ.SanitizeProcess,
		anchor:    func(path string) error { return rootanchor.Anchor(path) },
		stdout:    os.Stdout,
		configDir: consts.DefaultConfigDir,
	}
	for _, arg := range args {
		arg(&opts)
	}

	a := App{options: opts}
	a.rootCmd = cobra.Command{
		Use:   fmt.Sprintf("%s [options] [LOGIN]", cmdName),
		Short: "Change user password",
		Long: "Change the password of a user account, or inspect and update its password state " +
			"and aging information in the shadow file.",
		Args:    cobra.ArbitraryArgs,
		Version: consts.Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
		// We display errors ourselves.
		SilenceErrors: true,
	}
	a.rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")
	a.rootCmd.SetOut(opts.stdout)
	a.rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrBadArgument, err)
	})

	a.viper = viper.New()

	installVerbosityFlag(&a.rootCmd, a.viper)
	installConfigFlag(&a.rootCmd)
	a.installFlags()

	return &a
}

// Run executes the command and associated process.
func (a *App) Run() error {
	return a.rootCmd.Execute()
}

// UsageError returns true if the command failed before its arguments were validated.
func (a App) UsageError() bool {
	return !a.rootCmd.SilenceUsage
}

// ExitCode returns the passwd exit code for the error returned by [App.Run].
func (a App) ExitCode(err error) int {
	switch {
	case err == nil:
		return consts.ExitSuccess
	case errors.Is(err, ErrUsage):
		return consts.ExitUsage
	case errors.Is(err, ErrBadArgument):
		return consts.ExitBadArg
	case errors.Is(err, userslocking.ErrLock):
		return consts.ExitBusy
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrPasswordUnchanged),
		errors.Is(err, identity.ErrNotFound),
		errors.Is(err, localentries.ErrUserNotFound),
		errors.Is(err, shadow.ErrNotFound):
		return consts.ExitNoPerm
	}
	return consts.ExitFailure
}

// RootCmd returns a copy of the root command for the app.
// Shouldn't be in general necessary apart when running generators.
func (a App) RootCmd() cobra.Command {
	return a.rootCmd
}

func (a *App) run(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := a.request(args)
	if err != nil {
		return err
	}
	// Arguments are valid: errors from now on are not usage errors.
	a.rootCmd.SilenceUsage = true

	// Nothing else must have touched the system before changing its root.
	if req.rootSet {
		if err := a.options.anchor(req.root); err != nil {
			return err
		}
	}

	env, err := a.options.sanitize()
	if err != nil {
		return err
	}

	uid := a.options.getuid()
	amroot := uid == 0
	if err := a.loadConfig(cmd, env, amroot); err != nil {
		return err
	}

	if (req.all || req.mutates()) && !amroot {
		return ErrPermissionDenied
	}

	if req.all {
		return a.printAllStatuses()
	}

	resolver := identity.NewResolver(
		identity.WithSource(localentries.Source(a.config.UsersSource)),
		identity.WithPasswdPath(a.config.Paths.Passwd),
		identity.WithGetuid(a.options.getuid),
	)

	// The caller only needs to be known when no login is given, or to check
	// that a regular user targets their own account.
	name := req.login
	var me types.UserEntry
	if name == "" || !amroot {
		if me, err = resolver.Current(); err != nil {
			return err
		}
	}
	if name == "" {
		name = me.Name
	}
	by := me.Name
	if by == "" {
		by = fmt.Sprintf("UID %d", uid)
	}

	target, err := resolver.Lookup(name)
	if err != nil {
		return fmt.Errorf("user '%s' does not exist: %w", name, err)
	}
	if !amroot && target.UID != me.UID {
		log.Warningf(ctx, "%s: can't view or modify password information for %s", cmdName, name)
		return fmt.Errorf("%w: you may not view or modify password information for %s", ErrPermissionDenied, name)
	}

	switch {
	case req.status:
		return a.printStatus(name)
	case req.mutates():
		if err := a.updateShadow(name, req); err != nil {
			return err
		}
		a.audit(ctx, name, by)
		if !req.quiet {
			fmt.Fprintf(a.options.stdout, "%s: password expiry information changed.\n", cmdName)
		}
		return nil
	}

	return a.changePassword(ctx, target, by, req, amroot)
}

// audit records credential changes.
func (a *App) audit(ctx context.Context, name, by string) {
	log.Noticef(ctx, "password for '%s' changed by '%s'", name, by)
}

func (a *App) changePassword(ctx context.Context, target types.UserEntry, by string, req request, amroot bool) (err error) {
	defer decorate.OnError(&err, "the password for %s is unchanged", target.Name)

	if a.options.changer == nil {
		return ErrNoPasswordChanger
	}

	if !req.quiet {
		fmt.Fprintf(a.options.stdout, "Changing password for %s\n", target.Name)
	}

	err = a.options.changer.ChangePassword(ctx, PasswordChangeRequest{
		User:        target,
		ShadowPath:  a.config.Paths.Shadow,
		ExpiredOnly: req.keepTokens,
		Privileged:  amroot,
	})
	if errors.Is(err, ErrPasswordNotExpired) {
		log.Debugf(ctx, "Password of %s is not expired, keeping it", target.Name)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPasswordUnchanged, err)
	}

	a.audit(ctx, target.Name, by)
	if !req.quiet {
		fmt.Fprintf(a.options.stdout, "%s: password changed.\n", cmdName)
	}
	return nil
}
