package app

import (
	"context"
	"errors"

	"github.com/ubuntu/decorate"
	"github.com/ubuntu/gopasswd/internal/shadow"
	"github.com/ubuntu/gopasswd/internal/status"
	"github.com/ubuntu/gopasswd/internal/users/types"
	"github.com/ubuntu/gopasswd/log"
)

// ErrPasswordNotExpired is returned by a [PasswordChanger] asked to only
// change expired passwords when the password is still valid.
var ErrPasswordNotExpired = errors.New("password not expired")

// PasswordChangeRequest describes the password to change.
type PasswordChangeRequest struct {
	User       types.UserEntry
	ShadowPath string
	// ExpiredOnly is set when the password must only be changed if expired.
	ExpiredOnly bool
	// Privileged is set when the caller is root and doesn't need to
	// authenticate with the current password.
	Privileged bool
}

// PasswordChanger asks for a new password and stores it.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, req PasswordChangeRequest) error
}

func (a *App) printStatus(name string) (err error) {
	defer decorate.OnError(&err, "can't report the password status of %s", name)

	s, err := shadow.Load(a.config.Paths.Shadow)
	if err != nil {
		return err
	}
	return status.Write(a.options.stdout, status.Lookup(s, name))
}

func (a *App) printAllStatuses() (err error) {
	defer decorate.OnError(&err, "can't report the password status of all accounts")

	s, err := shadow.Load(a.config.Paths.Shadow)
	if err != nil {
		return err
	}
	return status.Write(a.options.stdout, status.All(s)...)
}

// updateShadow applies the requested changes to the shadow entry of name.
func (a *App) updateShadow(name string, req request) (err error) {
	defer decorate.OnError(&err, "can't update the password information of %s", name)

	return shadow.Modify(a.config.Paths.Shadow, func(s *shadow.Store) error {
		return s.Update(name, func(r *shadow.Record) error {
			return applyRequest(r, req)
		})
	})
}

func applyRequest(r *shadow.Record, req request) error {
	if req.delete {
		r.DeletePassword()
	}
	if req.unlock {
		if err := r.Unlock(); err != nil {
			return err
		}
	}
	if req.lock {
		r.Lock()
	}

	for _, d := range []struct {
		value *int64
		set   func(int64) error
	}{
		{req.maxDays, r.SetMaxDays},
		{req.minDays, r.SetMinDays},
		{req.warnDays, r.SetWarnDays},
		{req.inactive, r.SetInactiveDays},
	} {
		if d.value == nil {
			continue
		}
		if err := d.set(*d.value); err != nil {
			return err
		}
	}

	if req.expire {
		r.ExpirePassword()
	}

	log.Debugf(context.Background(), "New shadow entry for %s: state %s", r.Name, r.State())
	return nil
}
