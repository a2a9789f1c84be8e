package rootanchor

// WithChdir overrides the function used to change the working directory.
func WithChdir(chdir func(string) error) Option {
	return func(o *options) {
		o.chdir = chdir
	}
}

// WithChroot overrides the function used to change the root directory.
func WithChroot(chroot func(string) error) Option {
	return func(o *options) {
		o.chroot = chroot
	}
}
