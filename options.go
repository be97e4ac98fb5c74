package glstate

import "log/slog"

// ContextOption configures a Context during creation.
//
// Example:
//
//	ctx, err := glstate.NewContext(native,
//	    glstate.WithLabel("scene"),
//	    glstate.WithLinkPolicy(glstate.StrictLinkPolicy()),
//	)
type ContextOption func(*contextOptions)

// contextOptions holds optional configuration for Context creation.
type contextOptions struct {
	policy LinkPolicy
	label  string
	stereo bool
	logger *slog.Logger
}

// defaultOptions returns the default context options.
func defaultOptions() contextOptions {
	return contextOptions{
		policy: DefaultLinkPolicy(),
	}
}

// WithLinkPolicy sets the rule LinkProgram applies to the set of attached
// shaders before calling the native linker.
func WithLinkPolicy(p LinkPolicy) ContextOption {
	return func(o *contextOptions) {
		o.policy = p
	}
}

// WithLabel names the context in log records and in String.
func WithLabel(label string) ContextOption {
	return func(o *contextOptions) {
		o.label = label
	}
}

// WithStereo gives the default framebuffer right-hand planes.
func WithStereo(stereo bool) ContextOption {
	return func(o *contextOptions) {
		o.stereo = stereo
	}
}

// WithLogger gives the context its own logger instead of the package
// logger. The logger is also handed to the native layer if it accepts one.
func WithLogger(l *slog.Logger) ContextOption {
	return func(o *contextOptions) {
		o.logger = l
	}
}
