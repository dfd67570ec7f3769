package ddpg

import "errors"

// ConfigError describes an invalid agent configuration, such as
// malformed action bounds or a discount factor outside [0, 1].
type ConfigError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ConfigError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns whether an error reports an invalid agent
// configuration
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// FatalError describes an error that training cannot recover from,
// such as a NaN loss or a failing environment. Once a FatalError is
// returned, the agent's parameters can no longer be trusted and
// training must stop.
type FatalError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *FatalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal returns whether an error reports an unrecoverable training
// failure
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
