package analyzer

import "go.uber.org/zap"

type Option func(*Analyzer)

// WithJobs caps the worker count; zero or negative selects the hardware
// parallelism.
func WithJobs(jobs int) Option {
	return func(a *Analyzer) {
		a.jobs = jobs
	}
}

// WithLogger routes the analyzer's progress and skip reports.
func WithLogger(log *zap.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}

// WithProviderFactory overrides how workers obtain their AST provider.
func WithProviderFactory(factory ProviderFactory) Option {
	return func(a *Analyzer) {
		a.newProvider = factory
	}
}
