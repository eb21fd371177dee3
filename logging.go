package authstate

import (
	"fmt"

	"github.com/goliatone/go-logger/glog"
)

// Logger is the structured logging contract used across the package.
// glog loggers satisfy it directly.
type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
}

// LoggerProvider hands out named loggers so components can log under
// scoped names, e.g. "authstate.store".
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ProviderFromLogger wraps a single logger in a provider that returns it
// for every name.
func ProviderFromLogger(logger Logger) LoggerProvider {
	if logger == nil {
		logger = defLogger{}
	}
	return providerFunc(func(string) Logger {
		return logger
	})
}

// GlogProvider adapts a glog.BaseLogger so its named children satisfy the
// package Logger contract.
func GlogProvider(base *glog.BaseLogger) LoggerProvider {
	if base == nil {
		return ProviderFromLogger(nil)
	}
	return providerFunc(func(name string) Logger {
		return base.GetLogger(name)
	})
}

// ResolveLogger resolves the scoped logger for name, falling back to the
// given logger and finally to the package default. The returned provider
// always yields a non-nil logger for name.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if provider == nil {
		if logger == nil {
			logger = defLogger{}
		}
		return ProviderFromLogger(logger), logger
	}

	resolved := provider.GetLogger(name)
	if resolved == nil {
		if logger == nil {
			logger = defLogger{}
		}
		return fallbackProvider{next: provider, fallback: logger}, logger
	}

	return provider, resolved
}

type providerFunc func(name string) Logger

func (p providerFunc) GetLogger(name string) Logger {
	return p(name)
}

type fallbackProvider struct {
	next     LoggerProvider
	fallback Logger
}

func (p fallbackProvider) GetLogger(name string) Logger {
	if logger := p.next.GetLogger(name); logger != nil {
		return logger
	}
	return p.fallback
}

type defLogger struct{}

func (d defLogger) Debug(message string, args ...any) { d.print("DBG", message, args...) }
func (d defLogger) Info(message string, args ...any)  { d.print("INF", message, args...) }
func (d defLogger) Warn(message string, args ...any)  { d.print("WRN", message, args...) }
func (d defLogger) Error(message string, args ...any) { d.print("ERR", message, args...) }

func (d defLogger) print(level, message string, args ...any) {
	if len(args) == 0 {
		fmt.Printf("[%s] AUTHSTATE %s\n", level, message)
		return
	}
	fmt.Printf("[%s] AUTHSTATE %s %v\n", level, message, args)
}
