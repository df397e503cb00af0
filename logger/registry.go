package logger

import "sync"

// components holds loggers registered for a component name, overriding
// the tagged global logger Get would otherwise return.
var components = struct {
	sync.RWMutex
	m map[string]*Logger
}{m: make(map[string]*Logger)}

// Register sets the logger returned by Get(name).
func Register(name string, l *Logger) {
	components.Lock()
	defer components.Unlock()
	components.m[name] = l
}

// Get returns the logger registered for name, or the global logger
// tagged with component=name. Packages resolve their default logger
// through Get when it is first needed, so Init and Register must run
// before pipelines and registries are created.
func Get(name string) *Logger {
	components.RLock()
	l, ok := components.m[name]
	components.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// Unregister removes the logger registered for name.
func Unregister(name string) {
	components.Lock()
	defer components.Unlock()
	delete(components.m, name)
}
