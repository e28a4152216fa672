//go:build !linux
// +build !linux

package runtime

type envProbe struct{}

var defaultProbe = envProbe{}

func (envProbe) load() Env { return Env{} }
