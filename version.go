package main

import (
	"runtime/debug"
)

// version is set at startup based on the Go module used to build.
var version = "(devel)"

func init() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = buildInfo.Main.Version
	if version != "(devel)" && version != "" {
		return
	}
	version = "(devel)"
	var vcsRev, vcsMod string
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRev = setting.Value
		case "vcs.modified":
			vcsMod = setting.Value
		}
	}
	if vcsRev == "" {
		return
	}
	version = vcsRev
	if vcsMod == "true" {
		version += "+modifications"
	}
}
