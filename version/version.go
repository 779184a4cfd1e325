package version

import (
	"fmt"
	"runtime"
)

// Stamped at link time, e.g.
//
//	go build -ldflags "-X github.com/jet/bwtest/version.Revision=$(git rev-parse --short HEAD)"
var (
	Release  = "0.2.0"
	Tag      = ""
	Revision = ""
)

type Info struct {
	Release  string
	Tag      string
	Revision string
	Go       string
}

func GetInfo() Info {
	return Info{
		Release:  Release,
		Tag:      Tag,
		Revision: Revision,
		Go:       runtime.Version(),
	}
}

// Semver joins the release and an optional pre-release tag ("0.2.0-rc.1").
func (i Info) Semver() string {
	if i.Tag == "" {
		return i.Release
	}
	return i.Release + "-" + i.Tag
}

// Banner is the line printed by `<binary> version`.
func (i Info) Banner(binary string) string {
	b := fmt.Sprintf("%s v%s", binary, i.Semver())
	if i.Revision != "" {
		b += " (" + i.Revision + ")"
	}
	return b
}

func (i Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"version":  i.Semver(),
		"revision": i.Revision,
		"go":       i.Go,
	}
}
