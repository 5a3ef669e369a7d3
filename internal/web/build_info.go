// internal/web/build_info.go
package web

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

type BuildInfo struct {
	Version    string   `json:"version"`
	GitCommit  string   `json:"git_commit"`
	GitBranch  string   `json:"git_branch"`
	BuildTime  string   `json:"build_time"`
	GoVersion  string   `json:"go_version"`
	GoOS       string   `json:"go_os"`
	GoArch     string   `json:"go_arch"`
	BuildFlags string   `json:"build_flags"`
	Plugins    []string `json:"plugins"`
	ModuleInfo []Module `json:"modules"`
}

type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Sum     string `json:"sum,omitempty"`
	Replace string `json:"replace,omitempty"`
}

// Set at build time with -ldflags "-X unifimon/internal/web.Version=...".
var (
	Version    = "dev"
	GitCommit  = "unknown"
	GitBranch  = "unknown"
	BuildTime  = "unknown"
	BuildFlags = "unknown"
)

func (s *Server) getBuildInfo(c *gin.Context) {
	var plugins []string
	for _, p := range s.engine.Registry().Checks() {
		plugins = append(plugins, p.Name)
	}

	c.JSON(http.StatusOK, gin.H{"data": BuildInfo{
		Version:    Version,
		GitCommit:  GitCommit,
		GitBranch:  GitBranch,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		GoOS:       runtime.GOOS,
		GoArch:     runtime.GOARCH,
		BuildFlags: BuildFlags,
		Plugins:    plugins,
		ModuleInfo: moduleInfo(),
	}})
}

// moduleInfo reads the dependency list embedded by the go toolchain.
func moduleInfo() []Module {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	modules := make([]Module, 0, len(info.Deps))
	for _, dep := range info.Deps {
		m := Module{Path: dep.Path, Version: dep.Version, Sum: dep.Sum}
		if dep.Replace != nil {
			m.Replace = dep.Replace.Path + "@" + dep.Replace.Version
		}
		modules = append(modules, m)
	}
	return modules
}
