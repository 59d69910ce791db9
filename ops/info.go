package ops

import (
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evan-idocoding/actuator/settings"
)

// InfoKey is the configuration section rendered under "app" by the info endpoint.
const InfoKey = "Info"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Path      string    `json:"path,omitempty"`
	Module    string    `json:"module,omitempty"`
	Version   string    `json:"version,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
	VCS       *BuildVCS `json:"vcs,omitempty"`
}

// BuildVCS is the version control metadata embedded by the Go toolchain.
type BuildVCS struct {
	System   string `json:"system,omitempty"`
	Revision string `json:"revision,omitempty"`
	Time     string `json:"time,omitempty"`
	Modified *bool  `json:"modified,omitempty"`
}

// ProcessInfo describes the running process.
type ProcessInfo struct {
	PID        int           `json:"pid"`
	StartTime  time.Time     `json:"start_time"`
	Uptime     time.Duration `json:"uptime"`
	NumCPU     int           `json:"num_cpu"`
	GOMAXPROCS int           `json:"gomaxprocs"`
	Goroutines int           `json:"goroutines"`
}

// startTime is captured once at package init time.
var startTime = time.Now()

// ReadProcessInfo returns a snapshot of the running process.
func ReadProcessInfo() ProcessInfo {
	return ProcessInfo{
		PID:        os.Getpid(),
		StartTime:  startTime,
		Uptime:     time.Since(startTime),
		NumCPU:     runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		Goroutines: runtime.NumGoroutine(),
	}
}

// InfoReport is the body of the info endpoint.
type InfoReport struct {
	Build   BuildInfo      `json:"build"`
	Process ProcessInfo    `json:"process"`
	App     map[string]any `json:"app,omitempty"`
}

func (rep InfoReport) text(b *strings.Builder) {
	kv := func(k, v string) {
		if v != "" {
			writeKV(b, "build", k, v)
		}
	}
	kv("path", rep.Build.Path)
	kv("module", rep.Build.Module)
	kv("version", rep.Build.Version)
	kv("go_version", rep.Build.GoVersion)
	kv("platform", rep.Build.Platform)
	if vcs := rep.Build.VCS; vcs != nil {
		kv("vcs", vcs.System)
		kv("vcs.revision", vcs.Revision)
		kv("vcs.time", vcs.Time)
		if vcs.Modified != nil {
			kv("vcs.modified", strconv.FormatBool(*vcs.Modified))
		}
	}
	p := rep.Process
	writeKV(b, "process", "pid", strconv.Itoa(p.PID))
	writeKV(b, "process", "start_time", p.StartTime.UTC().Format(time.RFC3339))
	writeKV(b, "process", "uptime", p.Uptime.Truncate(time.Second).String())
	writeKV(b, "process", "num_cpu", strconv.Itoa(p.NumCPU))
	writeKV(b, "process", "gomaxprocs", strconv.Itoa(p.GOMAXPROCS))
	writeKV(b, "process", "goroutines", strconv.Itoa(p.Goroutines))
	flat := settings.Node(rep.App).Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeKV(b, "app", k, flat[k])
	}
}

// ReadBuildInfo returns the cached build info of the running binary.
func ReadBuildInfo() BuildInfo {
	buildInfoOnce.Do(func() {
		cachedBuildInfo = BuildInfo{
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok || bi == nil {
			return
		}
		cachedBuildInfo.Path = bi.Path
		cachedBuildInfo.Module = bi.Main.Path
		cachedBuildInfo.Version = bi.Main.Version
		if vcs, ok := extractVCS(bi.Settings); ok {
			cachedBuildInfo.VCS = &vcs
		}
	})
	out := cachedBuildInfo
	if out.VCS != nil {
		v := *out.VCS
		out.VCS = &v
	}
	return out
}

var (
	buildInfoOnce   sync.Once
	cachedBuildInfo BuildInfo
)

func extractVCS(kvs []debug.BuildSetting) (BuildVCS, bool) {
	var out BuildVCS
	var ok bool
	for _, kv := range kvs {
		switch kv.Key {
		case "vcs":
			out.System = kv.Value
		case "vcs.revision":
			out.Revision = kv.Value
		case "vcs.time":
			out.Time = kv.Value
		case "vcs.modified":
			b, err := strconv.ParseBool(kv.Value)
			if err != nil {
				continue
			}
			out.Modified = &b
		default:
			continue
		}
		ok = ok || kv.Value != ""
	}
	return out, ok
}

// InfoHandler returns the info endpoint: build and process metadata plus the Info
// section of the current configuration snapshot. GET/HEAD only.
func InfoHandler(src Snapshotter, opts ...Option) http.Handler {
	if src == nil {
		panic("ops: nil Snapshotter")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		rep := InfoReport{Build: ReadBuildInfo(), Process: ReadProcessInfo()}
		if snap := src.Load(); snap != nil {
			if app := snap.Root.Child(InfoKey); len(app) > 0 {
				rep.App = app.Clone()
			}
		}
		write(w, r, format, http.StatusOK, rep)
	})
}
