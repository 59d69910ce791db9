package ops

import (
	"bytes"
	"net/http"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"
)

type threadDumpResponse struct {
	Goroutines int    `json:"goroutines"`
	Dump       string `json:"dump"`
}

func (resp threadDumpResponse) text(b *strings.Builder) { b.WriteString(resp.Dump) }

// ThreadDumpHandler returns the threaddump endpoint: the stacks of all goroutines in
// the runtime/pprof debug=2 form. GET/HEAD only.
func ThreadDumpHandler(opts ...Option) http.Handler {
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		var buf bytes.Buffer
		if err := pprof.Lookup("goroutine").WriteTo(&buf, 2); err != nil {
			writeError(w, r, format, http.StatusInternalServerError, err.Error())
			return
		}
		write(w, r, format, http.StatusOK, threadDumpResponse{
			Goroutines: runtime.NumGoroutine(),
			Dump:       buf.String(),
		})
	})
}

// HeapDumpHandler returns the heapdump endpoint: a gzipped pprof heap profile taken
// after a forced GC, served as an attachment. GET/HEAD only.
//
// The profile is readable with `go tool pprof`.
func HeapDumpHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, FormatJSON)
		if !readOnly(w, r, format) {
			return
		}
		runtime.GC()
		var buf bytes.Buffer
		if err := pprof.Lookup("heap").WriteTo(&buf, 0); err != nil {
			writeError(w, r, format, http.StatusInternalServerError, err.Error())
			return
		}
		name := "heapdump-" + time.Now().UTC().Format("20060102T150405Z") + ".pb.gz"
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write(buf.Bytes())
	})
}
