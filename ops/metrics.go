package ops

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// PrometheusHandler returns the prometheus endpoint: the scrape output of g in the
// text exposition format. GET/HEAD only.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		panic("ops: nil prometheus.Gatherer")
	}
	scrape := promhttp.HandlerFor(g, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !readOnly(w, r, formatFromRequest(r, FormatText)) {
			return
		}
		scrape.ServeHTTP(w, r)
	})
}

// Sample is one series of a metric family.
type Sample struct {
	Labels map[string]string `json:"labels,omitempty"`
	// Value is the counter, gauge or untyped value; for histograms and summaries it is
	// the sample sum.
	Value float64 `json:"value"`
	Count uint64  `json:"count,omitempty"`
}

// MetricFamily is the rendered form of one gathered metric family.
type MetricFamily struct {
	Name    string   `json:"name"`
	Help    string   `json:"help,omitempty"`
	Type    string   `json:"type"`
	Samples []Sample `json:"samples"`
}

func (mf MetricFamily) text(b *strings.Builder) {
	for _, s := range mf.Samples {
		key := mf.Name
		if len(s.Labels) > 0 {
			names := make([]string, 0, len(s.Labels))
			for n := range s.Labels {
				names = append(names, n)
			}
			sort.Strings(names)
			parts := make([]string, 0, len(names))
			for _, n := range names {
				parts = append(parts, n+"="+s.Labels[n])
			}
			key += "{" + strings.Join(parts, ",") + "}"
		}
		writeKV(b, "sample", key, strconv.FormatFloat(s.Value, 'g', -1, 64))
	}
}

type metricNamesResponse struct {
	Names []string `json:"names"`
}

func (resp metricNamesResponse) text(b *strings.Builder) {
	for _, n := range resp.Names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
}

// MetricsHandler returns the metrics endpoint. It expects to be mounted as a subtree
// with the mount prefix stripped:
//
//	GET /         the names of all gathered metric families
//	GET /{name}   the samples of one family (404 if unknown)
func MetricsHandler(g prometheus.Gatherer, opts ...Option) http.Handler {
	if g == nil {
		panic("ops: nil prometheus.Gatherer")
	}
	cfg := applyOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		mfs, err := g.Gather()
		if err != nil && len(mfs) == 0 {
			writeError(w, r, format, http.StatusInternalServerError, err.Error())
			return
		}
		name := strings.Trim(r.URL.Path, "/")
		if name == "" {
			resp := metricNamesResponse{Names: make([]string, 0, len(mfs))}
			for _, mf := range mfs {
				resp.Names = append(resp.Names, mf.GetName())
			}
			sort.Strings(resp.Names)
			write(w, r, format, http.StatusOK, resp)
			return
		}
		for _, mf := range mfs {
			if mf.GetName() == name {
				write(w, r, format, http.StatusOK, convertFamily(mf))
				return
			}
		}
		writeError(w, r, format, http.StatusNotFound, "unknown metric "+strconv.Quote(name))
	})
}

func convertFamily(mf *dto.MetricFamily) MetricFamily {
	out := MetricFamily{
		Name:    mf.GetName(),
		Help:    mf.GetHelp(),
		Type:    strings.ToLower(mf.GetType().String()),
		Samples: make([]Sample, 0, len(mf.GetMetric())),
	}
	for _, m := range mf.GetMetric() {
		s := Sample{}
		if lps := m.GetLabel(); len(lps) > 0 {
			s.Labels = make(map[string]string, len(lps))
			for _, lp := range lps {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
		}
		switch {
		case m.Counter != nil:
			s.Value = m.GetCounter().GetValue()
		case m.Gauge != nil:
			s.Value = m.GetGauge().GetValue()
		case m.Histogram != nil:
			s.Value = m.GetHistogram().GetSampleSum()
			s.Count = m.GetHistogram().GetSampleCount()
		case m.Summary != nil:
			s.Value = m.GetSummary().GetSampleSum()
			s.Count = m.GetSummary().GetSampleCount()
		case m.Untyped != nil:
			s.Value = m.GetUntyped().GetValue()
		}
		out.Samples = append(out.Samples, s)
	}
	return out
}
