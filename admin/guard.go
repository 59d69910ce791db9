package admin

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"
)

// Guard enforces request admission for an endpoint.
//
// Implementations must be fast and must not block; they must not do I/O.
type Guard interface {
	// Middleware returns a net/http middleware that enforces this guard.
	//
	// Denied requests must respond with HTTP 403.
	Middleware() func(http.Handler) http.Handler
}

type guardFunc struct{ mw func(http.Handler) http.Handler }

func (g guardFunc) Middleware() func(http.Handler) http.Handler {
	if g.mw == nil {
		return DenyAll().Middleware()
	}
	return g.mw
}

// predicate guards admit a request when allow returns true.
type predicate func(r *http.Request) bool

func (p predicate) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("admin: guard: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !p(r) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusForbidden)
}

// DenyAll returns a guard that denies all requests with HTTP 403.
func DenyAll() Guard {
	return guardFunc{mw: func(next http.Handler) http.Handler {
		if next == nil {
			panic("admin: DenyAll: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { forbidden(w) })
	}}
}

// AllowAll returns a guard that allows all requests.
func AllowAll() Guard {
	return guardFunc{mw: func(next http.Handler) http.Handler {
		if next == nil {
			panic("admin: AllowAll: nil next handler")
		}
		return next
	}}
}

// DefaultTokenHeader is the header read by token guards unless overridden.
const DefaultTokenHeader = "X-Access-Token"

// TokenSetLike is a token set used by HotTokens.
//
// Implementations must be safe for concurrent use and must not block.
type TokenSetLike interface {
	Contains(token string) bool
}

// TokenOption configures token guards.
type TokenOption func(*tokenConfig)

type tokenConfig struct {
	header string
}

// WithTokenHeader overrides the token header name. Blank names are ignored.
func WithTokenHeader(name string) TokenOption {
	return func(c *tokenConfig) {
		if name = strings.TrimSpace(name); name != "" {
			c.header = name
		}
	}
}

func applyTokenOptions(opts []TokenOption) tokenConfig {
	cfg := tokenConfig{header: DefaultTokenHeader}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// tokenFrom returns the single token of r, or false when it is missing or ambiguous.
func tokenFrom(r *http.Request, header string) (string, bool) {
	vs := r.Header.Values(header)
	if len(vs) != 1 {
		return "", false
	}
	t := strings.TrimSpace(vs[0])
	return t, t != ""
}

func tokenPredicate(set TokenSetLike, header string) predicate {
	return func(r *http.Request) bool {
		t, ok := tokenFrom(r, header)
		return ok && set.Contains(t)
	}
}

// Tokens returns a guard that admits requests carrying one of tokens.
//
// Tokens are compared in constant time. Blank tokens are ignored; with none left every
// request is denied.
func Tokens(tokens []string, opts ...TokenOption) Guard { return staticTokens(tokens, opts) }

func staticTokens(tokens []string, opts []TokenOption) predicate {
	cfg := applyTokenOptions(opts)
	set := NewAtomicTokenSet()
	set.Update(tokens)
	return tokenPredicate(set, cfg.header)
}

// HotTokens returns a token guard backed by a set that can change at runtime.
//
// set must be non-nil (nil is an assembly error and panics).
func HotTokens(set TokenSetLike, opts ...TokenOption) Guard {
	if set == nil {
		panic("admin: HotTokens: nil token set")
	}
	cfg := applyTokenOptions(opts)
	return tokenPredicate(set, cfg.header)
}

// IPAllowList returns a guard that admits requests whose RemoteAddr is covered by one
// of cidrsOrIPs. Invalid entries are ignored; with none left every request is denied.
func IPAllowList(cidrsOrIPs ...string) Guard {
	return ipPredicate(parsePrefixes(cidrsOrIPs))
}

// TokensOrIPAllowList admits a request when its token is allowed or its IP is allowlisted.
func TokensOrIPAllowList(tokens, cidrsOrIPs []string, opts ...TokenOption) Guard {
	tok := staticTokens(tokens, opts)
	ip := ipPredicate(parsePrefixes(cidrsOrIPs))
	return predicate(func(r *http.Request) bool { return tok(r) || ip(r) })
}

// TokensAndIPAllowList admits a request only when its token is allowed and its IP is
// allowlisted.
func TokensAndIPAllowList(tokens, cidrsOrIPs []string, opts ...TokenOption) Guard {
	tok := staticTokens(tokens, opts)
	ip := ipPredicate(parsePrefixes(cidrsOrIPs))
	return predicate(func(r *http.Request) bool { return tok(r) && ip(r) })
}

// Check returns a guard backed by a custom fast predicate.
//
// fn must not block; nil is an assembly error and panics.
func Check(fn func(r *http.Request) bool) Guard {
	if fn == nil {
		panic("admin: Check: nil func")
	}
	return predicate(fn)
}

func ipPredicate(prefixes []netip.Prefix) predicate {
	return func(r *http.Request) bool {
		addr, ok := remoteAddr(r)
		if !ok {
			return false
		}
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}
}

func parsePrefixes(in []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			if p, err := netip.ParsePrefix(s); err == nil {
				out = append(out, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

func remoteAddr(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	a, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return a.Unmap(), true
}

// AtomicTokenSet is a token set that can be replaced at runtime.
//
// Contains is lock-free; Update swaps the whole set.
type AtomicTokenSet struct {
	tokens atomic.Pointer[[]string]
}

// NewAtomicTokenSet creates an empty set (denies everything).
func NewAtomicTokenSet() *AtomicTokenSet {
	s := &AtomicTokenSet{}
	s.tokens.Store(&[]string{})
	return s
}

// Update replaces the tokens. Blank tokens are ignored.
func (s *AtomicTokenSet) Update(tokens []string) {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	s.tokens.Store(&out)
}

// Contains reports whether token is in the set, comparing in constant time.
func (s *AtomicTokenSet) Contains(token string) bool {
	if s == nil {
		return false
	}
	p := s.tokens.Load()
	if p == nil {
		return false
	}
	var ok bool
	for _, t := range *p {
		if subtle.ConstantTimeCompare([]byte(token), []byte(t)) == 1 {
			ok = true
		}
	}
	return ok
}
