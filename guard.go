package actuator

import (
	"net/http"

	"github.com/evan-idocoding/actuator/admin"
)

// Guard admits or rejects requests to a management endpoint.
type Guard = admin.Guard

// TokenOption configures token guards.
type TokenOption = admin.TokenOption

// DefaultTokenHeader is the header token guards read unless WithTokenHeader is given.
const DefaultTokenHeader = admin.DefaultTokenHeader

// loopback covers probes issued from the same host.
var loopback = []string{"127.0.0.0/8", "::1/128"}

func AllowAll() Guard { return admin.AllowAll() }

func DenyAll() Guard { return admin.DenyAll() }

func WithTokenHeader(name string) TokenOption { return admin.WithTokenHeader(name) }

// Tokens admits requests carrying one of tokens.
func Tokens(tokens []string, opts ...TokenOption) Guard { return admin.Tokens(tokens, opts...) }

// RotatingTokens admits requests carrying a token currently held by set.
// Swap the set's tokens to rotate credentials without rebuilding the handler.
func RotatingTokens(set *admin.AtomicTokenSet, opts ...TokenOption) Guard {
	return admin.HotTokens(set, opts...)
}

// IPAllowList admits requests whose RemoteAddr falls in one of the CIDRs or IPs.
func IPAllowList(cidrsOrIPs ...string) Guard { return admin.IPAllowList(cidrsOrIPs...) }

// LocalOnly admits loopback clients only.
func LocalOnly() Guard { return admin.IPAllowList(loopback...) }

// TokensOrLocal admits loopback clients, and remote ones carrying a token.
// It suits a ReadGuard where sidecar probes run on the same host.
func TokensOrLocal(tokens []string, opts ...TokenOption) Guard {
	return admin.TokensOrIPAllowList(tokens, loopback, opts...)
}

// Check admits requests for which fn reports true. fn must not block.
func Check(fn func(r *http.Request) bool) Guard { return admin.Check(fn) }
