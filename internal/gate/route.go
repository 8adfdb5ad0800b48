package gate

import (
	"net/url"
	"strings"
)

const (
	// LoginPath is where anonymous visitors of protected pages are sent.
	LoginPath = "/auth"
	// HomePath is where signed-in visitors of auth pages are sent.
	HomePath = "/charts"
	// RedirectParam carries the page to return to after signing in.
	RedirectParam = "redirectTo"
)

var (
	protectedPrefixes = []string{"/charts"}
	authPrefixes      = []string{"/auth"}
)

// Route is the classification of a request path. A path may be neither.
type Route struct {
	Protected bool
	Auth      bool
}

// Classify matches path against the fixed prefix lists.
func Classify(path string) Route {
	return Route{
		Protected: hasAnyPrefix(path, protectedPrefixes),
		Auth:      hasAnyPrefix(path, authPrefixes),
	}
}

// Label names the route class for logs and metrics.
func (r Route) Label() string {
	switch {
	case r.Protected:
		return "protected"
	case r.Auth:
		return "auth"
	default:
		return "public"
	}
}

type Action int

const (
	Pass Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "pass"
}

// Decision is what the gate does with a request.
type Decision struct {
	Action Action
	Target string
}

// Decide applies the redirect policy; the first matching rule wins:
//  1. anonymous on a protected route goes to LoginPath?redirectTo=<path>
//  2. signed in on an auth route goes to redirectTo, or HomePath without one
//  3. everything else passes
//
// u is the request URL and host the request host; redirectTo targets that
// resolve to another host fall back to HomePath.
func Decide(authenticated bool, route Route, u *url.URL, host string) Decision {
	if !authenticated && route.Protected {
		q := url.Values{RedirectParam: {u.Path}}
		return Decision{Action: Redirect, Target: LoginPath + "?" + q.Encode()}
	}
	if authenticated && route.Auth {
		return Decision{Action: Redirect, Target: returnTarget(u, host)}
	}
	return Decision{Action: Pass}
}

func returnTarget(u *url.URL, host string) string {
	raw := u.Query().Get(RedirectParam)
	if raw == "" {
		return HomePath
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return HomePath
	}
	base := &url.URL{Scheme: "http", Host: host, Path: u.Path}
	resolved := base.ResolveReference(ref)
	if resolved.Host != host || (resolved.Scheme != "http" && resolved.Scheme != "https") {
		return HomePath
	}
	return resolved.RequestURI()
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
