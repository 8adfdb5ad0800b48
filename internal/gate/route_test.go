package gate

import (
	"net/url"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{path: "/charts", want: Route{Protected: true}},
		{path: "/charts/btc", want: Route{Protected: true}},
		{path: "/auth", want: Route{Auth: true}},
		{path: "/auth/reset", want: Route{Auth: true}},
		{path: "/", want: Route{}},
		{path: "/api/auth/signup", want: Route{}},
		{path: "/api/charts/candles", want: Route{}},
	}

	for _, test := range tests {
		if got := Classify(test.path); got != test.want {
			t.Errorf("Classify(%q) = %+v, want %+v", test.path, got, test.want)
		}
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		auth   bool
		rawURL string
		want   Decision
	}{
		{name: "anonymous protected", rawURL: "/charts/eth", want: Decision{Action: Redirect, Target: "/auth?redirectTo=%2Fcharts%2Feth"}},
		{name: "anonymous protected drops query", rawURL: "/charts?w=10", want: Decision{Action: Redirect, Target: "/auth?redirectTo=%2Fcharts"}},
		{name: "signed in protected", auth: true, rawURL: "/charts", want: Decision{Action: Pass}},
		{name: "signed in auth default", auth: true, rawURL: "/auth", want: Decision{Action: Redirect, Target: "/charts"}},
		{name: "signed in auth with return", auth: true, rawURL: "/auth?redirectTo=%2Fcharts%2Feth%3Fw%3D5", want: Decision{Action: Redirect, Target: "/charts/eth?w=5"}},
		{name: "signed in auth same host absolute", auth: true, rawURL: "/auth?redirectTo=http%3A%2F%2Fdash.local%2Fcharts%2Fx", want: Decision{Action: Redirect, Target: "/charts/x"}},
		{name: "signed in auth foreign host", auth: true, rawURL: "/auth?redirectTo=https%3A%2F%2Fevil.example%2F", want: Decision{Action: Redirect, Target: "/charts"}},
		{name: "signed in auth protocol relative", auth: true, rawURL: "/auth?redirectTo=%2F%2Fevil.example", want: Decision{Action: Redirect, Target: "/charts"}},
		{name: "signed in auth back to auth", auth: true, rawURL: "/auth?redirectTo=%2Fauth%2Freset", want: Decision{Action: Redirect, Target: "/auth/reset"}},
		{name: "anonymous auth", rawURL: "/auth?redirectTo=%2Fcharts", want: Decision{Action: Pass}},
		{name: "anonymous public", rawURL: "/", want: Decision{Action: Pass}},
		{name: "signed in public", auth: true, rawURL: "/about", want: Decision{Action: Pass}},
	}

	for _, test := range tests {
		u, err := url.Parse(test.rawURL)
		if err != nil {
			t.Fatalf("%s: parse: %v", test.name, err)
		}
		got := Decide(test.auth, Classify(u.Path), u, "dash.local")
		if got != test.want {
			t.Errorf("%s: got %+v, want %+v", test.name, got, test.want)
		}
	}
}

func TestDecideProtectedAlwaysRedirectsAnonymous(t *testing.T) {
	for _, suffix := range []string{"", "/", "/a", "/a/b/c", "-beta", "/%20x"} {
		path := "/charts" + suffix
		u := &url.URL{Path: path}
		d := Decide(false, Classify(path), u, "dash.local")
		if d.Action != Redirect {
			t.Fatalf("%s fell through", path)
		}
		target, err := url.Parse(d.Target)
		if err != nil {
			t.Fatalf("bad target %q: %v", d.Target, err)
		}
		if target.Path != LoginPath || target.Query().Get(RedirectParam) != path {
			t.Fatalf("%s redirected to %s", path, d.Target)
		}
	}
}

func TestExcluded(t *testing.T) {
	excluded := []string{
		"/static/app.css",
		"/static",
		"/_next/static/chunk.js",
		"/_next/image",
		"/favicon.ico",
		"/charts/logo.svg",
		"/img/a.png",
		"/img/a.jpg",
		"/img/a.jpeg",
		"/img/a.gif",
		"/img/a.webp",
	}
	for _, p := range excluded {
		if !Excluded(p) {
			t.Errorf("%s should be excluded", p)
		}
	}

	for _, p := range []string{"/", "/charts", "/auth", "/api/auth/me", "/metrics", "/img/a.PNG"} {
		if Excluded(p) {
			t.Errorf("%s should not be excluded", p)
		}
	}
}
