package authproxy

import "strings"

// Verdict is the classifier's decision for one request path.
type Verdict int

const (
	// Passthrough: not ours, let the application router handle it.
	Passthrough Verdict = iota
	// Skip: static resource or root path, never touches the auth handler.
	Skip
	// AuthAction: proxy to the authentication handler.
	AuthAction
)

func (v Verdict) String() string {
	switch v {
	case Skip:
		return "skip"
	case AuthAction:
		return "auth_action"
	default:
		return "passthrough"
	}
}

// Rule pairs a path predicate with the verdict it forces. Rules are
// evaluated in order and the first match wins, which makes the precedence
// (static skip > root skip > page exclusion > auth match) an auditable
// table instead of nested conditionals.
type Rule struct {
	Name    string
	Match   func(path string) bool
	Verdict Verdict
}

// Rules is the ordered decision table. The page-route rule sits above the
// auth rule because some auth substrings ("auth", "signin") can appear
// inside legitimate page slugs; application pages must never be hijacked.
var Rules = []Rule{
	{Name: "static-resource", Match: IsStaticResource, Verdict: Skip},
	{Name: "root-path", Match: isRootPath, Verdict: Skip},
	{Name: "page-route", Match: IsPageRoute, Verdict: Passthrough},
	{Name: "auth-action", Match: IsAuthAction, Verdict: AuthAction},
}

// Classify maps a raw request path to a Verdict. It is a pure, total
// function: any string, including the empty one, gets an answer and the
// same string always gets the same answer.
func Classify(path string) Verdict {
	_, v := MatchedRule(path)
	return v
}

// MatchedRule returns the name of the rule that decided the verdict along
// with the verdict itself. The name feeds logs and the X-Auth-Proxy
// response header; "default" means no rule matched.
func MatchedRule(path string) (string, Verdict) {
	for _, r := range Rules {
		if r.Match(path) {
			return r.Name, r.Verdict
		}
	}
	return "default", Passthrough
}

func isRootPath(path string) bool {
	return path == "" || path == "/"
}

// Well-known static files served from the site root.
var staticFiles = []string{
	"/favicon.ico",
	"/favicon.png",
	"/robots.txt",
	"/sitemap.xml",
}

// Directories that only ever hold build artifacts and assets.
var staticPrefixes = []string{
	"/_next/",
	"/static/",
	"/images/",
	"/fonts/",
	"/logos/",
	"/css/",
	"/js/",
}

// File-extension suffixes grouped by media type. Extension matching is the
// one place the classifier is case-insensitive.
var staticExtensions = []string{
	// images
	".ico", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".bmp",
	// styles
	".css", ".scss", ".sass", ".less",
	// scripts
	".js", ".jsx", ".ts", ".tsx", ".mjs", ".map",
	// fonts
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	// documents
	".txt", ".xml", ".json", ".webmanifest",
	// audio / video
	".mp3", ".mp4", ".ogg", ".wav", ".webm",
	// office documents
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	// archives
	".zip", ".tar", ".gz", ".rar",
}

// IsStaticResource reports whether the path points at a static asset that
// must never reach the auth handler.
func IsStaticResource(path string) bool {
	for _, f := range staticFiles {
		if path == f {
			return true
		}
	}
	for _, p := range staticPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	lower := strings.ToLower(path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Application page slugs that outrank any auth pattern. A match anywhere in
// the path excludes it from auth handling, locale prefix or not.
var pageSlugs = []string{
	"/image-prompt",
	"/image-to-prompt",
	"/blog",
	"/docs",
	"/pricing",
	"/tutorials",
	"/dashboard",
	"/admin",
}

// IsPageRoute reports whether the path belongs to the application's own
// marketing/content routes.
func IsPageRoute(path string) bool {
	for _, slug := range pageSlugs {
		if strings.Contains(path, slug) {
			return true
		}
	}
	return false
}

// Exact auth endpoints, with and without trailing slash where the auth
// handler accepts both.
var authExact = []string{
	"/api/auth",
	"/_next/auth",
	"/auth/github",
	"/oauth/github",
	"/auth/callback",
	"/auth/signin", "/auth/signin/",
	"/auth/signout", "/auth/signout/",
	"/auth/session", "/auth/session/",
	"/auth/providers", "/auth/providers/",
}

// Prefixes under which every sub-path is an auth action.
var authPrefixes = []string{
	"/api/auth/",
	"/_next/auth/",
	"/auth/github/",
	"/auth/callback/",
	"/oauth/github/",
	"/auth/",
	"/oauth/",
}

// Substrings that mark an auth action wherever they appear in the path.
// These are the defensive net for provider-specific callback shapes.
var authSubstrings = []string{
	"/callback/",
	"/oauth/",
	"/auth/",
	"/signin/",
	"/signout/",
	"/session/",
	"/providers/",
}

// IsAuthAction reports whether the path is an authentication action that
// should be proxied to the auth handler. All matching here is
// case-sensitive on the raw path.
func IsAuthAction(path string) bool {
	if path == "" {
		return false
	}
	for _, p := range authExact {
		if path == p {
			return true
		}
	}
	for _, p := range authPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, s := range authSubstrings {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}
