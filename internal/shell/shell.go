// Package shell hosts the deployed web application inside a single
// embedded view. Every navigation, including redirects to other origins,
// is kept inside that view.
package shell

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const NavigatePath = "/_shell/navigate"

// desktopViewportWidth is the layout width used for wide viewport mode.
const desktopViewportWidth = 980

// Settings mirrors the switches of an embedded browser view.
type Settings struct {
	JavaScriptEnabled    bool
	DOMStorageEnabled    bool
	LoadWithOverviewMode bool
	UseWideViewPort      bool
}

func DefaultSettings() Settings {
	return Settings{
		JavaScriptEnabled:    true,
		DOMStorageEnabled:    true,
		LoadWithOverviewMode: true,
		UseWideViewPort:      true,
	}
}

// View is the single rendering surface. It tracks the origin currently
// loaded and the navigation history.
type View struct {
	mu      sync.RWMutex
	current *url.URL
	history []string
}

func (v *View) Load(u *url.URL) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := *u
	v.current = &cp
	v.history = append(v.history, u.String())
}

func (v *View) Current() *url.URL {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.current == nil {
		return nil
	}
	cp := *v.current
	return &cp
}

func (v *View) History() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.history...)
}

type Shell struct {
	View     *View
	Settings Settings

	start *url.URL
	proxy *httputil.ReverseProxy
}

// New creates the shell and loads startURL into its view.
func New(startURL string, settings Settings) (*Shell, error) {
	u, err := parseNavigable(startURL)
	if err != nil {
		return nil, fmt.Errorf("start url: %w", err)
	}
	s := &Shell{
		View:     &View{},
		Settings: settings,
		start:    u,
	}
	s.View.Load(u)
	s.proxy = &httputil.ReverseProxy{
		Rewrite:        s.rewrite,
		ModifyResponse: s.modifyResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("shell proxy error", "url", r.URL.String(), "error", err)
			http.Error(w, "the page could not be loaded", http.StatusBadGateway)
		},
	}
	return s, nil
}

// ShouldOverrideURLLoading loads target into this shell's view and reports
// that the shell handled the navigation.
func (s *Shell) ShouldOverrideURLLoading(target *url.URL) bool {
	s.View.Load(target)
	return true
}

// Handler serves the view: the navigate endpoint plus the proxied app.
func (s *Shell) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.GET(NavigatePath, s.navigate)
	r.NoRoute(func(c *gin.Context) {
		if c.Request.URL.Path == "/" && c.Request.Method == http.MethodGet {
			if cur := s.View.Current(); sameOrigin(cur, s.start) && s.start.Path != "" && s.start.Path != "/" {
				c.Redirect(http.StatusFound, s.start.RequestURI())
				return
			}
		}
		s.proxy.ServeHTTP(c.Writer, c.Request)
	})
	return r
}

func (s *Shell) navigate(c *gin.Context) {
	target, err := parseNavigable(c.Query("url"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	s.ShouldOverrideURLLoading(target)
	slog.Info("shell navigation", "url", target.String())
	c.Redirect(http.StatusFound, target.RequestURI())
}

func (s *Shell) rewrite(pr *httputil.ProxyRequest) {
	cur := s.View.Current()
	pr.SetURL(&url.URL{Scheme: cur.Scheme, Host: cur.Host})
	pr.SetXForwarded()
	// identity encoding so HTML can be rewritten
	pr.Out.Header.Del("Accept-Encoding")
}

func (s *Shell) modifyResponse(resp *http.Response) error {
	if loc := resp.Header.Get("Location"); loc != "" {
		resp.Header.Set("Location", s.rewriteLocation(resp.Request.URL, loc))
	}
	if csp := s.contentSecurityPolicy(); csp != "" {
		resp.Header.Add("Content-Security-Policy", csp)
	}
	if isHTML(resp) && resp.Header.Get("Content-Encoding") == "" {
		return s.rewriteDocument(resp)
	}
	return nil
}

// rewriteLocation keeps a redirect inside the view: same-origin targets
// become relative, other origins go through the navigate endpoint.
func (s *Shell) rewriteLocation(base *url.URL, loc string) string {
	target, err := base.Parse(loc)
	if err != nil {
		return loc
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return loc
	}
	if sameOrigin(target, s.View.Current()) {
		return target.RequestURI()
	}
	return NavigatePath + "?url=" + url.QueryEscape(target.String())
}

// rewriteLink applies rewriteLocation to absolute and scheme-relative
// links. Relative links already resolve inside the view.
func (s *Shell) rewriteLink(base *url.URL, raw string) string {
	v := strings.TrimSpace(raw)
	u, err := url.Parse(v)
	if err != nil || (!u.IsAbs() && !strings.HasPrefix(v, "//")) {
		return raw
	}
	return s.rewriteLocation(base, v)
}

func (s *Shell) contentSecurityPolicy() string {
	var directives []string
	if !s.Settings.JavaScriptEnabled {
		directives = append(directives, "script-src 'none'")
	}
	if !s.Settings.DOMStorageEnabled {
		// an opaque origin has no access to localStorage or sessionStorage
		sandbox := "sandbox allow-forms allow-popups allow-top-navigation"
		if s.Settings.JavaScriptEnabled {
			sandbox += " allow-scripts"
		}
		directives = append(directives, sandbox)
	}
	return strings.Join(directives, "; ")
}

func (s *Shell) viewportContent() string {
	content := "width=" + strconv.Itoa(desktopViewportWidth)
	if !s.Settings.LoadWithOverviewMode {
		content += ", initial-scale=1"
	}
	return content
}

// rewriteDocument keeps every link of an HTML page inside the view and, in
// wide viewport mode, replaces the page's viewport with the desktop one.
func (s *Shell) rewriteDocument(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	var head *html.Node
	var viewports []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.A, atom.Area:
				s.rewriteAttr(resp.Request.URL, n, "href")
			case atom.Form:
				s.rewriteAttr(resp.Request.URL, n, "action")
			case atom.Head:
				if head == nil {
					head = n
				}
			case atom.Meta:
				if strings.EqualFold(attr(n, "name"), "viewport") {
					viewports = append(viewports, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if s.Settings.UseWideViewPort && head != nil {
		for _, n := range viewports {
			n.Parent.RemoveChild(n)
		}
		head.InsertBefore(&html.Node{
			Type:     html.ElementNode,
			Data:     "meta",
			DataAtom: atom.Meta,
			Attr: []html.Attribute{
				{Key: "name", Val: "viewport"},
				{Key: "content", Val: s.viewportContent()},
			},
		}, head.FirstChild)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	resp.Body = io.NopCloser(&buf)
	resp.ContentLength = int64(buf.Len())
	resp.Header.Set("Content-Length", strconv.Itoa(buf.Len()))
	return nil
}

// rewriteAttr rewrites the link in key and drops target="_blank", which
// would open a second view.
func (s *Shell) rewriteAttr(base *url.URL, n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		switch {
		case a.Namespace == "" && a.Key == key:
			a.Val = s.rewriteLink(base, a.Val)
		case a.Namespace == "" && a.Key == "target" && strings.EqualFold(a.Val, "_blank"):
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isHTML(resp *http.Response) bool {
	return strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "text/html")
}

func sameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

func parseNavigable(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute http(s) url", raw)
	}
	return u, nil
}
