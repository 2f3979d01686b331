package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

type RouterConfig struct {
	AllowOrigins []string // empty allows every origin
}

func templates() *template.Template {
	funcs := template.FuncMap{
		"clock": func(t time.Time) string { return t.Format("15:04:05") },
		"expireDelay": func(created time.Time, ttl time.Duration) string {
			return expireDelay(created, ttl, time.Now())
		},
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict needs key/value pairs")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// expireDelay is the CSS delay after which a rendered alert hides itself,
// so the banner leaves the page when its timer fires server-side.
func expireDelay(created time.Time, ttl time.Duration, now time.Time) string {
	left := ttl - now.Sub(created)
	if left < 0 {
		left = 0
	}
	return strconv.FormatInt(left.Milliseconds(), 10) + "ms"
}

// NewRouter builds the web host: HTML pages, form posts and the alert API.
func NewRouter(cfg RouterConfig, h *PageHandler) *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(templates())

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	r.GET("/", h.Dashboard)
	r.GET("/resumes", h.Resumes)
	r.POST("/resumes/upload", h.UploadResume)
	r.POST("/resumes/toggle", h.ToggleUploadForm)
	r.POST("/jobs/search", h.SearchJobs)
	r.POST("/jobs/apply", h.Apply)

	ui := r.Group("/ui")
	{
		ui.GET("/alerts", h.Alerts)
		ui.POST("/alerts/:id/dismiss", h.DismissAlert)
	}

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)
	}
	return r
}
