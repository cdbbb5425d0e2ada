package web

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"fueltrack/db/db"
)

func CorsConfig() cors.Config {
	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConf.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	corsConf.AllowCredentials = true
	corsConf.MaxAge = 1 * 3600 // 1 hours
	return corsConf
}

// limiterMiddleWare limits requests per client IP. rate uses the limiter
// format, e.g. "20-S" or "1000-H".
func limiterMiddleWare(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)
	return mgin.NewMiddleware(instance), nil
}

// RecordDataLoaderInjectionMiddleware gives every request its own loader so
// lookups are batched per request and never cached across them.
func RecordDataLoaderInjectionMiddleware(wrapper db.FuelDBWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(db.DataLoaderKeyRecordData), db.NewRecordDataLoader(wrapper))
		c.Next()
	}
}

func setupMiddlewares(r *gin.Engine, conf ServiceConfig) error {
	if conf.RateLimit != "" {
		limit, err := limiterMiddleWare(conf.RateLimit)
		if err != nil {
			return err
		}
		r.Use(limit)
	}
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(cors.New(CorsConfig()))
	// the websocket upgrade must not go through gzip
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/stream"})))
	r.Use(secure.New(secure.Config{
		STSSeconds:           31536000, // 1 year
		STSIncludeSubdomains: true,
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		ReferrerPolicy:       "strict-origin-when-cross-origin",
		IsDevelopment:        conf.IsDev,
	}))
	return nil
}
