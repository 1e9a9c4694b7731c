// Package httpapi serves URL classification over REST.
package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sre-norns/envprobe/pkg/batch"
	"github.com/sre-norns/envprobe/pkg/envdetect"
)

const maxBatchTargets = 256

var (
	ErrContentFileNotAllowed = fmt.Errorf("contentFile is not accepted over the API, inline the content instead")
	ErrTooManyTargets        = fmt.Errorf("too many targets in a single batch")
)

type Config struct {
	Classifier *envdetect.Classifier
	Gatherer   prometheus.Gatherer
	Logger     log.Logger

	// AuthSecret enables bearer JWT auth of classification requests
	AuthSecret []byte
}

func versionInfo() VersionResponse {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return VersionResponse{Version: "unknown"}
	}

	version := bi.Main.Version
	if version == "" {
		version = "(devel)"
	}

	return VersionResponse{
		Version:   version,
		GoVersion: bi.GoVersion,
	}
}

// ApiRoutes builds the router of the classification API
func ApiRoutes(cfg Config) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestIdApi(), accessLogApi(logger))

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	classifier := cfg.Classifier
	v1 := router.Group("api/v1")
	{
		v1.GET("/version", contentTypeApi(), func(ctx *gin.Context) {
			marshalResponse(ctx, http.StatusOK, versionInfo())
		})

		v1.GET("/rules", contentTypeApi(), func(ctx *gin.Context) {
			marshalResponse(ctx, http.StatusOK, classifier.Rules())
		})

		v1.POST("/classify", contentTypeApi(), authBearerApi(cfg.AuthSecret), func(ctx *gin.Context) {
			var request ClassifyRequest
			if err := bindBody(ctx, &request); err != nil {
				abortWithError(ctx, http.StatusBadRequest, err)
				return
			}

			requestLogger := log.With(logger, "requestId", ctx.GetString(requestIdKey))
			result := classifier.WithLogger(requestLogger).Classify(ctx.Request.Context(), request.URL, request.Content)

			marshalResponse(ctx, http.StatusOK, ClassifyResponse{
				URL:    request.URL,
				Result: result,
			})
		})

		v1.POST("/batch", contentTypeApi(), authBearerApi(cfg.AuthSecret), func(ctx *gin.Context) {
			var targets batch.TargetList
			if err := bindBody(ctx, &targets); err != nil {
				abortWithError(ctx, http.StatusBadRequest, err)
				return
			}

			if len(targets.Targets) > maxBatchTargets {
				abortWithError(ctx, http.StatusRequestEntityTooLarge, ErrTooManyTargets)
				return
			}

			for _, target := range targets.Targets {
				if target.ContentFile != "" {
					abortWithError(ctx, http.StatusBadRequest, ErrContentFileNotAllowed)
					return
				}
			}

			requestLogger := log.With(logger, "requestId", ctx.GetString(requestIdKey))
			report := batch.Run(ctx.Request.Context(), func(l log.Logger) batch.Classifier {
				return classifier.WithLogger(l)
			}, targets, batch.RunOptions{
				Logger: requestLogger,
			})

			marshalResponse(ctx, http.StatusOK, report)
		})
	}

	return router
}
