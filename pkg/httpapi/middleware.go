package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedMediaType = fmt.Errorf("unsupported content type request")
	ErrInvalidAuthHeader    = fmt.Errorf("invalid Authorization header")
	ErrInvalidToken         = fmt.Errorf("invalid bearer token")
)

const (
	responseMarshalKey = "responseMarshal"
	requestIdKey       = "requestId"
	authClaimsKey      = "authClaims"

	RequestIdHeader = "X-Request-Id"
)

func filterFlags(content string) string {
	for i, char := range content {
		if char == ' ' || char == ';' {
			return content[:i]
		}
	}
	return content
}

func selectAcceptedType(header http.Header) []string {
	accepts := header.Values("Accept")
	result := make([]string, 0, len(accepts))
	for _, a := range accepts {
		for _, part := range strings.Split(a, ",") {
			result = append(result, filterFlags(strings.TrimSpace(part)))
		}
	}

	if len(result) == 0 {
		result = append(result, "")
	}

	return result
}

type responseHandler func(code int, obj any)

func replyWithAcceptedType(c *gin.Context) (responseHandler, error) {
	for _, contentType := range selectAcceptedType(c.Request.Header) {
		switch contentType {
		case "", "*/*", "application/*", gin.MIMEJSON:
			return c.JSON, nil
		case gin.MIMEYAML, "text/yaml", "application/yaml", "text/x-yaml":
			return c.YAML, nil
		case gin.MIMEXML, gin.MIMEXML2:
			return c.XML, nil
		}
	}

	return nil, ErrUnsupportedMediaType
}

func marshalResponse(ctx *gin.Context, code int, responseValue any) {
	marshalResponse := ctx.MustGet(responseMarshalKey).(responseHandler)
	marshalResponse(code, responseValue)
}

func abortWithError(ctx *gin.Context, code int, errValue error) {
	if apiError, ok := errValue.(*ErrorResponse); ok {
		ctx.AbortWithStatusJSON(apiError.Code, apiError)
		return
	}

	ctx.AbortWithStatusJSON(code, NewErrorResponse(code, errValue))
}

func contentTypeApi() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// select response encoder base of accept-type:
		marshalResponse, err := replyWithAcceptedType(ctx)
		if err != nil {
			abortWithError(ctx, http.StatusNotAcceptable, err)
			return
		}

		ctx.Set(responseMarshalKey, marshalResponse)
		ctx.Next()
	}
}

// Monkey-patch GIN to respect other spelling of yaml mime-type
func bindingFor(method, contentType string) binding.Binding {
	switch contentType {
	case gin.MIMEYAML, "text/yaml", "application/yaml", "text/x-yaml":
		return binding.YAML
	case "", "*/*", gin.MIMEJSON:
		return binding.JSON
	default:
		return binding.Default(method, contentType)
	}
}

func bindBody(ctx *gin.Context, value any) error {
	return ctx.ShouldBindWith(value, bindingFor(ctx.Request.Method, ctx.ContentType()))
}

func requestIdApi() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestId := ctx.GetHeader(RequestIdHeader)
		if _, err := uuid.Parse(requestId); err != nil {
			requestId = uuid.NewString()
		}

		ctx.Set(requestIdKey, requestId)
		ctx.Header(RequestIdHeader, requestId)
		ctx.Next()
	}
}

func accessLogApi(logger log.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		started := time.Now()
		ctx.Next()

		level.Info(logger).Log(
			"msg", "request",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"status", ctx.Writer.Status(),
			"duration", time.Since(started),
			"requestId", ctx.GetString(requestIdKey),
		)
	}
}

func extractAuthBearer(ctx *gin.Context) (string, error) {
	// Get the "Authorization" header
	authorization := ctx.Request.Header.Get("Authorization")
	if authorization == "" {
		return "", ErrInvalidAuthHeader
	}

	// Split it into two parts - "Bearer" and token
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidAuthHeader
	}

	return parts[1], nil
}

// authBearerApi requires a HS256 JWT signed with secret. An empty secret disables the check.
func authBearerApi(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if len(secret) == 0 {
			ctx.Next()
			return
		}

		tokenString, err := extractAuthBearer(ctx)
		if err != nil {
			abortWithError(ctx, http.StatusUnauthorized, err)
			return
		}

		claims := jwt.RegisteredClaims{}
		_, err = jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			abortWithError(ctx, http.StatusUnauthorized, fmt.Errorf("%w: %v", ErrInvalidToken, err))
			return
		}

		ctx.Set(authClaimsKey, claims)
		ctx.Next()
	}
}

// NewToken issues a HS256 token accepted by servers sharing the secret
func NewToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
