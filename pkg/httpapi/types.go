package httpapi

import (
	"fmt"

	"github.com/sre-norns/envprobe/pkg/envdetect"
)

type (
	ClassifyRequest struct {
		URL     string `form:"url" json:"url" yaml:"url" xml:"url" binding:"required"`
		Content string `form:"content" json:"content,omitempty" yaml:"content,omitempty" xml:"content,omitempty"`
	}

	ClassifyResponse struct {
		URL              string `json:"url" yaml:"url" xml:"url"`
		envdetect.Result `json:",inline" yaml:",inline" xml:"result"`
	}

	VersionResponse struct {
		Version   string `json:"version" yaml:"version" xml:"version"`
		GoVersion string `json:"goVersion,omitempty" yaml:"goVersion,omitempty" xml:"goVersion,omitempty"`
	}

	ErrorResponse struct {
		Code    int    `json:"code" yaml:"code" xml:"code"`
		Message string `json:"message" yaml:"message" xml:"message"`
	}
)

func NewErrorResponse(statusCode int, err error) ErrorResponse {
	return ErrorResponse{
		Code:    statusCode,
		Message: err.Error(),
	}
}

// ErrorResponse implements error interface
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%v %s", e.Code, e.Message)
}
