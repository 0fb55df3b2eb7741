package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ordinary-note/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ErrorBody struct {
	Code    usecase.ErrorCode    `json:"code"`
	Message string               `json:"message"`
	Details []usecase.FieldError `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// NewHTTPErrorHandler はすべてのエラーを {"error":{code,message,details}} にする。
// AppError以外の中身はクライアントに出さない。
func NewHTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		appErr := toAppError(err)

		entry := log.WithFields(logrus.Fields{
			"method": c.Request().Method,
			"uri":    c.Request().RequestURI,
			"code":   appErr.Code,
		})
		if appErr.Status >= http.StatusInternalServerError {
			entry.WithError(err).Error("request failed")
		} else {
			entry.WithError(err).Debug("request rejected")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(appErr.Status)
		} else {
			werr = c.JSON(appErr.Status, ErrorResponse{Error: ErrorBody{
				Code:    appErr.Code,
				Message: appErr.Message,
				Details: appErr.Details,
			}})
		}
		if werr != nil {
			log.WithError(werr).Warn("write error response failed")
		}
	}
}

func toAppError(err error) *usecase.AppError {
	var appErr *usecase.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	//echoのルーティング・ミドルウェア由来
	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return usecase.NewNotFoundError("Route")
		case http.StatusMethodNotAllowed:
			return &usecase.AppError{Status: he.Code, Code: usecase.CodeResourceNotFound, Message: "Method not allowed"}
		case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
			v := usecase.NewValidationError()
			v.Status = he.Code
			if msg, ok := he.Message.(string); ok {
				v.Message = msg
			}
			return v
		case http.StatusServiceUnavailable:
			return usecase.ErrUpstreamFailed
		case http.StatusTooManyRequests:
			return usecase.ErrRateLimited
		case http.StatusUnauthorized:
			return usecase.ErrInvalidToken
		}
	}

	return usecase.ErrInternal
}

// リクエストボディのJSONを読み取り。壊れていたらVALIDATION_FAILED。
func decodeJSON(c echo.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return usecase.NewValidationError(usecase.FieldError{Field: "", Message: "Request body is required"})
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return usecase.NewValidationError(usecase.FieldError{Field: typeErr.Field, Message: "Invalid type"})
		}
		return usecase.NewValidationError(usecase.FieldError{Field: "", Message: "Malformed JSON"})
	}
	return nil
}
