package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/goledger/domain"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

// BidTooLowBody is the data of a rejected bid
type BidTooLowBody struct {
	Message           string `json:"message"`
	MinimumAcceptable string `json:"minimumAcceptable"`
}

// ErrorStatus maps ledger errors to http status codes, fallback is used for anything unknown
func ErrorStatus(err error, fallback int) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrAlreadyListed),
		errors.Is(err, domain.ErrAuctionHasBids),
		errors.Is(err, domain.ErrDuplicateId):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsBusinessError(err):
		return http.StatusBadRequest
	}
	return fallback
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		status = ErrorStatus(err, status)
		tooLow := &domain.BidTooLowError{}
		if errors.As(err, &tooLow) {
			data = BidTooLowBody{err.Error(), tooLow.MinimumAcceptable.String()}
		} else {
			data = err.Error()
		}
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
