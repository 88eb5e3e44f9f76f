package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// songIDParam parses the :id path parameter.
func songIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid song id")
	}
	return id, nil
}

// writeDomainErr maps ledger and repository errors onto HTTP responses
// so every handler reports the same way.
func writeDomainErr(c echo.Context, err error) error {
	var insufficient *ledger.InsufficientSharesError
	var dist *ledger.RevenueDistributionError
	switch {
	case errors.Is(err, ledger.ErrSongNotFound), errors.Is(err, ledger.ErrUnknownTransaction):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment declined"})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough shares available",
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.Is(err, ledger.ErrSongAlreadyExists),
		errors.Is(err, ledger.ErrVersionConflict),
		errors.Is(err, ledger.ErrTradingDisabled),
		errors.Is(err, ledger.ErrSongNotAvailable),
		errors.Is(err, ledger.ErrMaxSharesPerUserExceeded),
		errors.Is(err, ledger.ErrOwnershipExceedsLimit),
		errors.As(err, &dist):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalidOwnershipPercentage),
		errors.Is(err, ledger.ErrInvalidSharePrice),
		errors.Is(err, ledger.ErrInvalidRevenueAmount),
		errors.Is(err, ledger.ErrInvalidTotalShares),
		errors.Is(err, ledger.ErrInvalidShareQuantity),
		errors.Is(err, ledger.ErrCannotPurchaseOwnSong),
		errors.Is(err, ledger.ErrSelfTransfer):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
