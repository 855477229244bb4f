package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("id is invalid")
	}
	return id, nil
}

// queryInt returns nil when the parameter is absent.
func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Errorf("%s is invalid", name)
	}
	return &v, nil
}

func queryBool(c echo.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, errors.Errorf("%s is invalid", name)
	}
	return v, nil
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
