package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gongbuapp/gongbu/core"
	"github.com/gongbuapp/gongbu/core/session"
)

var (
	orderingParam = "ordering"
	windowParam   = "window"
	topParam      = "top"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindWindow parses the "window" query param; empty means all time.
func bindWindow(ctx echo.Context) (session.Window, error) {
	w, err := session.ParseWindow(ctx.QueryParam(windowParam))
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: windowParam, Error: "must be one of: all, week, month"})
	}
	return w, nil
}

// bindTopN parses the "top" query param; 0 lets the service apply its default.
func bindTopN(ctx echo.Context) (int, error) {
	val := ctx.QueryParam(topParam)
	if val == "" {
		return 0, nil
	}
	top, err := strconv.Atoi(val)
	if err != nil || top < 1 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: topParam, Error: "must be a positive integer"})
	}
	return top, nil
}
