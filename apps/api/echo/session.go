package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gongbuapp/gongbu/core/session"
)

type sessionApi struct {
	svc        session.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc session.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := sessionApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	sg := g.Group("/sessions", jwt)
	sg.POST("", api.log, studentMiddleware())
	sg.GET("", api.query)
	sg.DELETE("/:id", api.destroy, adminMiddleware())
}

// Handlers

func (api *sessionApi) log(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.Log(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "logging session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

// query returns the caller's own session history, most recent first.
func (api *sessionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}

	sessions, err := api.svc.QueryByUser(ctx.Request().Context(), claims.Subject, w)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == session.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding session by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
