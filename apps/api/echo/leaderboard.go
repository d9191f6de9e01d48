package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gongbuapp/gongbu/core/leaderboard"
	"github.com/gongbuapp/gongbu/core/user"
)

type leaderboardApi struct {
	svc    leaderboard.ServiceInterface
	usrSvc user.ServiceInterface
}

func registerLeaderboardAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc leaderboard.ServiceInterface,
	usrSvc user.ServiceInterface,
) {
	api := leaderboardApi{
		svc:    svc,
		usrSvc: usrSvc,
	}

	lg := g.Group("/leaderboard", jwt)
	lg.GET("", api.board)
	lg.GET("/schools", api.schoolBoards)

	// a learner sees their own breakdown; teachers and admins see anyone's
	g.GET("/users/:id/score", api.userScore, jwt, scoreAccessMiddleware())
}

// Handlers

func (api *leaderboardApi) board(ctx echo.Context) error {
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}
	topN, err := bindTopN(ctx)
	if err != nil {
		return err
	}

	entries, err := api.svc.Generate(ctx.Request().Context(), w, topN)
	if err != nil {
		return errors.Wrap(err, "generating leaderboard")
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *leaderboardApi) schoolBoards(ctx echo.Context) error {
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}
	topN, err := bindTopN(ctx)
	if err != nil {
		return err
	}

	boards, err := api.svc.GenerateSchools(ctx.Request().Context(), w, topN)
	if err != nil {
		return errors.Wrap(err, "generating school leaderboards")
	}
	if boards == nil {
		boards = []leaderboard.SchoolBoard{}
	}
	return ctx.JSON(http.StatusOK, boards)
}

func (api *leaderboardApi) userScore(ctx echo.Context) error {
	w, err := bindWindow(ctx)
	if err != nil {
		return err
	}

	userID := ctx.Param("id")
	if _, err := api.usrSvc.GetByID(ctx.Request().Context(), userID); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}

	scores, err := api.svc.UserBreakdown(ctx.Request().Context(), userID, w)
	if err != nil {
		return errors.Wrap(err, "computing user breakdown")
	}
	return ctx.JSON(http.StatusOK, scores)
}

// scoreAccessMiddleware lets a user read their own score; teachers and admins
// can read any learner's.
func scoreAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if ctx.Param("id") == claims.Subject || claims.IsTeacher || claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
