package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskflow-api/domain"
)

func registerCategories(e *echo.Echo, categories domain.CategoryStore, pub Publisher, logger *log.Logger) {
	e.GET("/api/categories", listCategories(categories))
	e.POST("/api/categories", createCategory(categories, pub, logger))
	e.PATCH("/api/categories/:id", updateCategory(categories, pub, logger))
	e.DELETE("/api/categories/:id", deleteCategory(categories, pub, logger))
}

func listCategories(categories domain.CategoryStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		cats, err := categories.GetAll(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, err.Error())
		}
		// Sidebar order.
		sort.SliceStable(cats, func(i, j int) bool {
			if cats[i].Order != cats[j].Order {
				return cats[i].Order < cats[j].Order
			}
			return cats[i].ID < cats[j].ID
		})
		return c.JSON(http.StatusOK, cats)
	}
}

func createCategory(categories domain.CategoryStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var fields domain.CategoryFields
		if err := decodeBody(c.Request().Body, &fields); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		fields.Name = strings.TrimSpace(fields.Name)
		if fields.Name == "" {
			return c.String(http.StatusBadRequest, "name is required")
		}
		cat, err := categories.Create(c.Request().Context(), fields)
		if err != nil {
			c.Logger().Error(err)
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityCategory, domain.ChangeCreated, cat.ID)
		return c.JSON(http.StatusCreated, cat)
	}
}

type categoryPatch struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
	Order *int    `json:"order"`
}

func (p categoryPatch) toUpdate() (domain.CategoryUpdate, error) {
	upd := domain.CategoryUpdate{Color: p.Color, Order: p.Order}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return domain.CategoryUpdate{}, errors.New("name must not be empty")
		}
		upd.Name = &name
	}
	return upd, nil
}

func updateCategory(categories domain.CategoryStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		var patch categoryPatch
		if err := decodeBody(c.Request().Body, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		upd, err := patch.toUpdate()
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		cat, err := categories.Update(c.Request().Context(), id, upd)
		if err != nil {
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityCategory, domain.ChangeUpdated, id)
		return c.JSON(http.StatusOK, cat)
	}
}

// deleteCategory removes the category only. Tasks keep their categoryId and
// are treated as uncategorized by the query engine, deletion never cascades.
func deleteCategory(categories domain.CategoryStore, pub Publisher, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := idParam(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		if err := categories.Delete(c.Request().Context(), id); err != nil {
			return c.String(statusFor(err), err.Error())
		}
		publish(c, pub, logger, domain.EntityCategory, domain.ChangeDeleted, id)
		return c.NoContent(http.StatusNoContent)
	}
}
