package api

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/paulmach/orb/geojson"
	"github.com/treeshoptech/freedom-drains-pro/design"
	"github.com/treeshoptech/freedom-drains-pro/pricing"
	"github.com/treeshoptech/freedom-drains-pro/render"
	"github.com/treeshoptech/freedom-drains-pro/store"
)

type lineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
	Cost     int64   `json:"cost"`
	Detail   string  `json:"detail"`
}

type quoteResponse struct {
	Quote  pricing.Summary            `json:"quote"`
	Lines  []lineItem                 `json:"lines"`
	Total  string                     `json:"total"`
	Design *geojson.FeatureCollection `json:"design"`
	Layer  *geojson.FeatureCollection `json:"layer"`
}

// quote prices a posted FeatureCollection. Lengths and areas are measured
// from the geometry; ids are assigned to features without one.
func (s *Server) quote(c fiber.Ctx) error {
	features, err := design.UnmarshalFeatures(c.Body())
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid design: %v", err))
	}
	for i, f := range features {
		f = f.Measured()
		if f.Type.HasUnitPrice() && f.Price <= 0 {
			f.Price = s.units[f.Type]
		}
		features[i] = f
	}

	m := design.NewModel()
	loaded, err := m.Replace(features)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}

	summary := s.quoter.Quote(loaded)
	lines := summary.Lines()
	resp := quoteResponse{
		Quote:  summary,
		Lines:  make([]lineItem, 0, len(lines)),
		Total:  pricing.FormatMoney(summary.Total),
		Design: design.ToCollection(loaded),
		Layer:  render.Layer(s.palette.Project(loaded)),
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, lineItem{
			Name: l.Name, Quantity: l.Quantity, Unit: l.Unit, Rate: l.Rate, Cost: l.Cost, Detail: l.Detail(),
		})
	}
	return c.JSON(resp)
}

func (s *Server) listProjects(c fiber.Ctx) error {
	list, err := s.store.List(c.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []store.Summary{}
	}
	return c.JSON(fiber.Map{"projects": list})
}

type projectResponse struct {
	store.Project
	Design *geojson.FeatureCollection `json:"design"`
}

func (s *Server) getProject(c fiber.Ctx) error {
	p, err := s.store.Load(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(projectResponse{Project: p, Design: design.ToCollection(p.Design)})
}

func (s *Server) deleteProject(c fiber.Ctx) error {
	if err := s.store.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateStatus(c fiber.Ctx) error {
	var req statusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	status, err := store.ParseStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	p, err := s.store.UpdateStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(projectResponse{Project: p, Design: design.ToCollection(p.Design)})
}
