package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"shelternav.org/internal/models"
	"shelternav.org/internal/shelters"
)

var validate = validator.New()

// newShelterRequest is the body of POST /api/shelters.
type newShelterRequest struct {
	Name string   `json:"name" validate:"required,max=200"`
	Lat  *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lon  *float64 `json:"lon" validate:"required,min=-180,max=180"`
}

const maxShelterBodyBytes = 1 << 16

func (app *Application) listSheltersHandler(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, http.StatusOK, shelters.ToFeatureCollection(app.Gateway.ListShelters()))
}

func (app *Application) addShelterHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxShelterBodyBytes))
	if err != nil {
		app.errorResponse(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req newShelterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		app.errorResponse(w, http.StatusBadRequest, "request body must be JSON: {name, lon, lat}")
		return
	}
	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			app.errorResponse(w, http.StatusBadRequest, "invalid shelter: "+fieldErrs[0].Field()+" failed "+fieldErrs[0].Tag())
			return
		}
		app.errorResponse(w, http.StatusBadRequest, "invalid shelter")
		return
	}

	updated, err := app.Gateway.AddShelter(models.NewShelter(req.Name, *req.Lat, *req.Lon))
	if err != nil {
		app.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	app.writeJSON(w, http.StatusCreated, shelters.ToFeatureCollection(updated))
}
