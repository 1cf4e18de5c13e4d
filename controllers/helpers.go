package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// bindJSON decodes the request body into dst. Broken JSON is a 400 detail;
// values of the wrong type are reported against their field.
func bindJSON(c *gin.Context, dst interface{}) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondDetail(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err == nil {
		return true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		utils.RespondDetail(c, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}

	errs := fieldDecodeErrors(reflect.TypeOf(dst).Elem(), fields)
	if len(errs) == 0 {
		utils.RespondDetail(c, http.StatusBadRequest, "JSON parse error - invalid request body")
		return false
	}
	utils.RespondValidation(c, errs)
	return false
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// fieldDecodeErrors decodes each member of the body on its own to find the
// fields whose values do not fit the target struct.
func fieldDecodeErrors(t reflect.Type, fields map[string]json.RawMessage) services.ValidationErrors {
	errs := services.ValidationErrors{}
	if t.Kind() != reflect.Struct {
		return errs
	}

	for key, raw := range fields {
		ft, ok := jsonFieldType(t, key)
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, reflect.New(ft).Interface()); err != nil {
			errs.Add(key, services.CodeInvalid, invalidValueMessage(ft))
		}
	}
	return errs
}

// jsonFieldType finds the field encoding/json would decode key into.
func jsonFieldType(t reflect.Type, key string) (reflect.Type, bool) {
	var fold reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if name == key {
			return f.Type, true
		}
		if fold == nil && strings.EqualFold(name, key) {
			fold = f.Type
		}
	}
	return fold, fold != nil
}

func invalidValueMessage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == decimalType {
		return "A valid number is required."
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "A valid integer is required."
	case reflect.Float32, reflect.Float64:
		return "A valid number is required."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.String:
		return "Not a valid string."
	}
	return "Invalid value."
}

// pathID parses a numeric path parameter; anything else is a 404.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusNotFound, services.ErrNotFound)
		return 0, false
	}
	return uint(id), true
}

// respondServiceError maps service errors onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	if verrs, ok := services.AsValidationErrors(err); ok {
		utils.RespondValidation(c, verrs)
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrNoFileAttached):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		utils.ErrorLogger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.RespondDetail(c, http.StatusInternalServerError, "A server error occurred.")
	}
}
