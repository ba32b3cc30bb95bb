package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"kyri56xcaesar/pms-tracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationError carries field-level failures found outside of request binding.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ":" + f.Rule
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func invalidField(field, rule, param string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule, Param: param}}}
}

// useJSONFieldNames makes validator report fields by their json names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func checkDateOrder(start, end string) error {
	if start != "" && end != "" && end < start {
		return invalidField("end_date", "gtefield", "start_date")
	}
	return nil
}

func respondBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]FieldError, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": []FieldError{{Field: te.Field, Rule: "type", Param: te.Type.String()}},
		})
		return
	}

	log.Printf("failed to bind input: %v", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
}

// respondError maps store and validation errors onto the JSON envelope.
// what names the entity in not-found messages.
func respondError(c *gin.Context, err error, what string) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": ve.Fields})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("%s not found", what)})
	case errors.Is(err, store.ErrNoFields):
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide fields to update"})
	case errors.Is(err, store.ErrConflict):
		log.Printf("conflicting %s: %v", what, err)
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("%s conflicts with an existing record", what)})
	case errors.Is(err, store.ErrInvalid):
		log.Printf("invalid %s: %v", what, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", what)})
	default:
		log.Printf("failed to handle %s request: %v", what, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
	}
}
