package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

var validate = newValidator()

// newValidator usa el nombre JSON del campo en los mensajes de error.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// pathID copia el parámetro :id de la ruta. Sin Immutable, fasthttp reutiliza el buffer
// de la petición y el string devuelto por Params cambia con la siguiente.
func pathID(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// parseBody decodifica el JSON del body en dst y aplica las etiquetas `validate`.
// Responde 400 INVALID_BODY o VALIDATION y devuelve ok=false si algo falla.
func parseBody(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	if err := validate.Struct(dst); err != nil {
		return false, badRequest(c, "VALIDATION", validationMessage(err))
	}
	return true, nil
}

// validationMessage arma un mensaje legible a partir de los errores del validator.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s es requerido", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s excede %s caracteres", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s inválido (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
