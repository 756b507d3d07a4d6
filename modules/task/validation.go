package task

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	domain "github.com/example/tarefas-api/domain/task"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a request fails validation.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

var fieldLabels = map[string]string{
	"id":        "Id",
	"titulo":    "Título",
	"descricao": "Descrição",
	"status":    "Status",
	"pagina":    "Página",
	"porPagina": "Itens por página",
}

// NewValidationError builds a ValidationError whose summary names the first field.
func NewValidationError(fields ...FieldError) *ValidationError {
	msg := "Dados inválidos"
	if len(fields) > 0 {
		label, ok := fieldLabels[fields[0].Field]
		if !ok {
			label = fields[0].Field
		}
		msg = label + " " + fields[0].Message
	}
	return &ValidationError{Message: msg, Fields: fields}
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describeTag(fe.Tag(), fe.Param())})
	}
	return NewValidationError(fields...)
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "é obrigatório"
	case "min":
		return fmt.Sprintf("deve ter pelo menos %s caracteres", param)
	case "max":
		return fmt.Sprintf("deve ter no máximo %s caracteres", param)
	case "oneof":
		return "deve ser um de: " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "é inválido"
	}
}

// ValidateID checks that id is a canonical 36-character UUID.
func ValidateID(id string) error {
	if len(id) != 36 {
		return NewValidationError(FieldError{Field: "id", Message: "deve ser um UUID válido"})
	}
	if _, err := uuid.Parse(id); err != nil {
		return NewValidationError(FieldError{Field: "id", Message: "deve ser um UUID válido"})
	}
	return nil
}

// ValidatePagination checks page >= 1 and 1 <= pageSize <= maxPageSize.
func ValidatePagination(page, pageSize, maxPageSize int) error {
	var fields []FieldError
	if page < 1 {
		fields = append(fields, FieldError{Field: "pagina", Message: "deve ser maior ou igual a 1"})
	}
	if pageSize < 1 || pageSize > maxPageSize {
		fields = append(fields, FieldError{
			Field:   "porPagina",
			Message: fmt.Sprintf("deve estar entre 1 e %d", maxPageSize),
		})
	}
	if len(fields) > 0 {
		return NewValidationError(fields...)
	}
	return nil
}

// ParsePagination converts raw query values, applying defaults for empty ones.
// Bounds are checked later by ValidatePagination.
func ParsePagination(rawPage, rawPageSize string) (int, int, error) {
	var fields []FieldError

	page, err := parseIntOr(rawPage, DefaultPage)
	if err != nil {
		fields = append(fields, FieldError{Field: "pagina", Message: "deve ser um número inteiro"})
	}
	pageSize, err := parseIntOr(rawPageSize, DefaultPageSize)
	if err != nil {
		fields = append(fields, FieldError{Field: "porPagina", Message: "deve ser um número inteiro"})
	}

	if len(fields) > 0 {
		return 0, 0, NewValidationError(fields...)
	}
	return page, pageSize, nil
}

func parseIntOr(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// ParseStatusFilter parses the status path token of the filter endpoint.
func ParseStatusFilter(token string) (domain.Status, error) {
	status, err := domain.ParseStatusToken(token)
	if err != nil {
		return "", NewValidationError(FieldError{
			Field:   "status",
			Message: fmt.Sprintf("deve ser um de: %s, %s", domain.TokenPending, domain.TokenDone),
		})
	}
	return status, nil
}

// DecodeCreate reads a create body leniently: a non-string titulo becomes
// empty and fails validation later, a non-string descricao becomes null.
func DecodeCreate(body map[string]any) CreateTaskRequest {
	var req CreateTaskRequest
	if title, ok := body["titulo"].(string); ok {
		req.Title = title
	}
	if desc, ok := body["descricao"].(string); ok {
		req.Description = &desc
	}
	return req
}

// DecodeUpdate reads a full update body. All three keys must be present.
// status may be a boolean (true means done) or a status name in any case.
func DecodeUpdate(body map[string]any) (UpdateTaskRequest, error) {
	var req UpdateTaskRequest
	var fields []FieldError

	switch title := body["titulo"].(type) {
	case string:
		req.Title = title
	case nil:
		fields = append(fields, FieldError{Field: "titulo", Message: "é obrigatório"})
	default:
		fields = append(fields, FieldError{Field: "titulo", Message: "deve ser texto"})
	}

	desc, ok := body["descricao"]
	switch d := desc.(type) {
	case string:
		req.Description = &d
	case nil:
		if !ok {
			fields = append(fields, FieldError{Field: "descricao", Message: "é obrigatório"})
		}
	default:
		fields = append(fields, FieldError{Field: "descricao", Message: "deve ser texto ou nulo"})
	}

	status, err := decodeStatus(body["status"])
	if err != nil {
		fields = append(fields, *err)
	}
	req.Status = status

	if len(fields) > 0 {
		return UpdateTaskRequest{}, NewValidationError(fields...)
	}
	return req, nil
}

func decodeStatus(raw any) (domain.Status, *FieldError) {
	switch v := raw.(type) {
	case bool:
		return domain.StatusFromBool(v), nil
	case string:
		// Form bodies carry booleans as text.
		if b, err := strconv.ParseBool(v); err == nil {
			return domain.StatusFromBool(b), nil
		}
		status, err := domain.ParseStatus(v)
		if err != nil {
			return "", &FieldError{Field: "status", Message: "deve ser booleano, PENDENTE ou CONCLUIDA"}
		}
		return status, nil
	case nil:
		return "", &FieldError{Field: "status", Message: "é obrigatório"}
	default:
		return "", &FieldError{Field: "status", Message: "deve ser booleano, PENDENTE ou CONCLUIDA"}
	}
}
