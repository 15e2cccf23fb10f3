package domain

import (
	"strings"
	"time"
)

// ============================================================
// Write payloads: create/update bodies accepted by the API.
//
// Pointer fields make partial updates explicit: nil means "not sent".
// Row() returns only the columns that were supplied, so immutable
// columns (id, user_id, created_at) never reach the store.
// ============================================================

// CooperadoInput is the body of POST/PUT /v1/cooperados.
type CooperadoInput struct {
	Name           *string  `json:"name"`
	AvatarURL      *string  `json:"avatar_url"`
	Email          *string  `json:"email"`
	Since          *string  `json:"since"`
	Tier           *Tier    `json:"tier"`
	Value          *float64 `json:"value"`
	CompanyName    *string  `json:"company_name"`
	Sector         *string  `json:"sector"`
	AnnualRevenue  *float64 `json:"annual_revenue"`
	EmployeeCount  *int     `json:"employee_count"`
	Notes          *string  `json:"notes"`
	EngagementRate *float64 `json:"engagement_rate"`
	ConversionRate *float64 `json:"conversion_rate"`
}

// Validate checks the payload; create requires the mandatory columns.
func (in *CooperadoInput) Validate(create bool) error {
	if create || in.Name != nil {
		if err := required("name", in.Name); err != nil {
			return err
		}
	}
	if in.Tier != nil && !in.Tier.Valid() {
		return &ErrValidation{Field: "tier", Message: "must be one of Bronze, Prata, Ouro, Diamante"}
	}
	if in.Email != nil && *in.Email != "" && !strings.Contains(*in.Email, "@") {
		return &ErrValidation{Field: "email", Message: "invalid e-mail"}
	}
	if in.Since != nil && *in.Since != "" {
		if _, ok := ParseDate(*in.Since); !ok {
			return &ErrValidation{Field: "since", Message: "expected YYYY-MM-DD"}
		}
	}
	if err := nonNegative("value", in.Value); err != nil {
		return err
	}
	if err := nonNegative("annual_revenue", in.AnnualRevenue); err != nil {
		return err
	}
	if in.EmployeeCount != nil && *in.EmployeeCount < 0 {
		return &ErrValidation{Field: "employee_count", Message: "must not be negative"}
	}
	if err := percent("engagement_rate", in.EngagementRate); err != nil {
		return err
	}
	return percent("conversion_rate", in.ConversionRate)
}

func (in *CooperadoInput) Row() map[string]any {
	row := map[string]any{}
	setString(row, "name", in.Name)
	setString(row, "avatar_url", in.AvatarURL)
	setString(row, "email", in.Email)
	setString(row, "since", in.Since)
	if in.Tier != nil {
		row["tier"] = *in.Tier
	}
	setFloat(row, "value", in.Value)
	setString(row, "company_name", in.CompanyName)
	setString(row, "sector", in.Sector)
	setFloat(row, "annual_revenue", in.AnnualRevenue)
	if in.EmployeeCount != nil {
		row["employee_count"] = *in.EmployeeCount
	}
	setString(row, "notes", in.Notes)
	setFloat(row, "engagement_rate", in.EngagementRate)
	setFloat(row, "conversion_rate", in.ConversionRate)
	return row
}

// InteracaoInput is the body of POST /v1/cooperados/{id}/interacoes and PUT /v1/interacoes/{id}.
type InteracaoInput struct {
	Type        *InteractionType `json:"type"`
	Date        *time.Time       `json:"date"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
}

func (in *InteracaoInput) Validate(create bool) error {
	if create || in.Title != nil {
		if err := required("title", in.Title); err != nil {
			return err
		}
	}
	if create && in.Type == nil {
		return &ErrValidation{Field: "type", Message: "required"}
	}
	if in.Type != nil && !in.Type.Valid() {
		return &ErrValidation{Field: "type", Message: "must be one of note, email, call, meeting, whatsapp, other"}
	}
	return nil
}

func (in *InteracaoInput) Row() map[string]any {
	row := map[string]any{}
	if in.Type != nil {
		row["type"] = *in.Type
	}
	if in.Date != nil {
		row["date"] = in.Date.UTC().Format(time.RFC3339)
	}
	setString(row, "title", in.Title)
	setString(row, "description", in.Description)
	return row
}

// OportunidadeInput is the body of POST/PUT /v1/oportunidades.
type OportunidadeInput struct {
	CooperadoID       *int64   `json:"cooperado_id"`
	Title             *string  `json:"title"`
	Value             *float64 `json:"value"`
	Stage             *Stage   `json:"stage"`
	Description       *string  `json:"description"`
	ExpectedCloseDate *string  `json:"expected_close_date"`
}

func (in *OportunidadeInput) Validate(create bool) error {
	if create || in.Title != nil {
		if err := required("title", in.Title); err != nil {
			return err
		}
	}
	if create && in.CooperadoID == nil {
		return &ErrValidation{Field: "cooperado_id", Message: "required"}
	}
	if err := positiveID("cooperado_id", in.CooperadoID); err != nil {
		return err
	}
	if in.Stage != nil && !in.Stage.Valid() {
		return &ErrValidation{Field: "stage", Message: "unknown pipeline stage"}
	}
	if in.ExpectedCloseDate != nil && *in.ExpectedCloseDate != "" {
		if _, ok := ParseDate(*in.ExpectedCloseDate); !ok {
			return &ErrValidation{Field: "expected_close_date", Message: "expected YYYY-MM-DD"}
		}
	}
	return nonNegative("value", in.Value)
}

func (in *OportunidadeInput) Row() map[string]any {
	row := map[string]any{}
	if in.CooperadoID != nil {
		row["cooperado_id"] = *in.CooperadoID
	}
	setString(row, "title", in.Title)
	setFloat(row, "value", in.Value)
	if in.Stage != nil {
		row["stage"] = *in.Stage
	}
	setString(row, "description", in.Description)
	setString(row, "expected_close_date", in.ExpectedCloseDate)
	return row
}

// ProdutoInput is the body of POST/PUT /v1/produtos.
type ProdutoInput struct {
	Name        *string  `json:"name"`
	Category    *string  `json:"category"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
}

func (in *ProdutoInput) Validate(create bool) error {
	if create || in.Name != nil {
		if err := required("name", in.Name); err != nil {
			return err
		}
	}
	return nonNegative("price", in.Price)
}

func (in *ProdutoInput) Row() map[string]any {
	row := map[string]any{}
	setString(row, "name", in.Name)
	setString(row, "category", in.Category)
	setString(row, "description", in.Description)
	setFloat(row, "price", in.Price)
	if in.Active != nil {
		row["active"] = *in.Active
	}
	return row
}

// TarefaInput is the body of POST/PUT /v1/tarefas.
type TarefaInput struct {
	Title          *string   `json:"title"`
	DueDate        *string   `json:"due_date"`
	Priority       *Priority `json:"priority"`
	Completed      *bool     `json:"completed"`
	CooperadoID    *int64    `json:"cooperado_id"`
	OportunidadeID *int64    `json:"oportunidade_id"`
}

func (in *TarefaInput) Validate(create bool) error {
	if create || in.Title != nil {
		if err := required("title", in.Title); err != nil {
			return err
		}
	}
	if err := positiveID("cooperado_id", in.CooperadoID); err != nil {
		return err
	}
	if err := positiveID("oportunidade_id", in.OportunidadeID); err != nil {
		return err
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return &ErrValidation{Field: "priority", Message: "must be one of Baixa, Média, Alta"}
	}
	if in.DueDate != nil && *in.DueDate != "" {
		if _, ok := ParseDate(*in.DueDate); !ok {
			return &ErrValidation{Field: "due_date", Message: "expected YYYY-MM-DD"}
		}
	}
	return nil
}

func (in *TarefaInput) Row() map[string]any {
	row := map[string]any{}
	setString(row, "title", in.Title)
	setString(row, "due_date", in.DueDate)
	if in.Priority != nil {
		row["priority"] = *in.Priority
	}
	if in.Completed != nil {
		row["completed"] = *in.Completed
	}
	if in.CooperadoID != nil {
		row["cooperado_id"] = *in.CooperadoID
	}
	if in.OportunidadeID != nil {
		row["oportunidade_id"] = *in.OportunidadeID
	}
	return row
}

// StageUpdate is the body of PATCH /v1/oportunidades/{id}/stage.
type StageUpdate struct {
	Stage Stage `json:"stage"`
}

// CompletionUpdate is the body of PATCH /v1/tarefas/{id}/complete.
type CompletionUpdate struct {
	Completed bool `json:"completed"`
}

// --- helpers ---

func required(field string, v *string) error {
	if v == nil || strings.TrimSpace(*v) == "" {
		return &ErrValidation{Field: field, Message: "required"}
	}
	return nil
}

func positiveID(field string, v *int64) error {
	if v != nil && *v <= 0 {
		return &ErrValidation{Field: field, Message: "must be a positive id"}
	}
	return nil
}

func nonNegative(field string, v *float64) error {
	if v != nil && *v < 0 {
		return &ErrValidation{Field: field, Message: "must not be negative"}
	}
	return nil
}

func percent(field string, v *float64) error {
	if v != nil && (*v < 0 || *v > 100) {
		return &ErrValidation{Field: field, Message: "must be between 0 and 100"}
	}
	return nil
}

// Empty strings clear nullable text columns.
func setString(row map[string]any, col string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		row[col] = nil
		return
	}
	row[col] = strings.TrimSpace(*v)
}

func setFloat(row map[string]any, col string, v *float64) {
	if v != nil {
		row[col] = *v
	}
}
