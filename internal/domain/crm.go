// Package domain defines the core business entities for the GestorCoop BFF.
// These models mirror the rows of the hosted database and are the canonical
// data structures used throughout the service.
package domain

import (
	"strings"
	"time"
)

// ============================================================
// Cooperados (members)
// ============================================================

// Cooperado represents a cooperative member profile and its engagement metrics.
type Cooperado struct {
	ID             int64       `json:"id"`
	UserID         string      `json:"user_id"`
	Name           string      `json:"name"`
	AvatarURL      string      `json:"avatar_url,omitempty"`
	Email          string      `json:"email,omitempty"`
	Since          string      `json:"since,omitempty"` // YYYY-MM-DD
	Tier           Tier        `json:"tier,omitempty"`
	Value          float64     `json:"value"` // pipeline value
	CompanyName    string      `json:"company_name,omitempty"`
	Sector         string      `json:"sector,omitempty"`
	AnnualRevenue  float64     `json:"annual_revenue"`
	EmployeeCount  int         `json:"employee_count"`
	Notes          string      `json:"notes,omitempty"`
	EngagementRate float64     `json:"engagement_rate"`
	ConversionRate float64     `json:"conversion_rate"`
	CreatedAt      time.Time   `json:"created_at"`
	Interacoes     []Interacao `json:"interacoes,omitempty"`
}

// Matches reports whether the member name or company contains q (case-insensitive).
func (c *Cooperado) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.Name), q) ||
		strings.Contains(strings.ToLower(c.CompanyName), q)
}

// LastInteraction returns the most recent timeline entry date, if any.
func (c *Cooperado) LastInteraction() (time.Time, bool) {
	var last time.Time
	for _, i := range c.Interacoes {
		if i.Date.After(last) {
			last = i.Date
		}
	}
	return last, !last.IsZero()
}

// JoinedAt returns the membership start, falling back to the row creation time.
func (c *Cooperado) JoinedAt() time.Time {
	if t, ok := ParseDate(c.Since); ok {
		return t
	}
	return c.CreatedAt
}

// ============================================================
// Interações (member timeline)
// ============================================================

// Interacao is a timestamped timeline entry under a member.
type Interacao struct {
	ID          int64           `json:"id"`
	CooperadoID int64           `json:"cooperado_id"`
	AuthorID    string          `json:"author_id"`
	Type        InteractionType `json:"type"`
	Date        time.Time       `json:"date"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Matches reports whether the title or description contains q (case-insensitive).
func (i *Interacao) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(i.Title), q) ||
		strings.Contains(strings.ToLower(i.Description), q)
}

// ============================================================
// Oportunidades (sales pipeline)
// ============================================================

// Oportunidade is a sales opportunity linked to a member.
type Oportunidade struct {
	ID                int64      `json:"id"`
	UserID            string     `json:"user_id"`
	CooperadoID       int64      `json:"cooperado_id"`
	Title             string     `json:"title"`
	Value             float64    `json:"value"`
	Stage             Stage      `json:"stage"`
	Description       string     `json:"description,omitempty"`
	ExpectedCloseDate string     `json:"expected_close_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	Cooperado         *Cooperado `json:"cooperados,omitempty"` // embedded by PostgREST
}

// CooperadoName returns the linked member name, or "" when not embedded.
func (o *Oportunidade) CooperadoName() string {
	if o.Cooperado == nil {
		return ""
	}
	return o.Cooperado.Name
}

// Matches reports whether the title or member name contains q (case-insensitive).
func (o *Oportunidade) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(o.Title), q) ||
		strings.Contains(strings.ToLower(o.CooperadoName()), q)
}

// ============================================================
// Produtos (catalog)
// ============================================================

// Produto is a catalog item offered to members.
type Produto struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Matches reports whether the name or description contains q (case-insensitive).
func (p *Produto) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// ============================================================
// Tarefas (tasks)
// ============================================================

// Tarefa is a task, optionally linked to a member or an opportunity.
type Tarefa struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	DueDate        string    `json:"due_date,omitempty"`
	Priority       Priority  `json:"priority,omitempty"`
	Completed      bool      `json:"completed"`
	CooperadoID    *int64    `json:"cooperado_id,omitempty"`
	OportunidadeID *int64    `json:"oportunidade_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Overdue        bool      `json:"overdue"`
}

// IsOverdue reports whether the task is pending and its due day is before
// now's UTC day.
func (t *Tarefa) IsOverdue(now time.Time) bool {
	if t.Completed {
		return false
	}
	due, ok := ParseDate(t.DueDate)
	if !ok {
		return false
	}
	now = now.UTC()
	due = due.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return dueDay.Before(today)
}

// ============================================================
// Profiles
// ============================================================

// Profile is the authenticated user's public profile row.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

// ParseDate accepts a plain date (YYYY-MM-DD) or an RFC3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
