package domain

// ============================================================
// Enumerations: literal values stored in the database enums
// ============================================================

// Tier is the member loyalty classification (tier_cooperado).
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierPrata    Tier = "Prata"
	TierOuro     Tier = "Ouro"
	TierDiamante Tier = "Diamante"
)

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierBronze, TierPrata, TierOuro, TierDiamante}

func (t Tier) Valid() bool {
	for _, v := range Tiers {
		if v == t {
			return true
		}
	}
	return false
}

// Stage is the opportunity pipeline stage (estagio_oportunidade).
type Stage string

const (
	StageProspeccao   Stage = "Prospecção"
	StageQualificacao Stage = "Qualificação"
	StageDiagnostico  Stage = "Diagnóstico"
	StageProposta     Stage = "Proposta"
	StageNegociacao   Stage = "Negociação"
	StageGanho        Stage = "Ganho"
	StagePerdido      Stage = "Perdido"
)

// Stages is the pipeline in board order.
var Stages = []Stage{
	StageProspeccao,
	StageQualificacao,
	StageDiagnostico,
	StageProposta,
	StageNegociacao,
	StageGanho,
	StagePerdido,
}

func (s Stage) Valid() bool {
	for _, v := range Stages {
		if v == s {
			return true
		}
	}
	return false
}

// Open reports whether the opportunity is still in the pipeline.
func (s Stage) Open() bool {
	return s != StageGanho && s != StagePerdido
}

// Priority is the task priority (prioridade_tarefa).
type Priority string

const (
	PriorityBaixa Priority = "Baixa"
	PriorityMedia Priority = "Média"
	PriorityAlta  Priority = "Alta"
)

var Priorities = []Priority{PriorityBaixa, PriorityMedia, PriorityAlta}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

// InteractionType is the kind of timeline entry (tipo_interacao).
type InteractionType string

const (
	InteractionNote     InteractionType = "note"
	InteractionEmail    InteractionType = "email"
	InteractionCall     InteractionType = "call"
	InteractionMeeting  InteractionType = "meeting"
	InteractionWhatsApp InteractionType = "whatsapp"
	InteractionOther    InteractionType = "other"
)

var InteractionTypes = []InteractionType{
	InteractionNote,
	InteractionEmail,
	InteractionCall,
	InteractionMeeting,
	InteractionWhatsApp,
	InteractionOther,
}

func (t InteractionType) Valid() bool {
	for _, v := range InteractionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Filter values shared by the list endpoints.
const (
	FilterAll       = "Todos"
	FilterAllTypes  = "all"
	FilterAtivos    = "Ativos"
	FilterInativos  = "Inativos"
	FilterPending   = "pending"
	FilterCompleted = "completed"
)
