package service

import (
	"strings"
	"testing"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
)

func TestDetectIntent(t *testing.T) {
	roster := []maindomain.Cooperado{
		{ID: 1, Name: "Ana"},
		{ID: 2, Name: "Ana Souza"},
		{ID: 3, Name: "Jo"},
		{ID: 4, Name: "José Évora"},
	}

	tests := []struct {
		name          string
		message       string
		wantIntent    string
		wantMentioned int64
	}{
		{"longest name wins", "como vai a ana souza?", domain.IntentCooperado, 2},
		{"short name", "Resumo da Ana", domain.IntentCooperado, 1},
		{"accented name, any case", "e o JOSÉ ÉVORA?", domain.IntentCooperado, 4},
		{"names under three letters are ignored", "Jo comprou?", domain.IntentGeneral, 0},
		{"churn keyword", "quem está inativo?", domain.IntentChurn, 0},
		{"name beats churn keyword", "Ana está em risco?", domain.IntentCooperado, 1},
		{"sem contato", "clientes sem contato", domain.IntentChurn, 0},
		{"general", "bom dia", domain.IntentGeneral, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, mentioned := detectIntent(tt.message, roster)
			if intent != tt.wantIntent {
				t.Errorf("intent: expected %q, got %q", tt.wantIntent, intent)
			}
			var got int64
			if mentioned != nil {
				got = mentioned.ID
			}
			if got != tt.wantMentioned {
				t.Errorf("mentioned: expected %d, got %d", tt.wantMentioned, got)
			}
		})
	}
}

func TestToTurns_KeepsLastTwenty(t *testing.T) {
	var history []domain.ChatMessage
	for i := 0; i < 25; i++ {
		sender := domain.SenderUser
		if i%2 == 1 {
			sender = domain.SenderAI
		}
		history = append(history, domain.ChatMessage{SenderType: sender, Content: strings.Repeat("x", i+1)})
	}

	turns := toTurns(history)

	if len(turns) != maxHistoryTurns {
		t.Fatalf("expected %d turns, got %d", maxHistoryTurns, len(turns))
	}
	if len(turns[0].Text) != 6 {
		t.Errorf("expected oldest kept message to be #6, got length %d", len(turns[0].Text))
	}
	if turns[0].Role != "model" {
		t.Errorf("expected message #6 (ai) to map to model, got %q", turns[0].Role)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("  curto  ", 40); got != "curto" {
		t.Errorf("expected 'curto', got %q", got)
	}
	if got := truncateRunes("ação ação", 4); got != "ação..." {
		t.Errorf("expected 'ação...', got %q", got)
	}
}
